package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler handles gateway order creation, client-side payment
// confirmation and the server-side webhook.
type PaymentHandler struct {
	paymentService *service.PaymentService
	gatewayKeyID   string
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, gatewayKeyID string, v *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, gatewayKeyID: gatewayKeyID, validate: v, logger: logger}
}

// RegisterRoutes mounts payment routes. The webhook route is not
// behind auth; the gateway signs it instead.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/payments/order", authMw(http.HandlerFunc(h.createOrder)))
	mux.Handle("/payments/confirm", authMw(http.HandlerFunc(h.confirmPayment)))
	mux.Handle("/payments/webhook", http.HandlerFunc(h.webhook))
}

// createOrder godoc
// @Summary Create a payment gateway order for a plan purchase
// @Tags payments
// @Accept json
// @Produce json
// @Param order body dto.OrderCreateDTO true "Order request"
// @Success 200 {object} dto.OrderResponseDTO
// @Failure 400 {string} string "amount matches no plan"
// @Router /payments/order [post]
func (h *PaymentHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.OrderCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.paymentService.CreateOrder(r.Context(), accountID, req.Amount, "INR")
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create gateway order")
		http.Error(w, "failed to create order", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.OrderResponseDTO{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    h.gatewayKeyID,
	})
}

// confirmPayment godoc
// @Summary Confirm a captured payment and apply the purchased plan
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.PaymentConfirmDTO true "Payment confirmation"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 400 {string} string "invalid signature or unknown amount"
// @Router /payments/confirm [post]
func (h *PaymentHandler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PaymentConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := h.paymentService.ConfirmPayment(r.Context(), accountID, req.OrderID, req.PaymentID, req.Signature, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrInvalidPlan):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Msg("failed to confirm payment")
			http.Error(w, "failed to confirm payment", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountToDTO(acc))
}

func (h *PaymentHandler) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if err := h.paymentService.HandleWebhook(r.Context(), body, signature); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("webhook processing failed")
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
