package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PlanHandler serves the plan catalog and credit redemptions.
type PlanHandler struct {
	planService service.PlanService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewPlanHandler(planService service.PlanService, v *validator.Validate, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, validate: v, logger: logger}
}

// RegisterRoutes mounts plan routes
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/plans", authMw(http.HandlerFunc(h.listPlans)))
	mux.Handle("/plans/redeem", authMw(http.HandlerFunc(h.redeemPlan)))
}

func (h *PlanHandler) listPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	plans := h.planService.Catalog()
	resp := make([]dto.PlanResponseDTO, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, dto.PlanResponseDTO{
			Name:          string(p.Name),
			DurationDays:  p.DurationDays,
			MaxAdsGranted: p.MaxAdsGranted,
			CashPrice:     p.CashPrice,
			CreditPrice:   p.CreditPrice,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// redeemPlan godoc
// @Summary Redeem a plan with wallet credits
// @Description Debits the plan's credit price from the wallet and applies the plan atomically.
// @Tags plans
// @Accept json
// @Produce json
// @Param plan body dto.PlanRedeemDTO true "Plan to redeem"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 400 {string} string "unknown plan"
// @Failure 402 {string} string "insufficient funds"
// @Router /plans/redeem [post]
func (h *PlanHandler) redeemPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.PlanRedeemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := h.planService.ApplyPlanViaCredits(r.Context(), accountID, model.PlanType(req.PlanType))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repository.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Msg("failed to redeem plan")
			http.Error(w, "failed to redeem plan", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountToDTO(acc))
}
