package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AdminHandler exposes operator endpoints: manual wallet adjustments
// and on-demand runs of the maintenance jobs the scheduler normally
// drives.
type AdminHandler struct {
	walletService  service.WalletService
	listingService service.ListingService
	accounts       repository.AccountRepository
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewAdminHandler(
	walletService service.WalletService,
	listingService service.ListingService,
	accounts repository.AccountRepository,
	v *validator.Validate,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		walletService:  walletService,
		listingService: listingService,
		accounts:       accounts,
		validate:       v,
		logger:         logger,
	}
}

// RegisterRoutes mounts admin routes; adminMw must reject non-admin roles.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/wallet/credit", adminMw(http.HandlerFunc(h.creditWallet)))
	mux.Handle("/admin/wallet/debit", adminMw(http.HandlerFunc(h.debitWallet)))
	mux.Handle("/admin/jobs/deactivate-expired", adminMw(http.HandlerFunc(h.deactivateExpired)))
	mux.Handle("/admin/jobs/reset-free-plans", adminMw(http.HandlerFunc(h.resetFreePlans)))
}

func (h *AdminHandler) creditWallet(w http.ResponseWriter, r *http.Request) {
	h.mutateWallet(w, r, h.walletService.Credit)
}

func (h *AdminHandler) debitWallet(w http.ResponseWriter, r *http.Request) {
	h.mutateWallet(w, r, h.walletService.Debit)
}

func (h *AdminHandler) mutateWallet(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, accountID string, amount int, reason string) (*model.Account, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.WalletMutationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := op(r.Context(), req.AccountID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, repository.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
		case errors.Is(err, service.ErrInvalidAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error().Err(err).Msg("wallet mutation failed")
			http.Error(w, "wallet mutation failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountToDTO(acc))
}

func (h *AdminHandler) deactivateExpired(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := h.listingService.DeactivateExpired(r.Context(), time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to deactivate expired listings")
		http.Error(w, "failed to deactivate expired listings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deactivated": n})
}

func (h *AdminHandler) resetFreePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := h.accounts.ResetFreePlans(r.Context(), time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to reset free plans")
		http.Error(w, "failed to reset free plans", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"reset": n})
}
