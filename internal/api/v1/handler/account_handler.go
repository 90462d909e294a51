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
)

type AccountHandler struct {
	accountService service.AccountService
	validate       *validator.Validate
}

func NewAccountHandler(accountService service.AccountService, v *validator.Validate) *AccountHandler {
	return &AccountHandler{accountService: accountService, validate: v}
}

// RegisterRoutes mounts v1 account routes
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/accounts/me", authMw(http.HandlerFunc(h.handleAccounts)))
	mux.Handle("/accounts/me/wallet", authMw(http.HandlerFunc(h.getWallet)))
	mux.Handle("/accounts/me/entitlement", authMw(http.HandlerFunc(h.getEntitlement)))
}

func (h *AccountHandler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/accounts/me":
		h.createAccount(w, r)

	case r.Method == http.MethodGet && r.URL.Path == "/accounts/me":
		h.getAccount(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AccountHandler) createAccount(w http.ResponseWriter, r *http.Request) {
	// 1. Extract account ID from context
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	// 2. Decode request body into DTO
	var req dto.AccountCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 3. Validate DTO
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 4. Build the account model; the referral code (if any) is
	// resolved inside the registration transaction.
	acc := &model.Account{
		ID:    accountID,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	created, err := h.accountService.Register(r.Context(), acc, req.ReferralCode)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			http.Error(w, "account already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to register account: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// 5. Return response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(accountToDTO(created))
}

func (h *AccountHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	acc, err := h.accountService.Get(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountToDTO(acc))
}

func (h *AccountHandler) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	acc, err := h.accountService.Get(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	resp := dto.WalletResponseDTO{
		Balance: acc.WalletBalance,
		History: make([]dto.WalletEntryDTO, 0, len(acc.WalletHistory)),
	}
	for _, e := range acc.WalletHistory {
		resp.History = append(resp.History, dto.WalletEntryDTO{
			Amount:    e.Amount,
			Kind:      e.Kind,
			Reason:    e.Reason,
			Timestamp: e.Timestamp,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AccountHandler) getEntitlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	ent, err := h.accountService.CanPost(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.EntitlementResponseDTO{Allowed: ent.Allowed, Reason: ent.Reason})
}

func accountToDTO(acc *model.Account) dto.AccountResponseDTO {
	return dto.AccountResponseDTO{
		ID:                acc.ID,
		Name:              acc.Name,
		Email:             acc.Email,
		Phone:             acc.Phone,
		PlanType:          string(acc.PlanType),
		PlanStart:         acc.PlanStart,
		PlanEnd:           acc.PlanEnd,
		AdsPostedInPeriod: acc.AdsPostedInPeriod,
		MaxAdsAllowed:     acc.MaxAdsAllowed,
		WalletBalance:     acc.WalletBalance,
		ReferralCode:      acc.ReferralCode,
		CreatedAt:         acc.CreatedAt,
	}
}
