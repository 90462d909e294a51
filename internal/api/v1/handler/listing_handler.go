package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ListingHandler handles listing lifecycle endpoints.
type ListingHandler struct {
	listingService service.ListingService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewListingHandler(listingService service.ListingService, v *validator.Validate, logger zerolog.Logger) *ListingHandler {
	return &ListingHandler{listingService: listingService, validate: v, logger: logger}
}

// RegisterRoutes mounts listing routes under /listings/{id}
func (h *ListingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/listings", authMw(http.HandlerFunc(h.createListing)))
	mux.Handle("/listings/", authMw(http.HandlerFunc(h.handleListing)))
	mux.Handle("/listings/upload-url", authMw(http.HandlerFunc(h.getUploadURL)))
}

// createListing godoc
// @Summary Create a classified listing
// @Description Charges one posting slot from the owner's quota and creates the listing pending moderation.
// @Tags listings
// @Accept json
// @Produce json
// @Param listing body dto.ListingCreateDTO true "Listing payload"
// @Success 201 {object} dto.ListingResponseDTO
// @Failure 400 {string} string "invalid payload"
// @Failure 403 {string} string "posting not allowed"
// @Router /listings [post]
func (h *ListingHandler) createListing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.ListingCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	listing := &model.Listing{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ListingType: req.ListingType,
		Images:      req.Images,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CreatedBy:   accountID,
	}

	created, err := h.listingService.Create(r.Context(), listing)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, repository.ErrPostingLimitReached),
			errors.Is(err, service.ErrPlanExpired):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.Error().Err(err).Msg("failed to create listing")
			http.Error(w, "failed to create listing", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(listingToDTO(created))
}

func (h *ListingHandler) handleListing(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/listings/")
	if suffix, found := strings.CutSuffix(rest, "/approval"); found {
		h.setApproval(w, r, suffix)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	listing, err := h.listingService.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// A read is a view. Count failures do not fail the request.
	if err := h.listingService.RecordView(r.Context(), id); err != nil {
		h.logger.Warn().Err(err).Int64("listing_id", id).Msg("failed to record view")
	} else {
		listing.ViewCount++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listingToDTO(listing))
}

// setApproval resolves moderation for a listing. Admin only.
func (h *ListingHandler) setApproval(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	role, _ := r.Context().Value(middleware.RoleContextKey).(string)
	if role != "admin" {
		http.Error(w, "Forbidden: admin only", http.StatusForbidden)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}

	var req dto.ListingApprovalDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	listing, err := h.listingService.Approve(r.Context(), id, *req.Approved)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Msg("failed to set approval")
			http.Error(w, "failed to set approval", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listingToDTO(listing))
}

// getUploadURL godoc
// @Summary Get a presigned upload URL for a listing image
// @Tags listings
// @Accept json
// @Produce json
// @Param upload body dto.UploadURLRequestDTO true "Upload request"
// @Success 200 {object} dto.UploadURLResponseDTO
// @Router /listings/upload-url [post]
func (h *ListingHandler) getUploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || accountID == "" {
		http.Error(w, "Unauthorized: account ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.UploadURLRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	url, storagePath, err := h.listingService.ImageUploadURL(r.Context(), accountID, req.Filename)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to presign upload URL")
		http.Error(w, "failed to create upload URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.UploadURLResponseDTO{UploadURL: url, StoragePath: storagePath})
}

func listingToDTO(l *model.Listing) dto.ListingResponseDTO {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return dto.ListingResponseDTO{
		ID:             l.ID,
		CreatedBy:      l.CreatedBy,
		Name:           l.Name,
		Description:    l.Description,
		Price:          l.Price,
		CategoryID:     l.CategoryID,
		ListingType:    l.ListingType,
		Images:         images,
		Latitude:       l.Latitude,
		Longitude:      l.Longitude,
		IsActive:       l.IsActive,
		IsApproved:     l.IsApproved,
		ViewCount:      l.ViewCount,
		PostedDate:     l.PostedDate,
		ValidUntilDate: l.ValidUntil,
	}
}
