package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/eventgate/internal/middleware"
	"github.com/hitoshi/eventgate/internal/model"
)

// ReferenceServiceInterface は参照データハンドラーが必要とするサービスインターフェース。
type ReferenceServiceInterface interface {
	ListProvinces(ctx context.Context, identity *model.Identity) ([]*model.Province, error)
	ListCities(ctx context.Context, identity *model.Identity, provinceID int) ([]*model.City, error)
	ListCategories(ctx context.Context, identity *model.Identity, isActive *bool) ([]*model.Category, error)
}

// ReferenceHandler は州、市、カテゴリの一覧を返す。
type ReferenceHandler struct {
	service ReferenceServiceInterface
}

// NewReferenceHandler はReferenceHandlerを生成する。
func NewReferenceHandler(service ReferenceServiceInterface) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// ListProvinces GET /api/provinces
func (h *ReferenceHandler) ListProvinces(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProvinces(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	resp := make([]provinceResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, toProvinceResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCities GET /api/provinces/{id}/cities
func (h *ReferenceHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	provinceID, err := pathInt(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	list, err := h.service.ListCities(r.Context(), middleware.IdentityFromContext(r.Context()), provinceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	resp := make([]cityResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, toCityResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCategories GET /api/categories?is_active=
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var isActive *bool
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			handleServiceError(w, r, model.NewValidationError("is_active must be true or false"))
			return
		}
		isActive = &b
	}

	list, err := h.service.ListCategories(r.Context(), middleware.IdentityFromContext(r.Context()), isActive)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	resp := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}
