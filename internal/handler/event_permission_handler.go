package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventgate/internal/middleware"
	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/resolver"
)

// EventPermissionServiceInterface は申請ハンドラーが必要とするサービスインターフェース。
type EventPermissionServiceInterface interface {
	List(ctx context.Context, identity *model.Identity, in *model.PaginationInput, ownerFilter string) (*model.EventPermissionList, error)
	Get(ctx context.Context, identity *model.Identity, id, ownerFilter string) (*model.EventPermission, error)
	ListForVerification(ctx context.Context, identity *model.Identity, in *model.PaginationInput) (*model.EventPermissionList, error)
	Create(ctx context.Context, identity *model.Identity, in model.EventPermissionInput) (*model.EventPermission, error)
	Update(ctx context.Context, identity *model.Identity, id string, in model.EventPermissionInput) (*model.EventPermission, error)
	Delete(ctx context.Context, identity *model.Identity, id string) error
	Verify(ctx context.Context, identity *model.Identity, id string) (*model.EventPermission, error)
}

// RelationResolver は申請に関連する参照データと登壇者を解決する。
type RelationResolver interface {
	Resolve(ctx context.Context, ep *model.EventPermission) (*resolver.Resolved, error)
	ResolveAll(ctx context.Context, eps []*model.EventPermission) ([]*resolver.Resolved, error)
}

// EventPermissionHandler はイベント許可申請のHTTPハンドラー。
type EventPermissionHandler struct {
	service  EventPermissionServiceInterface
	resolver RelationResolver
}

// NewEventPermissionHandler はEventPermissionHandlerを生成する。
func NewEventPermissionHandler(service EventPermissionServiceInterface, resolver RelationResolver) *EventPermissionHandler {
	return &EventPermissionHandler{service: service, resolver: resolver}
}

// List は申請一覧を返す。
// GET /api/event-permissions?take=&skip=&search=&sort=&sortDirection=&user_id=
func (h *EventPermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	in, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	list, err := h.service.List(r.Context(), middleware.IdentityFromContext(r.Context()), in, r.URL.Query().Get("user_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeList(w, r, list)
}

// ListForVerification は未検証の申請一覧を返す。
// GET /api/event-permissions/verification
func (h *EventPermissionHandler) ListForVerification(w http.ResponseWriter, r *http.Request) {
	in, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	list, err := h.service.ListForVerification(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeList(w, r, list)
}

// Get は申請を1件返す。
// GET /api/event-permissions/{id}?user_id=
func (h *EventPermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ep, err := h.service.Get(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), r.URL.Query().Get("user_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeOne(w, r, http.StatusOK, ep)
}

// Create は申請を作成する。
// POST /api/event-permissions
func (h *EventPermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.EventPermissionInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	ep, err := h.service.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeOne(w, r, http.StatusCreated, ep)
}

// Update は申請を更新する。
// PUT /api/event-permissions/{id}
func (h *EventPermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.EventPermissionInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	ep, err := h.service.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeOne(w, r, http.StatusOK, ep)
}

// Delete は申請を削除する。
// DELETE /api/event-permissions/{id}
func (h *EventPermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify は申請を検証済みにする。
// POST /api/event-permissions/{id}/verify
func (h *EventPermissionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ep, err := h.service.Verify(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.writeOne(w, r, http.StatusOK, ep)
}

func (h *EventPermissionHandler) writeOne(w http.ResponseWriter, r *http.Request, status int, ep *model.EventPermission) {
	resolved, err := h.resolver.Resolve(r.Context(), ep)
	if err != nil {
		handleServiceError(w, r, model.NewInternalError(err))
		return
	}
	writeJSON(w, status, toEventPermissionResponse(resolved))
}

func (h *EventPermissionHandler) writeList(w http.ResponseWriter, r *http.Request, list *model.EventPermissionList) {
	resolved, err := h.resolver.ResolveAll(r.Context(), list.Data)
	if err != nil {
		handleServiceError(w, r, model.NewInternalError(err))
		return
	}

	resp := eventPermissionListResponse{
		Data:          make([]eventPermissionResponse, 0, len(resolved)),
		Total:         list.Total,
		TotalFiltered: list.TotalFiltered,
	}
	for _, res := range resolved {
		resp.Data = append(resp.Data, toEventPermissionResponse(res))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parsePagination はクエリパラメータからページネーション指定を読み取る。
// 指定がないパラメータはnilのままにし、デフォルト値はサービス層で補完する。
func parsePagination(r *http.Request) (*model.PaginationInput, error) {
	q := r.URL.Query()
	in := &model.PaginationInput{}

	var err error
	if in.Take, err = optionalInt(q.Get("take"), "take"); err != nil {
		return nil, err
	}
	if in.Skip, err = optionalInt(q.Get("skip"), "skip"); err != nil {
		return nil, err
	}
	if q.Has("search") {
		s := q.Get("search")
		in.Search = &s
	}
	if s := q.Get("sort"); s != "" {
		in.Sort = &s
	}
	if s := q.Get("sortDirection"); s != "" {
		in.SortDirection = &s
	}
	return in, nil
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.NewValidationError(name + " must be an integer")
	}
	return &n, nil
}

// pathInt はURLパラメータを正の整数として読み取る。
func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 1 {
		return 0, model.NewValidationError(name + " must be a positive integer")
	}
	return n, nil
}
