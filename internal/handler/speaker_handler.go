package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/eventgate/internal/middleware"
	"github.com/hitoshi/eventgate/internal/model"
)

// SpeakerServiceInterface は登壇者ハンドラーが必要とするサービスインターフェース。
type SpeakerServiceInterface interface {
	ListSpeakers(ctx context.Context, identity *model.Identity, eventID string) ([]*model.Speaker, error)
	CreateSpeaker(ctx context.Context, identity *model.Identity, eventID string, in model.SpeakerInput) (*model.Speaker, error)
	UpdateSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int, in model.SpeakerInput) (*model.Speaker, error)
	DeleteSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int) error
}

// SpeakerHandler は申請に属する登壇者のHTTPハンドラー。
type SpeakerHandler struct {
	service SpeakerServiceInterface
}

// NewSpeakerHandler はSpeakerHandlerを生成する。
func NewSpeakerHandler(service SpeakerServiceInterface) *SpeakerHandler {
	return &SpeakerHandler{service: service}
}

// List GET /api/event-permissions/{id}/speakers
func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.service.ListSpeakers(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpeakerResponses(speakers))
}

// Create POST /api/event-permissions/{id}/speakers
func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.SpeakerInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	s, err := h.service.CreateSpeaker(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSpeakerResponse(s))
}

// Update PUT /api/event-permissions/{id}/speakers/{speakerID}
func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	speakerID, err := pathInt(r, "speakerID")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var in model.SpeakerInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	s, err := h.service.UpdateSpeaker(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), speakerID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSpeakerResponse(s))
}

// Delete DELETE /api/event-permissions/{id}/speakers/{speakerID}
func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	speakerID, err := pathInt(r, "speakerID")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.DeleteSpeaker(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), speakerID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
