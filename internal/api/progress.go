package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/domain"
)

// MarkLessonRequest is the body of POST /progress/lessons.
type MarkLessonRequest struct {
	TopicID      string `json:"topicId"      validate:"required"`
	LessonNumber int    `json:"lessonNumber" validate:"required,min=1,max=3"`
}

// ListTopics handles GET /topics: the active learner's available topics
// in display order.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.engine.CurrentUser(); !ok {
		h.respondError(w, r, domain.ErrNoActiveUser)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.engine.AvailableTopics())
}

// GetTopic handles GET /topics/{id}.
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Topic(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// GetProgress handles GET /progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.engine.Progress()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ledger)
}

// ResetProgress handles DELETE /progress.
func (h *Handler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetProgress(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkLessonComplete handles POST /progress/lessons.
func (h *Handler) MarkLessonComplete(w http.ResponseWriter, r *http.Request) {
	var req MarkLessonRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.engine.MarkLessonComplete(r.Context(), req.TopicID, req.LessonNumber); err != nil {
		h.respondError(w, r, err)
		return
	}

	ledger, err := h.engine.Progress()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ledger)
}
