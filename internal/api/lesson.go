package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/session"
)

// OpenLessonRequest is the body of POST /lesson. A lesson number of 0 or
// an omitted one opens the topic's next lesson.
type OpenLessonRequest struct {
	TopicID      string `json:"topicId"      validate:"required"`
	LessonNumber int    `json:"lessonNumber" validate:"min=0,max=3"`
}

// AnswerRequest is the body of PUT /lesson/cards/{index}/answer.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"max=500"`
}

// ContinueResponse is the body of POST /lesson/cards/{index}/continue.
type ContinueResponse struct {
	Outcome session.Outcome  `json:"outcome"`
	Lesson  session.Snapshot `json:"lesson"`
}

// OpenLesson handles POST /lesson.
func (h *Handler) OpenLesson(w http.ResponseWriter, r *http.Request) {
	var req OpenLessonRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.respondError(w, r, err)
		return
	}

	snap, err := h.engine.OpenLesson(r.Context(), req.TopicID, req.LessonNumber)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log(r).Debug("lesson opened via api",
		slog.String("lesson_id", snap.LessonID),
		slog.Int("index", snap.Index))
	shared.RespondWithJSON(w, r, http.StatusCreated, snap)
}

// GetLesson handles GET /lesson.
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Session()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// CloseLesson handles DELETE /lesson. Closing with no lesson open succeeds.
func (h *Handler) CloseLesson(w http.ResponseWriter, r *http.Request) {
	h.engine.CloseLesson()
	w.WriteHeader(http.StatusNoContent)
}

// SetAnswer handles PUT /lesson/cards/{index}/answer.
func (h *Handler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req AnswerRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.respondError(w, r, err)
		return
	}

	snap, err := h.engine.SetAnswer(i, req.Answer)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// Continue handles POST /lesson/cards/{index}/continue.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	outcome, snap, err := h.engine.Continue(r.Context(), i)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ContinueResponse{Outcome: outcome, Lesson: snap})
}

// Previous handles POST /lesson/previous.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Previous(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// JumpTo handles POST /lesson/cards/{index}/jump.
func (h *Handler) JumpTo(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	snap, err := h.engine.JumpTo(r.Context(), i)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}
