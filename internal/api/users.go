package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/domain"
)

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required"`
}

// UserListResponse is the body of GET /users.
type UserListResponse struct {
	Users     []domain.User `json:"users"`
	CurrentID string        `json:"currentId,omitempty"`
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	resp := UserListResponse{Users: h.engine.Users()}
	if current, ok := h.engine.CurrentUser(); ok {
		resp.CurrentID = current.ID
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateUser handles POST /users. The new learner becomes active.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.engine.AddUser(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log(r).Info("user created", slog.String("user_id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// CurrentUser handles GET /users/current.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.engine.CurrentUser()
	if !ok {
		h.respondError(w, r, domain.ErrNoActiveUser)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// SelectUser handles POST /users/{id}/select.
func (h *Handler) SelectUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.SelectUser(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, _ := h.engine.CurrentUser()
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.log(r).Info("user deleted", slog.String("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /users/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.engine.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
