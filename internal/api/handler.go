package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/service"
	"github.com/phrazzld/sciencepath/internal/session"
)

// Engine is the learner engine as the HTTP layer uses it.
type Engine interface {
	Users() []domain.User
	CurrentUser() (domain.User, bool)
	AddUser(ctx context.Context, name string) (*domain.User, error)
	SelectUser(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
	Logout(ctx context.Context)

	Progress() (domain.Ledger, error)
	ResetProgress(ctx context.Context) error
	MarkLessonComplete(ctx context.Context, topicID string, n int) error
	AvailableTopics() []service.TopicView
	Topic(topicID string) (service.TopicView, error)

	OpenLesson(ctx context.Context, topicID string, n int) (session.Snapshot, error)
	Session() (session.Snapshot, error)
	SetAnswer(i int, text string) (session.Snapshot, error)
	Continue(ctx context.Context, i int) (session.Outcome, session.Snapshot, error)
	Previous(ctx context.Context) (session.Snapshot, error)
	JumpTo(ctx context.Context, i int) (session.Snapshot, error)
	CloseLesson()

	Export(ctx context.Context) *service.ExportDocument
	Import(ctx context.Context, data []byte, confirm bool) error
}

// Handler serves every /api route.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates a Handler over engine.
func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	if engine == nil {
		// ALLOW-PANIC: constructor enforcing a required dependency
		panic("engine cannot be nil for Handler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger.With(slog.String("component", "api")),
	}
}

// Routes returns the API router. Mount it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/current", h.CurrentUser)
		r.Post("/logout", h.Logout)
		r.Post("/{id}/select", h.SelectUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/topics", func(r chi.Router) {
		r.Get("/", h.ListTopics)
		r.Get("/{id}", h.GetTopic)
	})

	r.Route("/progress", func(r chi.Router) {
		r.Get("/", h.GetProgress)
		r.Delete("/", h.ResetProgress)
		r.Post("/lessons", h.MarkLessonComplete)
	})

	r.Route("/lesson", func(r chi.Router) {
		r.Post("/", h.OpenLesson)
		r.Get("/", h.GetLesson)
		r.Delete("/", h.CloseLesson)
		r.Post("/previous", h.Previous)
		r.Put("/cards/{index}/answer", h.SetAnswer)
		r.Post("/cards/{index}/continue", h.Continue)
		r.Post("/cards/{index}/jump", h.JumpTo)
	})

	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	return r
}

// respondError replies with the status and safe message for err. Lesson
// content failures also carry a redirect to topic selection.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if errors.Is(err, domain.ErrContentLoad) {
		opts = append(opts, shared.WithRedirect(TopicsRedirect), shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	if l := logger.FromContext(r.Context()); l != slog.Default() {
		return l
	}
	return h.logger
}

// pathIndex parses a card index path parameter.
func pathIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: card index %q", domain.ErrValidation, raw)
	}
	return i, nil
}
