package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/sciencepath/internal/api"
	apiMiddleware "github.com/phrazzld/sciencepath/internal/api/middleware"
	"github.com/phrazzld/sciencepath/internal/api/shared"
)

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status            string `json:"status"`
	CurriculumVersion string `json:"curriculumVersion"`
	Topics            int    `json:"topics"`
}

// setupRouter builds the application router with its middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	r.Mount("/api", api.NewHandler(app.engine, app.logger).Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, healthResponse{
			Status:            "ok",
			CurriculumVersion: app.curriculum.Version(),
			Topics:            len(app.curriculum.Topics()),
		})
	})

	return r
}
