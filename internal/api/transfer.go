package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/domain"
)

// Export handles GET /export. The document is served as a download named
// after its export date.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc := h.engine.Export(r.Context())
	name := fmt.Sprintf("science-progress-%s.json", doc.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// Import handles POST /import?confirm=true. The body is an export
// document; it replaces all local data, so confirm must be true.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	confirm := false
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		var err error
		confirm, err = strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("%w: confirm must be a boolean", domain.ErrValidation))
			return
		}
	}

	data, err := shared.ReadBody(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.engine.Import(r.Context(), data, confirm); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log(r).Info("progress imported", slog.Int("bytes", len(data)))
	w.WriteHeader(http.StatusNoContent)
}
