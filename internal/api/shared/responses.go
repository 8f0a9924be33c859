package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/redact"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"-"`
	TraceID string `json:"trace_id,omitempty"`
	// Redirect names the view the client should fall back to, if any.
	Redirect string `json:"redirect,omitempty"`
}

// ResponseOption customises an error reply.
type ResponseOption func(*ErrorResponse, *slog.Level)

// WithRedirect adds a fallback view to the error body.
func WithRedirect(path string) ResponseOption {
	return func(resp *ErrorResponse, _ *slog.Level) {
		resp.Redirect = path
	}
}

// WithElevatedLogLevel logs a 4xx reply at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(resp *ErrorResponse, level *slog.Level) {
		if resp.Code < http.StatusInternalServerError && *level < slog.LevelWarn {
			*level = slog.LevelWarn
		}
	}
}

// RespondWithJSON writes data as JSON with the given status.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes an error body carrying the request trace ID.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string, opts ...ResponseOption) {
	RespondWithErrorAndLog(w, r, status, message, nil, opts...)
}

// RespondWithErrorAndLog writes message to the client and logs err. Only
// message leaves the process; err is logged after redaction.
//
// 5xx replies log at ERROR, 429 at WARN, everything else at DEBUG unless
// an option raises it.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	err error,
	opts ...ResponseOption,
) {
	traceID := GetTraceID(r.Context())
	resp := ErrorResponse{Error: message, Code: status, TraceID: traceID}

	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	}
	for _, opt := range opts {
		opt(&resp, &level)
	}

	attrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", message),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	logger.FromContext(r.Context()).LogAttrs(r.Context(), level, "API error response", attrs...)

	RespondWithJSON(w, r, status, resp)
}
