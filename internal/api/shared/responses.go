package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
)

// ContentType is the media type of every API response.
const ContentType = "application/vnd.api+json"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Name    string              `json:"name,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

// ResponseOption customizes error logging.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel logs a 4xx response at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// RespondWithJSON encodes data as the response body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to encode JSON response", "error", redact.Error(err))
	}
}

// RespondWithBody writes an already encoded JSON body.
func RespondWithBody(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Debug("failed to write response body", "error", redact.Error(err))
	}
}

// RespondWithError writes a plain error body.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, ErrorResponse{Error: message}, nil)
}

// RespondWithErrorAndLog writes body and logs the redacted cause. 5xx
// responses log at ERROR, 429 and elevated 4xx at WARN, the rest at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	body ErrorResponse,
	err error,
	opts ...ResponseOption,
) {
	body.TraceID = GetTraceID(r.Context())

	attrs := []slog.Attr{
		slog.String("trace_id", body.TraceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", body.Error),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	level := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status == http.StatusTooManyRequests:
		level = slog.LevelWarn
	case o.elevateLogLevel && status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).
		LogAttrs(r.Context(), level, "API error response", attrs...)

	RespondWithJSON(w, r, status, body)
}
