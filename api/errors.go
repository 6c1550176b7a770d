package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vocab-match-server/deckerrors"
)

var errMissingFile = errors.New(`multipart field "file" is required`)

// apiError is the JSON error body: {"error":{"code":...,"message":...}}.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps domain errors to an HTTP status and a stable code.
func classify(err error) apiError {
	switch {
	case errors.Is(err, deckerrors.ErrDeckNotFound):
		return apiError{http.StatusNotFound, "deck_not_found", err.Error()}
	case errors.Is(err, deckerrors.ErrUnsupportedFormat):
		return apiError{http.StatusUnsupportedMediaType, "unsupported_format", err.Error()}
	case errors.Is(err, deckerrors.ErrNoPairs):
		return apiError{http.StatusUnprocessableEntity, "no_pairs", err.Error()}
	case errors.Is(err, deckerrors.ErrUploadTooLarge):
		return apiError{http.StatusRequestEntityTooLarge, "upload_too_large", err.Error()}
	case errors.Is(err, errMissingFile):
		return apiError{http.StatusBadRequest, "bad_request", err.Error()}
	default:
		return apiError{http.StatusInternalServerError, "internal", "internal server error"}
	}
}

// handleError centralizes error responses. Server errors are logged with the underlying cause.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	if apiErr.Status >= 500 {
		slog.Error("server error", "tag", "api", "path", r.URL.Path, "err", err)
	} else {
		slog.Warn("client error", "tag", "api", "path", r.URL.Path, "status", apiErr.Status, "err", err)
	}
	writeJSON(w, apiErr.Status, map[string]apiError{"error": apiErr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "tag", "api", "err", err)
	}
}
