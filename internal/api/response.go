package api

import (
	"encoding/json"
	"net/http"

	"github.com/pitchside/pitchside/internal/logger"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an error to a JSON error response. Unknown errors are
// logged and masked as internal_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperrors.IsAppError(err); ok {
		writeJSON(w, appErr.StatusCode, map[string]*apperrors.AppError{"error": appErr})
		return
	}

	logger.Error(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
	writeJSON(w, apperrors.ErrInternalError.StatusCode, map[string]*apperrors.AppError{"error": apperrors.ErrInternalError})
}

// methodNotAllowed writes a 405 response
func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]*apperrors.AppError{
		"error": apperrors.New(apperrors.ErrCodeBadRequest, "Method not allowed", http.StatusMethodNotAllowed),
	})
}
