package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// writeError writes an AppError as a JSON error response
func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]*apperrors.AppError{"error": err})
}
