package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/pitchside/pitchside/internal/logger"
	"github.com/pitchside/pitchside/internal/storage"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// IdempotencyMiddleware handles idempotency for API requests
// Stores first response for 24 hours
type IdempotencyMiddleware struct {
	repo idempotencyRepo
}

type idempotencyRepo interface {
	Get(ctx context.Context, key, method, url string) (*storage.IdempotencyRecord, error)
	Store(ctx context.Context, record *storage.IdempotencyRecord) error
}

// NewIdempotencyMiddleware creates a new idempotency middleware
func NewIdempotencyMiddleware(repo idempotencyRepo) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{
		repo: repo,
	}
}

// Handle wraps an HTTP handler with idempotency checking
func (m *IdempotencyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only mutation requests are replay-protected
		if r.Method != http.MethodPost && r.Method != http.MethodPatch && r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		idempotencyKey := r.Header.Get("x-idempotency-key")
		if idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if len(idempotencyKey) > 256 {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeBadRequest,
				"Idempotency key too long",
				"Maximum length is 256 characters",
				http.StatusBadRequest,
			))
			return
		}

		// Scope the key to the authenticated user so one user cannot replay
		// another user's cached response.
		scopedKey := idempotencyKey
		if userSub, ok := GetUserSub(r.Context()); ok && userSub != "" {
			scopedKey = userSub + ":" + idempotencyKey
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeBadRequest,
				"Failed to read request body",
				err.Error(),
				http.StatusBadRequest,
			))
			return
		}

		// Restore body for next handler
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		bodyHash := computeBodyHash(bodyBytes)

		record, err := m.repo.Get(r.Context(), scopedKey, r.Method, r.URL.Path)
		if err == nil {
			if record.BodyHash == bodyHash {
				// Same request - return cached response
				m.returnCachedResponse(w, record)
				return
			}

			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeIdempotencyKeyReused,
				"Idempotency key reused with different body",
				"The same idempotency key was used with a different request body. Use a new key for different requests.",
				http.StatusBadRequest,
			))
			return
		}

		// Key unseen - capture and store response
		recorder := NewResponseRecorder(w)
		next.ServeHTTP(recorder, r)

		storeErr := m.repo.Store(r.Context(), &storage.IdempotencyRecord{
			Key:        scopedKey,
			Method:     r.Method,
			URL:        r.URL.Path,
			BodyHash:   bodyHash,
			StatusCode: recorder.StatusCode,
			Headers:    recorder.Headers,
			Body:       recorder.Body.Bytes(),
			ExpiresAt:  time.Now().Add(24 * time.Hour),
		})
		if storeErr != nil {
			// Response already sent; log and move on
			logger.Error(r.Context(), "failed to store idempotency record",
				"key", scopedKey,
				"method", r.Method,
				"url", r.URL.Path,
				"error", storeErr,
			)
		}
	})
}

// returnCachedResponse writes a cached response to the client
func (m *IdempotencyMiddleware) returnCachedResponse(
	w http.ResponseWriter,
	record *storage.IdempotencyRecord,
) {
	// Preserve the current request ID (set by the RequestID middleware) so we
	// don't replay a stale value from the cached response.
	currentRequestID := w.Header().Get("X-Request-ID")

	for key, values := range record.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	w.Header().Del("X-Request-ID")
	if currentRequestID != "" {
		w.Header().Set("X-Request-ID", currentRequestID)
	}

	w.Header().Set("X-Idempotency-Replay", "true")
	w.WriteHeader(record.StatusCode)
	_, _ = w.Write(record.Body)
}

// computeBodyHash creates a SHA-256 hash of the request body
func computeBodyHash(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
