package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/storage"
)

// memoryIdempotencyRepo is an in-memory idempotencyRepo for tests.
type memoryIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*storage.IdempotencyRecord
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{records: make(map[string]*storage.IdempotencyRecord)}
}

func (r *memoryIdempotencyRepo) Get(ctx context.Context, key, method, url string) (*storage.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key+"|"+method+"|"+url]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return rec, nil
}

func (r *memoryIdempotencyRepo) Store(ctx context.Context, rec *storage.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := rec.Key + "|" + rec.Method + "|" + rec.URL
	if _, exists := r.records[k]; !exists {
		r.records[k] = rec
	}
	return nil
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"signature":"abc"}`))
	})
}

func postWithKey(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/send", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set("x-idempotency-key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplayReturnsCachedResponse(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	first := postWithKey(handler, "key-1", `{"transaction":"abc"}`)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, calls)
	require.Empty(t, first.Header().Get("X-Idempotency-Replay"))

	second := postWithKey(handler, "key-1", `{"transaction":"abc"}`)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, 1, calls, "replay must not re-run the handler")
	require.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotency_KeyReuseWithDifferentBodyRejected(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	postWithKey(handler, "key-1", `{"transaction":"abc"}`)

	rec := postWithKey(handler, "key-1", `{"transaction":"different"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "idempotency_key_reused")
	require.Equal(t, 1, calls)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	postWithKey(handler, "", `{"transaction":"abc"}`)
	postWithKey(handler, "", `{"transaction":"abc"}`)
	require.Equal(t, 2, calls)
}

func TestIdempotency_GetRequestsNotProtected(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
		req.Header.Set("x-idempotency-key", "key-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 2, calls)
}

func TestIdempotency_KeyScopedToUser(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	asUser := func(sub, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/transactions/send", bytes.NewBufferString(body))
		req.Header.Set("x-idempotency-key", "shared-key")
		req = req.WithContext(context.WithValue(req.Context(), UserSubKey, sub))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	asUser("user-1", `{"transaction":"abc"}`)

	// Same key and body from a different user is a fresh request, not a
	// replay of user-1's cached response.
	rec := asUser("user-2", `{"transaction":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Idempotency-Replay"))
	require.Equal(t, 2, calls)
}

func TestIdempotency_OverlongKeyRejected(t *testing.T) {
	calls := 0
	mw := NewIdempotencyMiddleware(newMemoryIdempotencyRepo())
	handler := mw.Handle(countingHandler(&calls))

	long := make([]byte, 257)
	for i := range long {
		long[i] = 'a'
	}

	rec := postWithKey(handler, string(long), `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, calls)
}
