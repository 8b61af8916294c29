package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRecord caches the first response observed for an idempotency
// key so replays return the identical outcome instead of re-running the
// mutation.
type IdempotencyRecord struct {
	Key        string
	Method     string
	URL        string
	BodyHash   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	ExpiresAt  time.Time
}

// IdempotencyRepository handles idempotency key storage
type IdempotencyRepository struct {
	store *Store
}

// NewIdempotencyRepository creates a new repository
func NewIdempotencyRepository(store *Store) *IdempotencyRepository {
	return &IdempotencyRepository{store: store}
}

// Get returns the cached record for a key, or pgx.ErrNoRows when absent or
// expired.
func (r *IdempotencyRepository) Get(ctx context.Context, key, method, url string) (*IdempotencyRecord, error) {
	query := `
		SELECT idempotency_key, method, url, body_hash, status_code, headers, body, expires_at
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND method = $2 AND url = $3 AND expires_at > NOW()
	`

	var rec IdempotencyRecord
	var headersJSON []byte
	err := r.store.pool.QueryRow(ctx, query, key, method, url).Scan(
		&rec.Key,
		&rec.Method,
		&rec.URL,
		&rec.BodyHash,
		&rec.StatusCode,
		&headersJSON,
		&rec.Body,
		&rec.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &rec.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode cached headers: %w", err)
		}
	}

	return &rec, nil
}

// Store saves the response for a key. A concurrent duplicate insert keeps the
// first writer's record.
func (r *IdempotencyRepository) Store(ctx context.Context, rec *IdempotencyRecord) error {
	headersJSON, err := json.Marshal(rec.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode cached headers: %w", err)
	}

	query := `
		INSERT INTO idempotency_keys (idempotency_key, method, url, body_hash, status_code, headers, body, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (idempotency_key, method, url) DO NOTHING
	`

	if _, err := r.store.pool.Exec(ctx, query,
		rec.Key, rec.Method, rec.URL, rec.BodyHash,
		rec.StatusCode, headersJSON, rec.Body, rec.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}
