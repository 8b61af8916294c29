package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pitchside/pitchside/pkg/types"
)

// SessionRepository persists session identity snapshots, one row per session
// key. The snapshot is stored as a single JSON value and always replaced
// whole.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Set upserts the session snapshot for a key.
func (r *SessionRepository) Set(ctx context.Context, key string, identity *types.SessionIdentity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode session identity: %w", err)
	}

	query := `
		INSERT INTO sessions (session_key, identity, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_key)
		DO UPDATE SET identity = EXCLUDED.identity, updated_at = NOW()
	`

	if _, err := r.store.pool.Exec(ctx, query, key, payload); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the session snapshot for a key, nil when none exists.
func (r *SessionRepository) Get(ctx context.Context, key string) (*types.SessionIdentity, error) {
	query := `
		SELECT identity
		FROM sessions
		WHERE session_key = $1
	`

	var payload []byte
	err := r.store.pool.QueryRow(ctx, query, key).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var identity types.SessionIdentity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode session identity: %w", err)
	}
	return &identity, nil
}

// Delete removes the session snapshot for a key. Deleting a missing key is
// not an error.
func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM sessions WHERE session_key = $1`

	if _, err := r.store.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
