// Package session holds the persisted session identity snapshot.
//
// The store is an explicitly constructed object with an injected repository:
// persistence happens through a load/save boundary, not ambient global state.
// The stored value is a point-in-time projection; callers re-derive and
// overwrite it whole whenever the upstream identity changes.
package session

import (
	"context"

	"github.com/pitchside/pitchside/pkg/types"
)

// Repository is the persistence boundary for session snapshots.
type Repository interface {
	Get(ctx context.Context, key string) (*types.SessionIdentity, error)
	Set(ctx context.Context, key string, identity *types.SessionIdentity) error
	Delete(ctx context.Context, key string) error
}

// Store holds at most one SessionIdentity per session key and survives
// process restarts through its repository.
type Store struct {
	repo Repository
}

// NewStore creates a session store over the given repository.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Set overwrites the session unconditionally. A nil identity clears it.
// There is no field-level update: callers always recompute the full
// projection and set it.
func (s *Store) Set(ctx context.Context, key string, identity *types.SessionIdentity) error {
	if identity == nil {
		return s.repo.Delete(ctx, key)
	}
	return s.repo.Set(ctx, key, identity)
}

// Get returns the current session snapshot, nil when none is set.
func (s *Store) Get(ctx context.Context, key string) (*types.SessionIdentity, error) {
	return s.repo.Get(ctx, key)
}
