package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pitchside/pitchside/pkg/types"
)

// TransactionRepository records every submission attempt. Submission is the
// one externally irreversible operation, so rows are written before the
// outcome is known and updated as the status settles.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create records a submission attempt.
func (r *TransactionRepository) Create(ctx context.Context, userID uuid.UUID, signature, status string, errMsg *string) (*types.TransactionRecord, error) {
	query := `
		INSERT INTO transactions (user_id, signature, status, error)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, signature, status, error, created_at, updated_at
	`

	var rec types.TransactionRecord
	err := r.store.pool.QueryRow(ctx, query, userID, signature, status, errMsg).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Signature,
		&rec.Status,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	return &rec, nil
}

// UpdateStatus settles the status of a recorded submission.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error {
	query := `
		UPDATE transactions
		SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.store.pool.Exec(ctx, query, id, status, errMsg); err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

// ListByUser returns the submission history for a user, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.TransactionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, user_id, signature, status, error, created_at, updated_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.store.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var records []*types.TransactionRecord
	for rows.Next() {
		var rec types.TransactionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Signature,
			&rec.Status,
			&rec.Error,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
