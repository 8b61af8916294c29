// Package types contains the domain types shared between the storage,
// service, and API layers.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ChainSolana is the only chain this service validates addresses and submits
// transactions against.
const ChainSolana = "solana"

// WalletSource identifies which provider account a canonical wallet identity
// was derived from.
type WalletSource string

const (
	// WalletSourceLinked is an external wallet the user explicitly connected.
	WalletSourceLinked WalletSource = "linked"
	// WalletSourceEmbedded is a custodial wallet auto-provisioned by the
	// identity provider.
	WalletSourceEmbedded WalletSource = "embedded"
)

// User represents a registered user keyed by the identity provider subject
type User struct {
	ID          uuid.UUID `json:"id"`
	ExternalSub string    `json:"external_sub"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionIdentity is the denormalized projection of the provider user record
// plus the resolved canonical wallet address. It is a point-in-time snapshot:
// it is overwritten whole on every login-state change and cleared on logout,
// never patched field by field.
type SessionIdentity struct {
	Email        string `json:"email"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Address      string `json:"address"`
}

// Transaction statuses
const (
	TxStatusSubmitted   = "submitted"
	TxStatusConfirmed   = "confirmed"
	TxStatusFinalized   = "finalized"
	TxStatusFailed      = "failed"
	TxStatusUnconfirmed = "unconfirmed"
)

// TransactionRecord is the audit trail for a single submission attempt.
// Submission is the one externally irreversible operation in the system, so
// every attempt is recorded, including ones whose outcome is unknown.
type TransactionRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Signature string    `json:"signature"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
