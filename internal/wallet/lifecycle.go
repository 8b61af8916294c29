package wallet

import (
	"context"
	"net/http"
	"sync"

	"github.com/pitchside/pitchside/internal/identity"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

// Provider is the identity provider surface the lifecycle manager needs.
type Provider interface {
	Ready() bool
	CreateWallet(ctx context.Context, sub, chain string) (*identity.Account, error)
}

// Lifecycle guarantees at most one Solana wallet creation call is outstanding
// per user at any time. Creation is never retried automatically; a failed
// attempt is recorded and the next explicit call may try again.
type Lifecycle struct {
	provider Provider

	mu       sync.Mutex
	inFlight map[string]bool
	lastErr  map[string]string
}

// NewLifecycle creates a wallet lifecycle manager.
func NewLifecycle(provider Provider) *Lifecycle {
	return &Lifecycle{
		provider: provider,
		inFlight: make(map[string]bool),
		lastErr:  make(map[string]string),
	}
}

// EnsureWallet idempotently guarantees a Solana wallet exists for the user.
//
// Returns the newly created account when one was provisioned, nil when a
// wallet already existed. A second caller while creation is in flight is
// rejected with creation_in_flight rather than issuing a duplicate provider
// call.
func (l *Lifecycle) EnsureWallet(ctx context.Context, authenticated bool, user *identity.User) (*identity.Account, error) {
	if l.provider == nil || !l.provider.Ready() {
		return nil, apperrors.NotReady("identity provider not ready")
	}
	if !authenticated || user == nil {
		return nil, apperrors.ErrUnauthorized
	}

	// Already resolved means nothing to do. A recorded invalid-address error
	// also short-circuits: creating a second wallet would not fix a malformed
	// linked account, and the error is surfaced through resolution state.
	id := Resolve(authenticated, user)
	if id.HasWallet() || id.Err != "" {
		return nil, nil
	}

	l.mu.Lock()
	if l.inFlight[user.Sub] {
		l.mu.Unlock()
		return nil, apperrors.ErrCreationInFlight
	}
	l.inFlight[user.Sub] = true
	l.mu.Unlock()

	// Cleared on every path so a failed creation never wedges the flag.
	defer func() {
		l.mu.Lock()
		delete(l.inFlight, user.Sub)
		l.mu.Unlock()
	}()

	account, err := l.provider.CreateWallet(ctx, user.Sub, types.ChainSolana)
	if err != nil {
		l.recordError(user.Sub, err.Error())
		if appErr, ok := apperrors.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.NewWithDetail(
			apperrors.ErrCodeWalletCreationFailed,
			"Failed to create Solana wallet",
			err.Error(),
			http.StatusBadGateway,
		)
	}

	l.recordError(user.Sub, "")
	return account, nil
}

// InFlight reports whether a creation call is currently outstanding for the
// user.
func (l *Lifecycle) InFlight(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[sub]
}

// LastError returns the recorded error from the most recent creation attempt,
// empty when the last attempt succeeded or none was made.
func (l *Lifecycle) LastError(sub string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr[sub]
}

func (l *Lifecycle) recordError(sub, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg == "" {
		delete(l.lastErr, sub)
		return
	}
	l.lastErr[sub] = msg
}
