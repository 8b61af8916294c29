// Package app contains the application services tying the identity provider,
// the wallet reconciliation core, and storage together.
package app

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/pitchside/pitchside/internal/identity"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/session"
	"github.com/pitchside/pitchside/internal/storage"
	"github.com/pitchside/pitchside/internal/wallet"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

// walletAuthPrefix is the message external wallets sign to authenticate.
// The trailing value is a unix-millisecond timestamp.
const walletAuthPrefix = "Sign this message to authenticate with our app: "

// walletAuthWindow bounds how old a signed auth message may be.
const walletAuthWindow = 5 * time.Minute

// IdentityProvider is the provider surface the auth service needs.
type IdentityProvider interface {
	Ready() bool
	GetUser(ctx context.Context, sub string) (*identity.User, error)
}

// AuthService orchestrates login and logout: it reconciles the provider user
// record into a canonical wallet identity, provisions a wallet when an email
// login has none, and projects the result into the persisted session store.
type AuthService struct {
	provider  IdentityProvider
	lifecycle *wallet.Lifecycle
	sessions  *session.Store
	userRepo  *storage.UserRepository
}

// NewAuthService creates a new auth service
func NewAuthService(
	store *storage.Store,
	provider IdentityProvider,
	lifecycle *wallet.Lifecycle,
	sessions *session.Store,
) *AuthService {
	return &AuthService{
		provider:  provider,
		lifecycle: lifecycle,
		sessions:  sessions,
		userRepo:  storage.NewUserRepository(store),
	}
}

// Login resolves the authenticated user's wallet identity, provisions an
// embedded wallet when none exists, and overwrites the persisted session
// projection. The session value is always recomputed whole.
func (s *AuthService) Login(ctx context.Context, sub string) (*types.SessionIdentity, error) {
	if !s.provider.Ready() {
		metrics.Logins.WithLabelValues("token", "not_ready").Inc()
		return nil, apperrors.NotReady("identity provider not ready")
	}

	user, err := s.provider.GetUser(ctx, sub)
	if err != nil {
		metrics.Logins.WithLabelValues("token", "error").Inc()
		return nil, err
	}

	id := wallet.Resolve(true, user)
	recordResolution(id)

	// An email login with no wallet gets one provisioned. Creation completing
	// must be visible to this very login, so the user record is re-fetched
	// and resolution re-runs.
	if !id.HasWallet() && id.Err == "" {
		created, ensureErr := s.lifecycle.EnsureWallet(ctx, true, user)
		switch {
		case ensureErr == apperrors.ErrCreationInFlight:
			// Another login is provisioning; proceed without a wallet.
		case ensureErr != nil:
			metrics.WalletCreations.WithLabelValues("error").Inc()
		case created != nil:
			metrics.WalletCreations.WithLabelValues("created").Inc()
			if refreshed, refreshErr := s.provider.GetUser(ctx, sub); refreshErr == nil {
				user = refreshed
				id = wallet.Resolve(true, user)
				recordResolution(id)
			}
		}
	}

	if _, err := s.userRepo.GetOrCreate(ctx, sub); err != nil {
		metrics.Logins.WithLabelValues("token", "error").Inc()
		return nil, err
	}

	sess := projectSession(user, id)
	if err := s.sessions.Set(ctx, sub, sess); err != nil {
		metrics.Logins.WithLabelValues("token", "error").Inc()
		return nil, err
	}

	metrics.Logins.WithLabelValues("token", "ok").Inc()
	return sess, nil
}

// WalletLogin authenticates an external wallet by verifying an ed25519
// signature over the auth message, then creates a session keyed by the
// wallet address.
func (s *AuthService) WalletLogin(ctx context.Context, address, message, signatureB58 string) (*types.SessionIdentity, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		metrics.Logins.WithLabelValues("wallet", "invalid_address").Inc()
		return nil, apperrors.InvalidAddress("Solana")
	}

	if err := verifyAuthMessage(message); err != nil {
		metrics.Logins.WithLabelValues("wallet", "invalid_message").Inc()
		return nil, err
	}

	sig, err := base58.Decode(signatureB58)
	if err != nil || len(sig) != ed25519.SignatureSize {
		metrics.Logins.WithLabelValues("wallet", "invalid_signature").Inc()
		return nil, apperrors.InvalidSignature("signature is not valid base58 ed25519")
	}

	if !ed25519.Verify(pubkey.Bytes(), []byte(message), sig) {
		metrics.Logins.WithLabelValues("wallet", "invalid_signature").Inc()
		return nil, apperrors.InvalidSignature("signature does not match public key")
	}

	sess := &types.SessionIdentity{
		ID:      address,
		Address: address,
	}
	if err := s.sessions.Set(ctx, address, sess); err != nil {
		metrics.Logins.WithLabelValues("wallet", "error").Inc()
		return nil, err
	}

	metrics.Logins.WithLabelValues("wallet", "ok").Inc()
	return sess, nil
}

// Logout clears the persisted session. The cleared state survives reloads:
// a logged-out user stays logged out until the next explicit login.
func (s *AuthService) Logout(ctx context.Context, sub string) error {
	return s.sessions.Set(ctx, sub, nil)
}

// Session returns the current session snapshot, nil when logged out.
func (s *AuthService) Session(ctx context.Context, sub string) (*types.SessionIdentity, error) {
	return s.sessions.Get(ctx, sub)
}

// projectSession builds the denormalized session identity. Address
// preference: the canonical resolved key; otherwise the raw embedded wallet
// address (resolution may have rejected it, but the UI still shows it);
// otherwise empty.
func projectSession(user *identity.User, id wallet.Identity) *types.SessionIdentity {
	address := ""
	switch {
	case id.HasWallet():
		address = id.PublicKey.String()
	case user.Wallet != nil:
		address = user.Wallet.Address
	}

	return &types.SessionIdentity{
		Email:        user.Email,
		ID:           user.Sub,
		Name:         user.Name,
		ProfileImage: user.Avatar,
		Address:      address,
	}
}

// verifyAuthMessage checks the auth message shape and freshness.
func verifyAuthMessage(message string) error {
	if !strings.HasPrefix(message, walletAuthPrefix) {
		return apperrors.InvalidSignature("unexpected auth message format")
	}

	millis, err := strconv.ParseInt(strings.TrimPrefix(message, walletAuthPrefix), 10, 64)
	if err != nil {
		return apperrors.InvalidSignature("auth message has no timestamp")
	}

	issued := time.UnixMilli(millis)
	age := time.Since(issued)
	if age > walletAuthWindow || age < -time.Minute {
		return apperrors.InvalidSignature(fmt.Sprintf("auth message outside freshness window (age %s)", age.Truncate(time.Second)))
	}
	return nil
}

func recordResolution(id wallet.Identity) {
	switch {
	case id.Err != "":
		metrics.WalletResolutions.WithLabelValues("invalid_address").Inc()
	case id.HasWallet() && id.Source == types.WalletSourceLinked:
		metrics.WalletResolutions.WithLabelValues("linked").Inc()
	case id.HasWallet():
		metrics.WalletResolutions.WithLabelValues("embedded").Inc()
	default:
		metrics.WalletResolutions.WithLabelValues("none").Inc()
	}
}
