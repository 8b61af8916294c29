package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/identity"
	"github.com/pitchside/pitchside/internal/session"
	"github.com/pitchside/pitchside/internal/wallet"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

// memorySessionRepo is an in-memory session.Repository for tests.
type memorySessionRepo struct {
	data map[string]*types.SessionIdentity
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{data: make(map[string]*types.SessionIdentity)}
}

func (r *memorySessionRepo) Get(ctx context.Context, key string) (*types.SessionIdentity, error) {
	return r.data[key], nil
}

func (r *memorySessionRepo) Set(ctx context.Context, key string, identity *types.SessionIdentity) error {
	r.data[key] = identity
	return nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, key string) error {
	delete(r.data, key)
	return nil
}

func freshAuthMessage() string {
	return fmt.Sprintf("%s%d", walletAuthPrefix, time.Now().UnixMilli())
}

func TestWalletLogin(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	address := solana.PublicKeyFromBytes(pub).String()
	repo := newMemorySessionRepo()
	svc := NewAuthService(nil, nil, nil, session.NewStore(repo))

	t.Run("valid_signature", func(t *testing.T) {
		message := freshAuthMessage()
		sig := ed25519.Sign(priv, []byte(message))

		sess, err := svc.WalletLogin(context.Background(), address, message, base58.Encode(sig))
		require.NoError(t, err)

		require.Equal(t, address, sess.ID)
		require.Equal(t, address, sess.Address)
		require.Empty(t, sess.Email)

		// Session is keyed by the wallet address.
		stored, err := svc.Session(context.Background(), address)
		require.NoError(t, err)
		require.Equal(t, address, stored.Address)
	})

	t.Run("invalid_address", func(t *testing.T) {
		message := freshAuthMessage()
		sig := ed25519.Sign(priv, []byte(message))

		_, err := svc.WalletLogin(context.Background(), "not-an-address", message, base58.Encode(sig))
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeInvalidAddress, appErr.Code)
		require.Equal(t, "Invalid Solana address", appErr.Message)
	})

	t.Run("wrong_key_rejected", func(t *testing.T) {
		_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		message := freshAuthMessage()
		sig := ed25519.Sign(otherPriv, []byte(message))

		_, err = svc.WalletLogin(context.Background(), address, message, base58.Encode(sig))
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeInvalidSignature, appErr.Code)
	})

	t.Run("garbage_signature_rejected", func(t *testing.T) {
		_, err := svc.WalletLogin(context.Background(), address, freshAuthMessage(), "zzz")
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeInvalidSignature, appErr.Code)
	})

	t.Run("stale_message_rejected", func(t *testing.T) {
		stale := fmt.Sprintf("%s%d", walletAuthPrefix, time.Now().Add(-walletAuthWindow-time.Minute).UnixMilli())
		sig := ed25519.Sign(priv, []byte(stale))

		_, err := svc.WalletLogin(context.Background(), address, stale, base58.Encode(sig))
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeInvalidSignature, appErr.Code)
	})
}

func TestVerifyAuthMessage(t *testing.T) {
	t.Run("fresh", func(t *testing.T) {
		require.NoError(t, verifyAuthMessage(freshAuthMessage()))
	})

	t.Run("wrong_prefix", func(t *testing.T) {
		require.Error(t, verifyAuthMessage("Please sign in: 12345"))
	})

	t.Run("missing_timestamp", func(t *testing.T) {
		require.Error(t, verifyAuthMessage(walletAuthPrefix+"not-a-number"))
	})

	t.Run("from_the_future", func(t *testing.T) {
		future := fmt.Sprintf("%s%d", walletAuthPrefix, time.Now().Add(5*time.Minute).UnixMilli())
		require.Error(t, verifyAuthMessage(future))
	})
}

func TestLogoutClearsSession(t *testing.T) {
	repo := newMemorySessionRepo()
	svc := NewAuthService(nil, nil, nil, session.NewStore(repo))

	repo.data["user-1"] = &types.SessionIdentity{ID: "user-1"}

	require.NoError(t, svc.Logout(context.Background(), "user-1"))

	sess, err := svc.Session(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestProjectSession(t *testing.T) {
	canonical := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	t.Run("resolved_wallet_wins", func(t *testing.T) {
		user := &identity.User{
			Sub:    "user-1",
			Email:  "fan@example.com",
			Name:   "Fan",
			Avatar: "https://cdn.example.com/fan.png",
			Wallet: &identity.Account{Chain: types.ChainSolana, Address: "ignored"},
		}
		id := wallet.Identity{PublicKey: &canonical, Address: canonical.String()}

		sess := projectSession(user, id)

		require.Equal(t, "fan@example.com", sess.Email)
		require.Equal(t, "user-1", sess.ID)
		require.Equal(t, "Fan", sess.Name)
		require.Equal(t, "https://cdn.example.com/fan.png", sess.ProfileImage)
		require.Equal(t, canonical.String(), sess.Address)
	})

	t.Run("raw_embedded_address_shown_when_unresolved", func(t *testing.T) {
		user := &identity.User{
			Sub:    "user-1",
			Wallet: &identity.Account{Chain: types.ChainSolana, Address: "malformed-address"},
		}

		sess := projectSession(user, wallet.Identity{Err: wallet.ErrMsgInvalidAddress})

		require.Equal(t, "malformed-address", sess.Address)
	})

	t.Run("no_wallet_at_all", func(t *testing.T) {
		sess := projectSession(&identity.User{Sub: "user-1"}, wallet.Identity{})
		require.Empty(t, sess.Address)
	})
}
