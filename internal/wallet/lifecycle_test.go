package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/identity"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

type fakeProvider struct {
	mu      sync.Mutex
	ready   bool
	calls   int
	err     error
	account *identity.Account

	// block, when non-nil, holds CreateWallet open until closed.
	block   chan struct{}
	entered chan struct{}
}

func (p *fakeProvider) Ready() bool { return p.ready }

func (p *fakeProvider) CreateWallet(ctx context.Context, sub, chain string) (*identity.Account, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.entered != nil {
		close(p.entered)
		p.entered = nil
	}
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.account, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func walletlessUser() *identity.User {
	return &identity.User{Sub: "user-1"}
}

func TestEnsureWallet_CreatesWhenAbsent(t *testing.T) {
	provider := &fakeProvider{
		ready:   true,
		account: &identity.Account{Type: identity.AccountTypeWallet, Chain: types.ChainSolana, Address: embeddedAddr},
	}
	lc := NewLifecycle(provider)

	account, err := lc.EnsureWallet(context.Background(), true, walletlessUser())

	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, embeddedAddr, account.Address)
	require.Equal(t, 1, provider.callCount())
	require.False(t, lc.InFlight("user-1"))
	require.Empty(t, lc.LastError("user-1"))
}

func TestEnsureWallet_ShortCircuitsWhenWalletExists(t *testing.T) {
	provider := &fakeProvider{ready: true}
	lc := NewLifecycle(provider)

	user := &identity.User{
		Sub:    "user-1",
		Wallet: &identity.Account{Type: identity.AccountTypeWallet, Chain: types.ChainSolana, Address: embeddedAddr},
	}

	account, err := lc.EnsureWallet(context.Background(), true, user)

	require.NoError(t, err)
	require.Nil(t, account)
	require.Equal(t, 0, provider.callCount())
}

func TestEnsureWallet_ShortCircuitsOnInvalidAddress(t *testing.T) {
	// Creating a second wallet would not fix a malformed linked account.
	provider := &fakeProvider{ready: true}
	lc := NewLifecycle(provider)

	user := &identity.User{
		Sub: "user-1",
		LinkedAccounts: []identity.Account{
			{Type: identity.AccountTypeWallet, Chain: types.ChainSolana, Address: "bogus!"},
		},
	}

	account, err := lc.EnsureWallet(context.Background(), true, user)

	require.NoError(t, err)
	require.Nil(t, account)
	require.Equal(t, 0, provider.callCount())
}

func TestEnsureWallet_RejectsConcurrentCreation(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{})
	provider := &fakeProvider{
		ready:   true,
		account: &identity.Account{Type: identity.AccountTypeWallet, Chain: types.ChainSolana, Address: embeddedAddr},
		block:   block,
		entered: entered,
	}
	lc := NewLifecycle(provider)

	done := make(chan error, 1)
	go func() {
		_, err := lc.EnsureWallet(context.Background(), true, walletlessUser())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first creation never started")
	}

	require.True(t, lc.InFlight("user-1"))

	// Second caller while the first is still creating is rejected, no
	// duplicate provider call.
	_, err := lc.EnsureWallet(context.Background(), true, walletlessUser())
	require.ErrorIs(t, err, apperrors.ErrCreationInFlight)
	require.Equal(t, 1, provider.callCount())

	close(block)
	require.NoError(t, <-done)
	require.False(t, lc.InFlight("user-1"))
}

func TestEnsureWallet_FailureClearsFlagAndRecordsError(t *testing.T) {
	provider := &fakeProvider{ready: true, err: errors.New("provider exploded")}
	lc := NewLifecycle(provider)

	_, err := lc.EnsureWallet(context.Background(), true, walletlessUser())

	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.ErrCodeWalletCreationFailed, appErr.Code)

	// A failed attempt never wedges the guard; the next call may retry.
	require.False(t, lc.InFlight("user-1"))
	require.Equal(t, "provider exploded", lc.LastError("user-1"))

	provider.err = nil
	provider.account = &identity.Account{Type: identity.AccountTypeWallet, Chain: types.ChainSolana, Address: embeddedAddr}

	account, err := lc.EnsureWallet(context.Background(), true, walletlessUser())
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Empty(t, lc.LastError("user-1"))
}

func TestEnsureWallet_Preconditions(t *testing.T) {
	t.Run("provider_not_ready", func(t *testing.T) {
		lc := NewLifecycle(&fakeProvider{ready: false})
		_, err := lc.EnsureWallet(context.Background(), true, walletlessUser())
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeNotReady, appErr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		lc := NewLifecycle(&fakeProvider{ready: true})
		_, err := lc.EnsureWallet(context.Background(), false, walletlessUser())
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("nil_user", func(t *testing.T) {
		lc := NewLifecycle(&fakeProvider{ready: true})
		_, err := lc.EnsureWallet(context.Background(), true, nil)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}
