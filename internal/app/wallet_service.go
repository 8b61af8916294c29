package app

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/pitchside/pitchside/internal/identity"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/storage"
	"github.com/pitchside/pitchside/internal/wallet"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

// ChainReader is the read-only chain surface the wallet service needs.
type ChainReader interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
}

// WalletProvider extends the auth provider surface with wallet provisioning.
type WalletProvider interface {
	IdentityProvider
	CreateWallet(ctx context.Context, sub, chain string) (*identity.Account, error)
}

// WalletStatus is the resolved wallet state exposed to the UI.
type WalletStatus struct {
	Address    string             `json:"address,omitempty"`
	Source     types.WalletSource `json:"source,omitempty"`
	HasWallet  bool               `json:"has_wallet"`
	Creating   bool               `json:"creating"`
	Error      string             `json:"error,omitempty"`
	LastCreate string             `json:"last_create_error,omitempty"`
}

// WalletService handles wallet status, provisioning, balance reads, and
// transaction submission for authenticated users.
type WalletService struct {
	provider  WalletProvider
	lifecycle *wallet.Lifecycle
	sender    *wallet.Sender
	chain     ChainReader
	userRepo  *storage.UserRepository
	txRepo    *storage.TransactionRepository
}

// NewWalletService creates a new wallet service
func NewWalletService(
	store *storage.Store,
	provider WalletProvider,
	lifecycle *wallet.Lifecycle,
	sender *wallet.Sender,
	chain ChainReader,
) *WalletService {
	return &WalletService{
		provider:  provider,
		lifecycle: lifecycle,
		sender:    sender,
		chain:     chain,
		userRepo:  storage.NewUserRepository(store),
		txRepo:    storage.NewTransactionRepository(store),
	}
}

// Status resolves and returns the user's current wallet identity.
func (s *WalletService) Status(ctx context.Context, sub string) (*WalletStatus, error) {
	user, err := s.provider.GetUser(ctx, sub)
	if err != nil {
		return nil, err
	}

	id := wallet.Resolve(true, user)
	recordResolution(id)

	status := &WalletStatus{
		HasWallet:  id.HasWallet(),
		Creating:   s.lifecycle.InFlight(sub),
		Error:      id.Err,
		LastCreate: s.lifecycle.LastError(sub),
		Source:     id.Source,
	}
	if id.HasWallet() {
		status.Address = id.PublicKey.String()
	}
	return status, nil
}

// Ensure idempotently guarantees the user has a Solana wallet.
func (s *WalletService) Ensure(ctx context.Context, sub string) (*WalletStatus, error) {
	user, err := s.provider.GetUser(ctx, sub)
	if err != nil {
		return nil, err
	}

	created, err := s.lifecycle.EnsureWallet(ctx, true, user)
	if err != nil {
		if err != apperrors.ErrCreationInFlight {
			metrics.WalletCreations.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if created != nil {
		metrics.WalletCreations.WithLabelValues("created").Inc()
	}

	return s.Status(ctx, sub)
}

// Balance returns the lamport balance of the user's resolved wallet.
func (s *WalletService) Balance(ctx context.Context, sub string) (uint64, error) {
	user, err := s.provider.GetUser(ctx, sub)
	if err != nil {
		return 0, err
	}

	id := wallet.Resolve(true, user)
	if !id.HasWallet() {
		return 0, apperrors.WalletNotFound(sub)
	}

	return s.chain.GetBalance(ctx, *id.PublicKey)
}

// Send signs and submits a transaction with the user's resolved wallet and
// records the attempt. Failures that never produced network I/O are not
// recorded; anything past signing is.
func (s *WalletService) Send(ctx context.Context, sub, txBase64 string, await bool) (*wallet.SendResult, error) {
	user, err := s.provider.GetUser(ctx, sub)
	if err != nil {
		return nil, err
	}

	id := wallet.Resolve(true, user)

	result, err := s.sender.Send(ctx, &wallet.SendRequest{
		Authenticated:     true,
		Identity:          id,
		TxBase64:          txBase64,
		AwaitConfirmation: await,
	})

	s.record(ctx, sub, result, err)

	if err != nil {
		return result, err
	}
	metrics.TxSubmissions.WithLabelValues(result.Status).Inc()
	return result, nil
}

// Transactions returns the user's submission history, newest first.
func (s *WalletService) Transactions(ctx context.Context, sub string, limit int) ([]*types.TransactionRecord, error) {
	user, err := s.userRepo.GetByExternalSub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []*types.TransactionRecord{}, nil
	}
	return s.txRepo.ListByUser(ctx, user.ID, limit)
}

// record persists the outcome of a submission attempt once a signature is
// known. Precondition and signing failures never reached the network, so
// there is nothing to reconcile later.
func (s *WalletService) record(ctx context.Context, sub string, result *wallet.SendResult, sendErr error) {
	if result == nil || result.Signature.IsZero() {
		if sendErr != nil {
			metrics.TxSubmissions.WithLabelValues(types.TxStatusFailed).Inc()
		}
		return
	}

	user, err := s.userRepo.GetOrCreate(ctx, sub)
	if err != nil {
		return
	}

	var errMsg *string
	status := result.Status
	if sendErr != nil {
		msg := sendErr.Error()
		errMsg = &msg
		metrics.TxSubmissions.WithLabelValues(status).Inc()
	}

	_, _ = s.txRepo.Create(ctx, user.ID, result.Signature.String(), status, errMsg)
}
