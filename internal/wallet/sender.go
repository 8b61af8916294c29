package wallet

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/pitchside/pitchside/internal/sol"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

// Signer signs a base64-encoded transaction for a wallet address.
type Signer interface {
	SignTransaction(ctx context.Context, address, txBase64 string) (string, error)
}

// Chain is the RPC surface the sender needs.
type Chain interface {
	SendEncodedTransaction(ctx context.Context, txBase64 string) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*sol.SignatureStatus, error)
	Confirm(ctx context.Context, sig solana.Signature) (*sol.SignatureStatus, error)
}

// SendRequest carries a single submission attempt.
type SendRequest struct {
	Authenticated bool
	Identity      Identity
	TxBase64      string
	// AwaitConfirmation blocks until the configured commitment is reached.
	AwaitConfirmation bool
}

// SendResult is the outcome of a submission attempt.
type SendResult struct {
	Signature solana.Signature
	Status    string
}

// Sender signs and submits transactions with the resolved wallet. Each call
// is a single attempt; the caller decides whether to retry.
type Sender struct {
	chain          Chain
	signer         Signer
	confirmTimeout time.Duration
}

// NewSender creates a transaction sender.
func NewSender(chain Chain, signer Signer, confirmTimeout time.Duration) *Sender {
	return &Sender{
		chain:          chain,
		signer:         signer,
		confirmTimeout: confirmTimeout,
	}
}

// Send signs the transaction with the resolved wallet and submits it.
//
// Every precondition is checked before any network I/O. A signing failure
// never reaches the network. A failure after signing is ambiguous by nature,
// so the chain is polled for the signature before any failure is reported:
// a signature the chain knows about is a success, however the submission
// call ended.
func (s *Sender) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if s.chain == nil {
		return nil, apperrors.NotReady("chain connection not established")
	}
	if !req.Authenticated {
		return nil, apperrors.ErrUnauthorized
	}
	if !req.Identity.HasWallet() {
		return nil, apperrors.New(
			apperrors.ErrCodeWalletNotFound,
			"No Solana wallet connected",
			http.StatusConflict,
		)
	}
	if s.signer == nil {
		return nil, apperrors.NotReady("no signer available")
	}
	if req.TxBase64 == "" {
		return nil, apperrors.ErrBadRequest
	}

	signed, err := s.signer.SignTransaction(ctx, req.Identity.Address, req.TxBase64)
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.SigningFailed(err.Error())
	}

	// The transaction's own signature, extracted before submission so the
	// outcome of a failed submission call can still be reconciled.
	expected := extractSignature(signed)

	sig, err := s.chain.SendEncodedTransaction(ctx, signed)
	if err != nil {
		if found, status := s.lookup(ctx, expected); found {
			sig = expected
			if !req.AwaitConfirmation {
				return &SendResult{Signature: sig, Status: status}, nil
			}
		} else {
			return nil, apperrors.SubmissionFailed(err.Error())
		}
	}

	if !req.AwaitConfirmation {
		return &SendResult{Signature: sig, Status: types.TxStatusSubmitted}, nil
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	status, err := s.chain.Confirm(confirmCtx, sig)
	if err != nil {
		if status != nil && status.Err != nil {
			return &SendResult{Signature: sig, Status: types.TxStatusFailed},
				apperrors.SubmissionFailed(status.Err.Error())
		}

		// Timed out waiting. One final status check decides between a slow
		// confirmation and a transaction the chain never saw.
		if found, level := s.lookup(ctx, sig); found {
			return &SendResult{Signature: sig, Status: level}, nil
		}
		return &SendResult{Signature: sig, Status: types.TxStatusUnconfirmed},
			apperrors.SubmissionUnconfirmed(sig.String())
	}

	return &SendResult{Signature: sig, Status: confirmationToStatus(status.Confirmation)}, nil
}

// lookup polls the chain once for a signature. Returns found plus the mapped
// status. A zero signature or a status error counts as not found.
func (s *Sender) lookup(ctx context.Context, sig solana.Signature) (bool, string) {
	if sig.IsZero() {
		return false, ""
	}
	status, err := s.chain.SignatureStatus(ctx, sig)
	if err != nil || !status.Found || status.Err != nil {
		return false, ""
	}
	return true, confirmationToStatus(status.Confirmation)
}

// extractSignature parses a base64 signed transaction and returns its first
// signature. Best effort: a transaction this service cannot decode yields a
// zero signature and reconciliation simply degrades to the submission error.
func extractSignature(txBase64 string) solana.Signature {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return solana.Signature{}
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil || len(tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return tx.Signatures[0]
}

func confirmationToStatus(level rpc.ConfirmationStatusType) string {
	switch level {
	case rpc.ConfirmationStatusFinalized:
		return types.TxStatusFinalized
	case rpc.ConfirmationStatusConfirmed:
		return types.TxStatusConfirmed
	default:
		return types.TxStatusSubmitted
	}
}
