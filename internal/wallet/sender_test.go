package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/sol"
	apperrors "github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/types"
)

type fakeSigner struct {
	signed string
	err    error
	calls  int
}

func (s *fakeSigner) SignTransaction(ctx context.Context, address, txBase64 string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.signed, nil
}

type fakeChain struct {
	sendSig   solana.Signature
	sendErr   error
	sendCalls int

	status    *sol.SignatureStatus
	statusErr error

	confirmStatus *sol.SignatureStatus
	confirmErr    error
}

func (c *fakeChain) SendEncodedTransaction(ctx context.Context, txBase64 string) (solana.Signature, error) {
	c.sendCalls++
	if c.sendErr != nil {
		return solana.Signature{}, c.sendErr
	}
	return c.sendSig, nil
}

func (c *fakeChain) SignatureStatus(ctx context.Context, sig solana.Signature) (*sol.SignatureStatus, error) {
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	return c.status, nil
}

func (c *fakeChain) Confirm(ctx context.Context, sig solana.Signature) (*sol.SignatureStatus, error) {
	if c.confirmErr != nil {
		return c.confirmStatus, c.confirmErr
	}
	return c.confirmStatus, nil
}

// signedTxBase64 builds a serialized transaction carrying the given signature,
// the shape the provider returns from a signing call.
func signedTxBase64(t *testing.T, sig solana.Signature) string {
	t.Helper()

	payer := solana.MustPublicKeyFromBase58(linkedAddr)
	recipient := solana.MustPublicKeyFromBase58(embeddedAddr)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, recipient).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	tx.Signatures = []solana.Signature{sig}

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func walletIdentity(t *testing.T) Identity {
	t.Helper()
	pk := solana.MustPublicKeyFromBase58(linkedAddr)
	return Identity{PublicKey: &pk, Address: linkedAddr, Source: types.WalletSourceLinked}
}

func testSignature() solana.Signature {
	var sig solana.Signature
	sig[0] = 0x42
	return sig
}

func TestSend_PreconditionsFailFast(t *testing.T) {
	chain := &fakeChain{}
	signer := &fakeSigner{}

	t.Run("nil_chain", func(t *testing.T) {
		s := NewSender(nil, signer, time.Second)
		_, err := s.Send(context.Background(), &SendRequest{Authenticated: true, Identity: walletIdentity(t), TxBase64: "dGVzdA=="})
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeNotReady, appErr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		s := NewSender(chain, signer, time.Second)
		_, err := s.Send(context.Background(), &SendRequest{Identity: walletIdentity(t), TxBase64: "dGVzdA=="})
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("no_wallet", func(t *testing.T) {
		s := NewSender(chain, signer, time.Second)
		_, err := s.Send(context.Background(), &SendRequest{Authenticated: true, TxBase64: "dGVzdA=="})
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeWalletNotFound, appErr.Code)
		require.Equal(t, http.StatusConflict, appErr.StatusCode)
	})

	t.Run("nil_signer", func(t *testing.T) {
		s := NewSender(chain, nil, time.Second)
		_, err := s.Send(context.Background(), &SendRequest{Authenticated: true, Identity: walletIdentity(t), TxBase64: "dGVzdA=="})
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeNotReady, appErr.Code)
	})

	t.Run("empty_transaction", func(t *testing.T) {
		s := NewSender(chain, signer, time.Second)
		_, err := s.Send(context.Background(), &SendRequest{Authenticated: true, Identity: walletIdentity(t)})
		require.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	// None of the precondition failures touched the network.
	require.Equal(t, 0, chain.sendCalls)
	require.Equal(t, 0, signer.calls)
}

func TestSend_SigningFailureNeverReachesNetwork(t *testing.T) {
	chain := &fakeChain{}
	signer := &fakeSigner{err: errors.New("provider rejected the request")}
	s := NewSender(chain, signer, time.Second)

	_, err := s.Send(context.Background(), &SendRequest{
		Authenticated: true,
		Identity:      walletIdentity(t),
		TxBase64:      "dGVzdA==",
	})

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.ErrCodeSigningFailed, appErr.Code)
	require.Equal(t, 0, chain.sendCalls)
}

func TestSend_SubmitWithoutAwait(t *testing.T) {
	sig := testSignature()
	chain := &fakeChain{sendSig: sig}
	signer := &fakeSigner{signed: signedTxBase64(t, sig)}
	s := NewSender(chain, signer, time.Second)

	result, err := s.Send(context.Background(), &SendRequest{
		Authenticated: true,
		Identity:      walletIdentity(t),
		TxBase64:      "dGVzdA==",
	})

	require.NoError(t, err)
	require.Equal(t, sig, result.Signature)
	require.Equal(t, types.TxStatusSubmitted, result.Status)
}

func TestSend_SubmitErrorButSignatureOnChain(t *testing.T) {
	// The RPC call failed, but the chain knows the signature: the submission
	// actually succeeded and must not be reported as a failure.
	sig := testSignature()
	chain := &fakeChain{
		sendErr: errors.New("connection reset"),
		status:  &sol.SignatureStatus{Found: true, Confirmation: rpc.ConfirmationStatusConfirmed},
	}
	signer := &fakeSigner{signed: signedTxBase64(t, sig)}
	s := NewSender(chain, signer, time.Second)

	result, err := s.Send(context.Background(), &SendRequest{
		Authenticated: true,
		Identity:      walletIdentity(t),
		TxBase64:      "dGVzdA==",
	})

	require.NoError(t, err)
	require.Equal(t, sig, result.Signature)
	require.Equal(t, types.TxStatusConfirmed, result.Status)
}

func TestSend_SubmitErrorAndNoChainRecord(t *testing.T) {
	sig := testSignature()
	chain := &fakeChain{
		sendErr: errors.New("connection reset"),
		status:  &sol.SignatureStatus{Found: false},
	}
	signer := &fakeSigner{signed: signedTxBase64(t, sig)}
	s := NewSender(chain, signer, time.Second)

	_, err := s.Send(context.Background(), &SendRequest{
		Authenticated: true,
		Identity:      walletIdentity(t),
		TxBase64:      "dGVzdA==",
	})

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.ErrCodeSubmissionFailed, appErr.Code)
}

func TestSend_AwaitConfirmation(t *testing.T) {
	sig := testSignature()

	t.Run("confirmed", func(t *testing.T) {
		chain := &fakeChain{
			sendSig:       sig,
			confirmStatus: &sol.SignatureStatus{Found: true, Confirmation: rpc.ConfirmationStatusFinalized},
		}
		s := NewSender(chain, &fakeSigner{signed: signedTxBase64(t, sig)}, time.Second)

		result, err := s.Send(context.Background(), &SendRequest{
			Authenticated:     true,
			Identity:          walletIdentity(t),
			TxBase64:          "dGVzdA==",
			AwaitConfirmation: true,
		})

		require.NoError(t, err)
		require.Equal(t, types.TxStatusFinalized, result.Status)
	})

	t.Run("failed_on_chain", func(t *testing.T) {
		chainErr := errors.New("transaction failed on chain: InstructionError")
		chain := &fakeChain{
			sendSig:       sig,
			confirmStatus: &sol.SignatureStatus{Found: true, Err: chainErr},
			confirmErr:    chainErr,
		}
		s := NewSender(chain, &fakeSigner{signed: signedTxBase64(t, sig)}, time.Second)

		result, err := s.Send(context.Background(), &SendRequest{
			Authenticated:     true,
			Identity:          walletIdentity(t),
			TxBase64:          "dGVzdA==",
			AwaitConfirmation: true,
		})

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeSubmissionFailed, appErr.Code)
		require.Equal(t, types.TxStatusFailed, result.Status)
	})

	t.Run("timeout_with_late_confirmation", func(t *testing.T) {
		// Confirm timed out, but the final status check finds the signature:
		// slow, not lost.
		chain := &fakeChain{
			sendSig:    sig,
			confirmErr: context.DeadlineExceeded,
			status:     &sol.SignatureStatus{Found: true, Confirmation: rpc.ConfirmationStatusProcessed},
		}
		s := NewSender(chain, &fakeSigner{signed: signedTxBase64(t, sig)}, time.Second)

		result, err := s.Send(context.Background(), &SendRequest{
			Authenticated:     true,
			Identity:          walletIdentity(t),
			TxBase64:          "dGVzdA==",
			AwaitConfirmation: true,
		})

		require.NoError(t, err)
		require.Equal(t, types.TxStatusSubmitted, result.Status)
	})

	t.Run("timeout_and_no_chain_record", func(t *testing.T) {
		chain := &fakeChain{
			sendSig:    sig,
			confirmErr: context.DeadlineExceeded,
			status:     &sol.SignatureStatus{Found: false},
		}
		s := NewSender(chain, &fakeSigner{signed: signedTxBase64(t, sig)}, time.Second)

		result, err := s.Send(context.Background(), &SendRequest{
			Authenticated:     true,
			Identity:          walletIdentity(t),
			TxBase64:          "dGVzdA==",
			AwaitConfirmation: true,
		})

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.ErrCodeSubmissionUnconfirmed, appErr.Code)
		require.Equal(t, types.TxStatusUnconfirmed, result.Status)
		require.Equal(t, sig, result.Signature)
	})
}

func TestExtractSignature(t *testing.T) {
	sig := testSignature()

	t.Run("valid_transaction", func(t *testing.T) {
		require.Equal(t, sig, extractSignature(signedTxBase64(t, sig)))
	})

	t.Run("not_base64", func(t *testing.T) {
		require.True(t, extractSignature("%%%").IsZero())
	})

	t.Run("not_a_transaction", func(t *testing.T) {
		require.True(t, extractSignature(base64.StdEncoding.EncodeToString([]byte("junk"))).IsZero())
	})
}
