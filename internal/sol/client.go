// Package sol wraps the Solana JSON-RPC client used for balance reads,
// transaction submission, and confirmation.
package sol

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureStatus is the chain's view of a submitted signature.
type SignatureStatus struct {
	// Found is false when the chain has no record of the signature.
	Found bool
	// Confirmation is the reached confirmation level when Found.
	Confirmation rpc.ConfirmationStatusType
	// Err is non-nil when the transaction landed on chain but failed.
	Err error
}

// Client wraps a Solana RPC client pinned to a single commitment level.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient creates a Solana RPC client against the given endpoint.
func NewClient(rpcURL, commitment string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is required")
	}

	var c rpc.CommitmentType
	switch commitment {
	case "processed":
		c = rpc.CommitmentProcessed
	case "confirmed":
		c = rpc.CommitmentConfirmed
	case "finalized":
		c = rpc.CommitmentFinalized
	default:
		return nil, fmt.Errorf("unsupported commitment level: %s", commitment)
	}

	return &Client{
		rpc:        rpc.New(rpcURL),
		commitment: c,
	}, nil
}

// Commitment returns the configured commitment level.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// GetBalance returns the balance of a public key in lamports.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

// GetLatestBlockhash returns a recent blockhash for transaction assembly.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return result.Value.Blockhash, nil
}

// SendEncodedTransaction broadcasts a base64-encoded signed transaction.
// Preflight runs at the configured commitment; there is no retry here.
func (c *Client) SendEncodedTransaction(ctx context.Context, txBase64 string) (solana.Signature, error) {
	sig, err := c.rpc.SendEncodedTransactionWithOpts(ctx, txBase64, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// SignatureStatus queries the chain for a signature, searching transaction
// history so that a signature older than the recent-status cache is still
// found.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return &SignatureStatus{Found: false}, nil
	}

	status := &SignatureStatus{
		Found:        true,
		Confirmation: result.Value[0].ConfirmationStatus,
	}
	if result.Value[0].Err != nil {
		status.Err = fmt.Errorf("transaction failed on chain: %v", result.Value[0].Err)
	}
	return status, nil
}

// Confirm polls the signature status until the configured commitment level is
// reached, the transaction fails on chain, or the context expires. The caller
// bounds the wait with a context deadline.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, err := c.SignatureStatus(ctx, sig)
		if err == nil && status.Found {
			if status.Err != nil {
				return status, status.Err
			}
			if c.reached(status.Confirmation) {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// reached reports whether a confirmation level satisfies the configured
// commitment.
func (c *Client) reached(level rpc.ConfirmationStatusType) bool {
	rank := func(l rpc.ConfirmationStatusType) int {
		switch l {
		case rpc.ConfirmationStatusProcessed:
			return 1
		case rpc.ConfirmationStatusConfirmed:
			return 2
		case rpc.ConfirmationStatusFinalized:
			return 3
		}
		return 0
	}

	want := 2
	switch c.commitment {
	case rpc.CommitmentProcessed:
		want = 1
	case rpc.CommitmentConfirmed:
		want = 2
	case rpc.CommitmentFinalized:
		want = 3
	}

	return rank(level) >= want
}
