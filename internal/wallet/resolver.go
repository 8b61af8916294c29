// Package wallet holds the reconciliation core: it derives a single canonical
// Solana wallet identity from the possibly-inconsistent account sources on a
// provider user record, guards wallet creation against duplicate requests,
// and fronts transaction signing and submission.
package wallet

import (
	"github.com/gagliardetto/solana-go"

	"github.com/pitchside/pitchside/internal/identity"
	"github.com/pitchside/pitchside/pkg/types"
)

// ErrMsgInvalidAddress is the recorded resolution error for an address that
// fails base58 parsing. It is state, not a returned error: an unparseable
// address downgrades the identity to absent instead of failing the caller.
const ErrMsgInvalidAddress = "Invalid Solana address"

// Identity is the canonical wallet identity derived from a provider user
// record. At most one is active at a time; it is recomputed whole on every
// change to the authenticated flag or the user record, never patched.
type Identity struct {
	// PublicKey is present only when address parsing succeeded.
	PublicKey *solana.PublicKey
	// Address is the raw source address PublicKey was parsed from.
	Address string
	// Source records which account the identity came from, informational only.
	Source types.WalletSource
	// Err is the recorded resolution error, empty in the normal case.
	// Absence of any wallet is not an error.
	Err string
}

// HasWallet reports whether a canonical public key was resolved.
func (id Identity) HasWallet() bool {
	return id.PublicKey != nil
}

// Resolve derives the canonical wallet identity for a user.
//
// Selection rule: the first linked account matching the target chain wins
// over the embedded wallet when both exist. Linked means the user explicitly
// connected an external wallet; that choice must take priority over the
// provider's auto-provisioned custodial wallet.
func Resolve(authenticated bool, user *identity.User) Identity {
	if !authenticated || user == nil {
		return Identity{}
	}

	var active *identity.Account
	var source types.WalletSource

	for i := range user.LinkedAccounts {
		acct := &user.LinkedAccounts[i]
		if acct.Type == identity.AccountTypeWallet && acct.Chain == types.ChainSolana {
			active = acct
			source = types.WalletSourceLinked
			break
		}
	}

	if active == nil && user.Wallet != nil && user.Wallet.Chain == types.ChainSolana {
		active = user.Wallet
		source = types.WalletSourceEmbedded
	}

	if active == nil || active.Address == "" {
		return Identity{}
	}

	pubkey, err := solana.PublicKeyFromBase58(active.Address)
	if err != nil {
		return Identity{
			Address: active.Address,
			Source:  source,
			Err:     ErrMsgInvalidAddress,
		}
	}

	return Identity{
		PublicKey: &pubkey,
		Address:   active.Address,
		Source:    source,
	}
}
