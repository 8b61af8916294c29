package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Account is a single chain account attached to a provider user record,
// either explicitly linked by the user or embedded (provider-custodial).
type Account struct {
	Type    string `json:"type"`
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// AccountTypeWallet is the linked-account type carrying a chain address.
const AccountTypeWallet = "wallet"

// User is the validated projection of the provider's raw user record.
// The raw record is an external, versioned contract; ParseUser is the one
// place it is decoded, and it fails closed: entries that do not carry the
// fields this service relies on are dropped rather than propagated.
type User struct {
	Sub            string    `json:"sub"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	LinkedAccounts []Account `json:"linked_accounts"`
	Wallet         *Account  `json:"wallet,omitempty"`
	LoginMethods   []string  `json:"login_methods"`
}

// HasLoginMethod reports whether the user authenticated with the given method.
func (u *User) HasLoginMethod(method string) bool {
	for _, m := range u.LoginMethods {
		if m == method {
			return true
		}
	}
	return false
}

// rawUser mirrors the provider wire format before validation.
type rawUser struct {
	ID             string `json:"id"`
	Email          any    `json:"email"`
	Name           any    `json:"name"`
	Avatar         any    `json:"avatar"`
	LinkedAccounts []struct {
		Type    string `json:"type"`
		Chain   string `json:"chain"`
		Address string `json:"address"`
	} `json:"linkedAccounts"`
	Wallet *struct {
		Chain   string `json:"chain"`
		Address string `json:"address"`
	} `json:"wallet"`
	LoginMethods []string `json:"loginMethods"`
}

// ParseUser decodes and validates a raw provider user record.
//
// Validation rules:
//   - the record must carry a non-empty id (the provider subject)
//   - linked accounts missing type, chain, or address are dropped
//   - an embedded wallet missing chain or address is dropped
//   - display fields that are not strings are treated as absent (the
//     provider has shipped both string and object email fields)
func ParseUser(data []byte) (*User, error) {
	var raw rawUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode provider user record: %w", err)
	}

	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("provider user record has no id")
	}

	user := &User{
		Sub:          raw.ID,
		Email:        stringField(raw.Email),
		Name:         stringField(raw.Name),
		Avatar:       stringField(raw.Avatar),
		LoginMethods: raw.LoginMethods,
	}

	for _, acct := range raw.LinkedAccounts {
		if acct.Type == "" || acct.Chain == "" || acct.Address == "" {
			continue
		}
		user.LinkedAccounts = append(user.LinkedAccounts, Account{
			Type:    acct.Type,
			Chain:   acct.Chain,
			Address: acct.Address,
		})
	}

	if raw.Wallet != nil && raw.Wallet.Chain != "" && raw.Wallet.Address != "" {
		user.Wallet = &Account{
			Type:    AccountTypeWallet,
			Chain:   raw.Wallet.Chain,
			Address: raw.Wallet.Address,
		}
	}

	return user, nil
}

// stringField extracts a display field that the provider may send as a string
// or as a richer object with an "address" member (email records do this).
func stringField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val["address"].(string); ok {
			return s
		}
	}
	return ""
}
