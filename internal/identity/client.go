// Package identity wraps the third-party identity provider: user records,
// embedded wallet provisioning, and provider-side transaction signing.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// Client is an authenticated HTTP client for the identity provider REST API.
// All calls are app-credentialed; user scoping happens through the provider
// subject in the path.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
}

// NewClient creates a provider client. The returned client is not "ready"
// until the configuration is complete; callers gate operations on Ready.
func NewClient(baseURL, appID, appSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Ready reports whether the provider client is fully configured.
func (c *Client) Ready() bool {
	return c != nil && c.baseURL != "" && c.appID != "" && c.appSecret != ""
}

// GetUser fetches and validates the provider user record for a subject.
func (c *Client) GetUser(ctx context.Context, sub string) (*User, error) {
	if !c.Ready() {
		return nil, apperrors.NotReady("identity provider not configured")
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/users/%s", url.PathEscape(sub)), nil)
	if err != nil {
		return nil, err
	}

	return ParseUser(body)
}

// CreateWallet asks the provider to provision an embedded wallet for the
// subject on the given chain. The provider enforces one wallet per chain;
// this call is not retried here.
func (c *Client) CreateWallet(ctx context.Context, sub, chain string) (*Account, error) {
	if !c.Ready() {
		return nil, apperrors.NotReady("identity provider not configured")
	}

	reqBody := map[string]string{"chain": chain}
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/users/%s/wallets", url.PathEscape(sub)), reqBody)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Wallet struct {
			Chain   string `json:"chain"`
			Address string `json:"address"`
		} `json:"wallet"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode wallet creation response: %w", err)
	}

	if resp.Wallet.Address == "" {
		return nil, apperrors.NewWithDetail(
			apperrors.ErrCodeWalletCreationFailed,
			"Provider returned no wallet address",
			"",
			http.StatusBadGateway,
		)
	}

	return &Account{
		Type:    AccountTypeWallet,
		Chain:   resp.Wallet.Chain,
		Address: resp.Wallet.Address,
	}, nil
}

// SignTransaction asks the provider to sign a base64-encoded transaction with
// the embedded wallet holding the given address. Linked external wallets
// cannot be signed with server-side; the provider rejects those and the error
// is surfaced verbatim.
func (c *Client) SignTransaction(ctx context.Context, address, txBase64 string) (string, error) {
	if !c.Ready() {
		return "", apperrors.NotReady("identity provider not configured")
	}

	reqBody := map[string]any{
		"method": "signTransaction",
		"params": map[string]string{
			"transaction": txBase64,
			"encoding":    "base64",
		},
	}

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/wallets/%s/rpc", url.PathEscape(address)), reqBody)
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			SignedTransaction string `json:"signed_transaction"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode signing response: %w", err)
	}

	if resp.Data.SignedTransaction == "" {
		return "", apperrors.SigningFailed("provider returned no signed transaction")
	}

	return resp.Data.SignedTransaction, nil
}

// do executes an app-credentialed request and returns the response body.
// Non-2xx responses are mapped to AppErrors with the provider's message.
func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}

	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("x-app-id", c.appID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var provErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &provErr)
		detail := provErr.Message
		if detail == "" {
			detail = provErr.Error
		}
		return nil, apperrors.NewWithDetail(
			apperrors.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("Provider returned status %d", resp.StatusCode),
			detail,
			http.StatusBadGateway,
		)
	}

	return body, nil
}
