package middleware

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/pitchside/pitchside/pkg/errors"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// UserSubKey is the context key for the identity provider subject claim
	UserSubKey ContextKey = "user_sub"
)

// jwksCacheTTL bounds how long fetched provider keys are trusted.
const jwksCacheTTL = time.Hour

// AuthSettings configures token validation against the identity provider.
type AuthSettings struct {
	Issuer   string
	Audience string
	JWKSURI  string
}

// jwksCache caches provider public keys by key ID.
type jwksCache struct {
	keys      map[string]interface{}
	expiresAt time.Time
	mu        sync.RWMutex
}

// AuthMiddleware validates identity provider access tokens (JWT + JWKS).
type AuthMiddleware struct {
	settings   AuthSettings
	cache      *jwksCache
	httpClient *http.Client
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(settings AuthSettings) *AuthMiddleware {
	return &AuthMiddleware{
		settings: settings,
		cache: &jwksCache{
			keys: make(map[string]interface{}),
		},
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Authenticate validates the Bearer token and stores the provider subject in
// the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, apperrors.ErrUnauthorized)
			return
		}

		token, err := m.parseToken(parts[1])
		if err != nil {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Invalid token",
				err.Error(),
				http.StatusUnauthorized,
			))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			writeError(w, apperrors.ErrUnauthorized)
			return
		}

		if iss, ok := claims["iss"].(string); !ok || iss != m.settings.Issuer {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Invalid issuer",
				fmt.Sprintf("expected %s", m.settings.Issuer),
				http.StatusUnauthorized,
			))
			return
		}

		if !m.validateAudience(claims) {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Invalid audience",
				fmt.Sprintf("expected %s", m.settings.Audience),
				http.StatusUnauthorized,
			))
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Missing subject claim",
				"",
				http.StatusUnauthorized,
			))
			return
		}

		ctx := context.WithValue(r.Context(), UserSubKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserSub retrieves the provider subject from context.
func GetUserSub(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(UserSubKey).(string)
	return sub, ok
}

// parseToken parses and validates a JWT token against the provider JWKS
func (m *AuthMiddleware) parseToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing kid in token header")
		}

		key, err := m.getPublicKey(kid)
		if err != nil {
			return nil, fmt.Errorf("failed to get public key: %w", err)
		}

		return key, nil
	})
}

// validateAudience accepts both string and list-valued aud claims.
func (m *AuthMiddleware) validateAudience(claims jwt.MapClaims) bool {
	if m.settings.Audience == "" {
		return true
	}

	switch aud := claims["aud"].(type) {
	case string:
		return aud == m.settings.Audience
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok && s == m.settings.Audience {
				return true
			}
		}
	}
	return false
}

// getPublicKey retrieves a public key from the provider JWKS (cached).
func (m *AuthMiddleware) getPublicKey(kid string) (interface{}, error) {
	m.cache.mu.RLock()
	if key, found := m.cache.keys[kid]; found && time.Now().Before(m.cache.expiresAt) {
		m.cache.mu.RUnlock()
		return key, nil
	}
	m.cache.mu.RUnlock()

	resp, err := m.httpClient.Get(m.settings.JWKSURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	m.cache.keys = make(map[string]interface{})
	m.cache.expiresAt = time.Now().Add(jwksCacheTTL)

	for _, jwk := range jwks.Keys {
		keyID, _ := jwk["kid"].(string)
		if keyID == "" {
			continue
		}
		key, err := parseJWK(jwk)
		if err != nil {
			continue
		}
		m.cache.keys[keyID] = key
	}

	key, found := m.cache.keys[kid]
	if !found {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

// parseJWK converts a single JWK entry into an RSA or ECDSA public key.
func parseJWK(jwk map[string]interface{}) (interface{}, error) {
	kty, _ := jwk["kty"].(string)

	switch kty {
	case "RSA":
		nStr, _ := jwk["n"].(string)
		eStr, _ := jwk["e"].(string)
		nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RSA modulus: %w", err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RSA exponent: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}, nil

	case "EC":
		crv, _ := jwk["crv"].(string)
		if crv != "P-256" {
			return nil, fmt.Errorf("unsupported curve: %s", crv)
		}
		xStr, _ := jwk["x"].(string)
		yStr, _ := jwk["y"].(string)
		xBytes, err := base64.RawURLEncoding.DecodeString(xStr)
		if err != nil {
			return nil, fmt.Errorf("invalid EC x coordinate: %w", err)
		}
		yBytes, err := base64.RawURLEncoding.DecodeString(yStr)
		if err != nil {
			return nil, fmt.Errorf("invalid EC y coordinate: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xBytes),
			Y:     new(big.Int).SetBytes(yBytes),
		}, nil
	}

	return nil, fmt.Errorf("unsupported key type: %s", kty)
}
