package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/response"
)

// APIKeyGuard protects mutating routes with a shared key. Clients present
// either the raw key in the X-API-Key header, or a fernet token minted from
// it, which additionally expires after the configured TTL. This is the auth
// stub, not an auth design.
type APIKeyGuard struct {
	apiKey string
	keys   []*fernet.Key
	ttl    time.Duration
}

// NewAPIKeyGuard creates a guard. An empty apiKey disables the guard
// entirely (local development). fernetKey is optional; when set it must be
// a base64 fernet key and enables token auth.
func NewAPIKeyGuard(apiKey, fernetKey string, ttl time.Duration) (*APIKeyGuard, error) {
	guard := &APIKeyGuard{apiKey: apiKey, ttl: ttl}

	if fernetKey != "" {
		keys, err := fernet.DecodeKeys(fernetKey)
		if err != nil {
			return nil, err
		}
		guard.keys = keys
	}

	return guard, nil
}

// MintToken issues a fernet token carrying the shared key, for clients that
// prefer expiring credentials over the raw key.
func (g *APIKeyGuard) MintToken() (string, error) {
	token, err := fernet.EncryptAndSign([]byte(g.apiKey), g.keys[0])
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// Handler rejects requests that present neither the raw key nor a valid,
// unexpired token.
func (g *APIKeyGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		presented := r.Header.Get("X-API-Key")
		if presented == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
			return
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(g.apiKey)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		if len(g.keys) > 0 {
			payload := fernet.VerifyAndDecrypt([]byte(presented), g.ttl, g.keys)
			if payload != nil && subtle.ConstantTimeCompare(payload, []byte(g.apiKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
	})
}
