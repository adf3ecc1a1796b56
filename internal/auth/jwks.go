package auth

import (
	"context"
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
	"golang.org/x/sync/singleflight"

	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

const (
	// jwksCacheTTL bounds how long a fetched key set is trusted before
	// it is re-fetched, so key rotation is picked up.
	jwksCacheTTL = 15 * time.Minute

	// jwksRefreshCooldown throttles unknown-kid triggered fetches so a
	// flood of forged tokens cannot hammer the identity provider.
	jwksRefreshCooldown = 30 * time.Second

	jwksFetchTimeout = 10 * time.Second
)

// JWKSVerifier validates RS256 JWTs against the identity provider's
// published key set.
type JWKSVerifier struct {
	jwksURI    string
	audience   string
	httpClient *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	group singleflight.Group
}

func NewJWKSVerifier(jwksURI, audience string) *JWKSVerifier {
	return &JWKSVerifier{
		jwksURI:    jwksURI,
		audience:   audience,
		httpClient: &http.Client{Timeout: jwksFetchTimeout},
		keys:       map[string]*rsa.PublicKey{},
	}
}

// Verify parses and validates the token: RS256 signature against a
// JWKS key, expiry and not-before, and audience when the claim is
// present.
func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyfunc(ctx),
		jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !token.Valid {
		logging.Warn("Auth", "Token verification failed: %v", err)
		return nil, errInvalidToken()
	}

	if aud, _ := claims.GetAudience(); len(aud) > 0 && !containsAudience(aud, v.audience) {
		logging.Warn("Auth", "Token audience %v does not include %q", aud, v.audience)
		return nil, errInvalidToken()
	}

	sub, _ := claims["sub"].(string)
	return &Identity{
		Subject: sub,
		Scopes:  scopesFromClaims(claims),
		Claims:  claims,
	}, nil
}

func (v *JWKSVerifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header has no kid")
		}
		if key := v.lookup(kid); key != nil {
			return key, nil
		}
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		if key := v.lookup(kid); key != nil {
			return key, nil
		}
		return nil, fmt.Errorf("no JWKS key matches kid %q", kid)
	}
}

// lookup returns the cached key for kid, or nil when unknown or the
// cache has aged out.
func (v *JWKSVerifier) lookup(kid string) *rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if time.Since(v.fetchedAt) > jwksCacheTTL {
		return nil
	}
	return v.keys[kid]
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	_, err, _ := v.group.Do("jwks", func() (interface{}, error) {
		v.mu.RLock()
		recent := time.Since(v.fetchedAt) < jwksRefreshCooldown
		v.mu.RUnlock()
		if recent {
			return nil, nil
		}
		return nil, v.fetch(ctx)
	})
	return err
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *JWKSVerifier) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURI, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching JWKS: status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			logging.Warn("Auth", "Skipping unparsable JWKS key %q: %v", k.Kid, err)
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	logging.Debug("Auth", "Loaded %d JWKS keys from %s", len(keys), v.jwksURI)
	return nil
}

func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

// scopesFromClaims reads the scope claim in either of its common
// encodings: a space-separated string or an array of strings.
func scopesFromClaims(claims jwt.MapClaims) []string {
	switch scope := claims["scope"].(type) {
	case string:
		return strings.Fields(scope)
	case []interface{}:
		out := make([]string, 0, len(scope))
		for _, s := range scope {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
