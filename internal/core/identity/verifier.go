package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Signing algorithms accepted on ID tokens. HS256 is never accepted: the
// provider's keys are public.
var allowedIDTokenAlgs = []string{"RS256", "ES256"}

// JWKSVerifier verifies ID tokens with keys fetched from the provider's JWKS
// endpoint. Key sets are cached per URI and refetched once when a token
// names an unknown key id, which is how providers roll keys.
type JWKSVerifier struct {
	httpClient *http.Client
	keySets    *expirable.LRU[string, jwk.Set]
	now        func() time.Time
	leeway     time.Duration
}

// NewJWKSVerifier creates a verifier. A nil client uses a 10s timeout client.
func NewJWKSVerifier(httpClient *http.Client, cacheTTL time.Duration) *JWKSVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultDiscoveryTTL
	}
	return &JWKSVerifier{
		httpClient: httpClient,
		keySets:    expirable.NewLRU[string, jwk.Set](8, nil, cacheTTL),
		now:        time.Now,
		leeway:     30 * time.Second,
	}
}

// Verify checks the token signature, algorithm, expiry, issuer and audience.
func (v *JWKSVerifier) Verify(ctx context.Context, rawToken, jwksURI string, expect Expectation) (*IDTokenClaims, error) {
	if len(expect.Issuers) == 0 || expect.Audience == "" {
		return nil, fmt.Errorf("%w: no issuer or audience to check against", ErrInvalidIdentityToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(allowedIDTokenAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithAudience(expect.Audience),
	}

	claims := &IDTokenClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid in token header")
		}
		return v.publicKey(ctx, jwksURI, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentityToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token signature invalid", ErrInvalidIdentityToken)
	}

	if !slices.Contains(expect.Issuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIdentityToken, claims.Issuer)
	}

	return claims, nil
}

// publicKey returns the raw public key for kid, refreshing the cached set once
// if the key is not in it.
func (v *JWKSVerifier) publicKey(ctx context.Context, jwksURI, kid string) (interface{}, error) {
	set, cached := v.keySets.Get(jwksURI)
	if !cached {
		var err error
		if set, err = v.fetch(ctx, jwksURI); err != nil {
			return nil, err
		}
	}

	key, found := set.LookupKeyID(kid)
	if !found && cached {
		fresh, err := v.fetch(ctx, jwksURI)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}
		key, found = fresh.LookupKeyID(kid)
	}
	if !found {
		return nil, fmt.Errorf("key with kid %s not found", kid)
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to convert JWK %s: %w", kid, err)
	}
	return raw, nil
}

func (v *JWKSVerifier) fetch(ctx context.Context, jwksURI string) (jwk.Set, error) {
	set, err := jwk.Fetch(ctx, jwksURI, jwk.WithHTTPClient(v.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if set.Len() == 0 {
		return nil, errors.New("no keys found in JWKS")
	}
	v.keySets.Add(jwksURI, set)
	return set, nil
}
