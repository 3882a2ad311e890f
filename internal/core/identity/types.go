package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DiscoveryDocument is the subset of the provider's OpenID configuration the
// exchange needs.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// ExternalIdentity is the verified result of a login: the provider's user id,
// display name and avatar.
type ExternalIdentity struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// TokenSet is what the token endpoint returned for a code.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	Scope        string
	TokenType    string
	RefreshToken string
	ExpiresIn    time.Duration
}

// IDTokenClaims are the claims read from a verified ID token.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Expectation constrains a verified ID token beyond its signature. Both
// fields are required; an empty Expectation rejects every token.
type Expectation struct {
	Audience string
	Issuers  []string
}

// DiscoveryCache stores discovery documents keyed by discovery URL.
// Implementations apply their own TTL.
type DiscoveryCache interface {
	Get(ctx context.Context, key string) (*DiscoveryDocument, bool, error)
	Set(ctx context.Context, key string, doc *DiscoveryDocument) error
}

// IDTokenVerifier verifies an ID token against the key set at jwksURI and
// returns its claims.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken, jwksURI string, expect Expectation) (*IDTokenClaims, error)
}
