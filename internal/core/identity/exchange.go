// Package identity turns a provider authorization code into a verified
// external identity: discovery, code exchange, then ID token verification.
//
// The exchange keeps no state between calls. Given the discovery document,
// client credentials, a code and the redirect URI the authorization URL was
// built with, it either yields an ExternalIdentity or a terminal failure.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// GoogleDiscoveryURL is Google's OpenID configuration.
const GoogleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

// Config holds the client registration with the identity provider.
type Config struct {
	ClientID     string
	ClientSecret string
	DiscoveryURL string
	Scopes       []string
	// AllowedRedirectURIs lists the redirect URIs registered with the provider.
	// An empty list allows any absolute http(s) URI.
	AllowedRedirectURIs []string
}

// Validate checks that Config has everything the exchange needs.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("client ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if _, err := url.ParseRequestURI(c.DiscoveryURL); err != nil {
		return fmt.Errorf("invalid discovery URL: %w", err)
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	return nil
}

// Exchanger drives the OAuth/OIDC code exchange against one provider.
// It is safe for concurrent use.
type Exchanger struct {
	cache      DiscoveryCache
	verifier   IDTokenVerifier
	httpClient *http.Client
	group      singleflight.Group
	cfg        Config
}

// NewExchanger creates an Exchanger. The HTTP client bounds every outbound
// call to the provider; a nil client uses a 10s timeout.
func NewExchanger(cfg Config, cache DiscoveryCache, verifier IDTokenVerifier, httpClient *http.Client) (*Exchanger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid identity provider config: %w", err)
	}
	if cache == nil {
		cache = NewMemoryDiscoveryCache(4, DefaultDiscoveryTTL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if verifier == nil {
		verifier = NewJWKSVerifier(httpClient, DefaultDiscoveryTTL)
	}
	return &Exchanger{
		cfg:        cfg,
		cache:      cache,
		verifier:   verifier,
		httpClient: httpClient,
	}, nil
}

// Discover returns the provider's discovery document, read through the cache.
// Cache failures are logged and fall back to fetching.
func (e *Exchanger) Discover(ctx context.Context) (*DiscoveryDocument, error) {
	key := e.cfg.DiscoveryURL

	doc, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("discovery cache read failed", "error", err)
	}
	if ok {
		return doc, nil
	}

	// The fetch is shared by every waiting caller, so it runs detached from
	// any one caller's cancellation; the HTTP client timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		fetched, err := e.fetchDiscovery(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Set(fetchCtx, key, fetched); err != nil {
			slog.Warn("discovery cache write failed", "error", err)
		}
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DiscoveryDocument), nil
	}
}

func (e *Exchanger) fetchDiscovery(ctx context.Context) (*DiscoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.DiscoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: discovery endpoint returned status %d", ErrDiscoveryFailed, resp.StatusCode)
	}

	var doc DiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode document: %v", ErrDiscoveryFailed, err)
	}

	if doc.Issuer == "" {
		return nil, fmt.Errorf("%w: missing issuer", ErrDiscoveryFailed)
	}

	for name, endpoint := range map[string]string{
		"authorization_endpoint": doc.AuthorizationEndpoint,
		"token_endpoint":         doc.TokenEndpoint,
		"jwks_uri":               doc.JWKSURI,
	} {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("%w: invalid %s %q", ErrDiscoveryFailed, name, endpoint)
		}
	}

	return &doc, nil
}

// CheckRedirectURI rejects redirect URIs that are not absolute http(s) URLs
// or, when an allow-list is configured, not on it.
func (e *Exchanger) CheckRedirectURI(redirectURI string) error {
	u, err := url.Parse(redirectURI)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrRedirectURINotAllowed, redirectURI)
	}
	if len(e.cfg.AllowedRedirectURIs) > 0 && !slices.Contains(e.cfg.AllowedRedirectURIs, redirectURI) {
		return fmt.Errorf("%w: %q", ErrRedirectURINotAllowed, redirectURI)
	}
	return nil
}

func (e *Exchanger) oauthConfig(doc *DiscoveryDocument, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.cfg.ClientID,
		ClientSecret: e.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       e.cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  doc.AuthorizationEndpoint,
			TokenURL: doc.TokenEndpoint,
			// Fixed style: auto-detection would retry a rejected exchange with
			// the other style, and a rejected code must not be resent.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL builds the provider consent URL for redirectURI. The same
// redirectURI must later be passed to Exchange byte for byte.
func (e *Exchanger) AuthorizationURL(ctx context.Context, redirectURI string) (string, error) {
	if err := e.CheckRedirectURI(redirectURI); err != nil {
		return "", err
	}
	doc, err := e.Discover(ctx)
	if err != nil {
		return "", err
	}
	return e.oauthConfig(doc, redirectURI).AuthCodeURL("",
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// ExchangeCode trades a code for the provider's token set. Failures are not
// retried; the user restarts the login.
func (e *Exchanger) ExchangeCode(ctx context.Context, doc *DiscoveryDocument, code, redirectURI string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	tok, err := e.oauthConfig(doc, redirectURI).Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		var urlErr *url.Error
		if errors.As(err, &retrieveErr) || errors.As(err, &urlErr) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
		}
		// x/oauth2 reports malformed bodies (e.g. no access_token) as plain errors
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedTokenResponse, err)
	}

	set := &TokenSet{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		set.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		set.ExpiresIn = time.Until(tok.Expiry).Round(time.Second)
	}

	if set.IDToken == "" {
		return nil, fmt.Errorf("%w: missing id_token", ErrUnexpectedTokenResponse)
	}
	if !strings.EqualFold(set.TokenType, "bearer") {
		return nil, fmt.Errorf("%w: token_type %q", ErrUnexpectedTokenResponse, set.TokenType)
	}

	return set, nil
}

// Exchange runs the whole flow for an authorization code and returns the
// verified identity.
func (e *Exchanger) Exchange(ctx context.Context, code, redirectURI string) (*ExternalIdentity, error) {
	if err := e.CheckRedirectURI(redirectURI); err != nil {
		return nil, err
	}

	doc, err := e.Discover(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := e.ExchangeCode(ctx, doc, code, redirectURI)
	if err != nil {
		return nil, err
	}

	claims, err := e.verifier.Verify(ctx, tokens.IDToken, doc.JWKSURI, e.expectation(doc))
	if err != nil {
		if !errors.Is(err, ErrInvalidIdentityToken) {
			err = fmt.Errorf("%w: %v", ErrInvalidIdentityToken, err)
		}
		return nil, err
	}

	return identityFromClaims(claims)
}

// expectation accepts the discovery issuer with and without its scheme;
// Google issues both "https://accounts.google.com" and "accounts.google.com".
func (e *Exchanger) expectation(doc *DiscoveryDocument) Expectation {
	exp := Expectation{Audience: e.cfg.ClientID, Issuers: []string{doc.Issuer}}
	if bare := strings.TrimPrefix(doc.Issuer, "https://"); bare != doc.Issuer {
		exp.Issuers = append(exp.Issuers, bare)
	}
	return exp
}

func identityFromClaims(claims *IDTokenClaims) (*ExternalIdentity, error) {
	var missing []string
	if claims.Subject == "" {
		missing = append(missing, "sub")
	}
	if strings.TrimSpace(claims.Name) == "" {
		missing = append(missing, "name")
	}
	if claims.Picture == "" {
		missing = append(missing, "picture")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrUnexpectedClaims, strings.Join(missing, ", "))
	}

	return &ExternalIdentity{
		ExternalID:  claims.Subject,
		DisplayName: strings.TrimSpace(claims.Name),
		AvatarURL:   claims.Picture,
	}, nil
}
