package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "spillit-client.apps.googleusercontent.com"
	testClientSecret = "spillit-secret"
	testCode         = "4/0AX4XfWh-test-code"
	testRedirectURI  = "https://spill.it/login/callback"
)

// fakeProvider is an in-process OpenID provider with discovery, token and
// JWKS endpoints.
type fakeProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	mu          sync.Mutex
	kid         string
	idTokenFunc func(p *fakeProvider) string
	tokenBody   map[string]interface{}
	tokenStatus int

	discoveryHits atomic.Int32
	tokenHits     atomic.Int32
	jwksHits      atomic.Int32
	lastTokenForm map[string]string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{key: key, kid: "key-1", tokenStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		p.discoveryHits.Add(1)
		writeJSON(w, http.StatusOK, DiscoveryDocument{
			Issuer:                p.server.URL,
			AuthorizationEndpoint: p.server.URL + "/o/oauth2/v2/auth",
			TokenEndpoint:         p.server.URL + "/token",
			JWKSURI:               p.server.URL + "/oauth2/v3/certs",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenHits.Add(1)
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}

		p.mu.Lock()
		p.lastTokenForm = map[string]string{}
		for k := range r.PostForm {
			p.lastTokenForm[k] = r.PostForm.Get(k)
		}
		status, body := p.tokenStatus, p.tokenBody
		p.mu.Unlock()

		if r.PostForm.Get("code") != testCode || r.PostForm.Get("redirect_uri") != testRedirectURI ||
			r.PostForm.Get("client_id") != testClientID || r.PostForm.Get("client_secret") != testClientSecret {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		if body == nil {
			body = map[string]interface{}{
				"access_token": "ya29.access",
				"expires_in":   3599,
				"scope":        "openid profile",
				"token_type":   "Bearer",
				"id_token":     p.idToken(),
			}
		}
		writeJSON(w, status, body)
	})
	mux.HandleFunc("/oauth2/v3/certs", func(w http.ResponseWriter, r *http.Request) {
		p.jwksHits.Add(1)
		p.mu.Lock()
		kid := p.kid
		p.mu.Unlock()

		pub, err := jwk.FromRaw(&p.key.PublicKey)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = pub.Set(jwk.KeyIDKey, kid)
		_ = pub.Set(jwk.AlgorithmKey, "RS256")
		set := jwk.NewSet()
		_ = set.AddKey(pub)
		writeJSON(w, http.StatusOK, set)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) discoveryURL() string {
	return p.server.URL + "/.well-known/openid-configuration"
}

func (p *fakeProvider) idToken() string {
	p.mu.Lock()
	fn := p.idTokenFunc
	p.mu.Unlock()
	if fn != nil {
		return fn(p)
	}
	return p.sign(p.defaultClaims(), p.key, p.currentKid())
}

func (p *fakeProvider) currentKid() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kid
}

func (p *fakeProvider) defaultClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":     p.server.URL,
		"aud":     testClientID,
		"sub":     "g123",
		"name":    "Jane Doe",
		"picture": "http://x/p.png",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
}

func (p *fakeProvider) sign(claims jwt.MapClaims, key *rsa.PrivateKey, kid string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *fakeProvider) config() Config {
	return Config{
		ClientID:            testClientID,
		ClientSecret:        testClientSecret,
		DiscoveryURL:        p.discoveryURL(),
		Scopes:              []string{"openid", "profile"},
		AllowedRedirectURIs: []string{testRedirectURI},
	}
}

func (p *fakeProvider) exchanger(t *testing.T) *Exchanger {
	t.Helper()
	client := p.server.Client()
	e, err := NewExchanger(p.config(), NewMemoryDiscoveryCache(4, time.Hour), NewJWKSVerifier(client, time.Hour), client)
	require.NoError(t, err)
	return e
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
