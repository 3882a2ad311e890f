package headerauth

import (
	"fmt"

	"github.com/google/uuid"
)

// OAuthHandoff is the APPOAUTH payload: a provider authorization code plus the
// redirect URI the authorization URL was built with.
type OAuthHandoff struct {
	Code        string
	RedirectURI string
}

// SessionCredential is the APPSESS payload: a session id and its signature.
type SessionCredential struct {
	Signature string
	ID        uuid.UUID
}

// BuildOAuthHandoff encodes an APPOAUTH header value.
func BuildOAuthHandoff(h OAuthHandoff) (string, error) {
	return Build(SchemeOAuth, map[string]string{
		"code":        h.Code,
		"redirectUri": h.RedirectURI,
	})
}

// ParseOAuthHandoff decodes an APPOAUTH header value.
func ParseOAuthHandoff(headerValue string) (*OAuthHandoff, error) {
	creds, err := Parse(SchemeOAuth, headerValue)
	if err != nil {
		return nil, err
	}
	return &OAuthHandoff{
		Code:        creds.Get("code"),
		RedirectURI: creds.Get("redirectUri"),
	}, nil
}

// BuildSessionCredential encodes an APPSESS header value.
func BuildSessionCredential(id uuid.UUID, signature string) (string, error) {
	return Build(SchemeSession, map[string]string{
		"id":        id.String(),
		"signature": signature,
	})
}

// ParseSessionCredential decodes an APPSESS header value.
func ParseSessionCredential(headerValue string) (*SessionCredential, error) {
	creds, err := Parse(SchemeSession, headerValue)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(creds.Get("id"))
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrInvalidParams, err)
	}
	return &SessionCredential{ID: id, Signature: creds.Get("signature")}, nil
}
