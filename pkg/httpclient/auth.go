package httpclient

import (
	"encoding/base64"
	"net/http"
)

// Auth applies authentication to an outgoing request.
type Auth interface {
	Apply(req *http.Request)
}

// NoAuth leaves requests unauthenticated.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

// HeaderToken sends a token in a named header. The design tool expects its
// token in X-Figma-Token rather than an Authorization header.
type HeaderToken struct {
	Header string
	Token  string
}

// Apply sets the configured header when a token is present.
func (a HeaderToken) Apply(req *http.Request) {
	if a.Token == "" || a.Header == "" {
		return
	}
	req.Header.Set(a.Header, a.Token)
}

// BasicAuth uses HTTP Basic authentication with username/token credentials.
// Atlassian cloud APIs authenticate this way using email:api-token.
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds the Basic auth header when credentials are present.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds the Bearer token header when a token is present.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}
