package services

import (
	"net/http"

	"github.com/desertthunder/ivx/internal/shared"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// boundSource reads the token from whatever [Session] is bound to the gateway at send time.
type boundSource struct {
	g *Gateway
}

func (b boundSource) Token() (*oauth2.Token, error) {
	s := b.g.boundSession()
	if s == nil {
		return nil, nil
	}
	return s.Token()
}

// bearerTransport is the outbound interceptor.
type bearerTransport struct {
	next   http.RoundTripper
	source oauth2.TokenSource
}

// RoundTrip sets the bearer credential when a token is present. A missing token, or a source error,
// sends the request unauthenticated.
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if out.Header.Get(requestIDHeader) == "" {
		out.Header.Set(requestIDHeader, shared.GenerateID())
	}

	if tok, err := t.source.Token(); err == nil && tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(out)
	}

	return t.next.RoundTrip(out)
}

// unauthorizedTransport is the inbound interceptor.
type unauthorizedTransport struct {
	next           http.RoundTripper
	onUnauthorized func(*http.Request)
}

// RoundTrip runs onUnauthorized for every 401 and returns the response untouched.
func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
		t.onUnauthorized(req)
	}

	return resp, nil
}
