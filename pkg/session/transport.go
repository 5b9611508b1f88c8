package session

import (
	"net/http"
	"time"
)

// Transport moves session tokens between the server and the client.
type Transport interface {
	// GetToken extracts the session token from the request.
	GetToken(r *http.Request) (string, error)

	// SetToken writes the session token to the response.
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session token from the response.
	ClearToken(w http.ResponseWriter) error
}

// DefaultHeaderName is the header used by the header transport when none
// is configured.
const DefaultHeaderName = "X-Session-Token"

// HeaderTransport carries the session token in a request/response header.
// Suited to API clients that manage the token themselves.
type HeaderTransport struct {
	header string
}

// NewHeaderTransport creates a header transport. An empty header name
// falls back to DefaultHeaderName.
func NewHeaderTransport(header string) *HeaderTransport {
	if header == "" {
		header = DefaultHeaderName
	}
	return &HeaderTransport{header: header}
}

func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	token := r.Header.Get(t.header)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, _ time.Duration) error {
	w.Header().Set(t.header, token)
	return nil
}

func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.header)
	return nil
}

// DefaultCookieName is the cookie used by the cookie transport when none
// is configured.
const DefaultCookieName = "session_token"

// CookieTransport carries the session token in an HTTP-only cookie.
type CookieTransport struct {
	name   string
	secure bool
}

// NewCookieTransport creates a cookie transport. An empty cookie name
// falls back to DefaultCookieName.
func NewCookieTransport(name string, secure bool) *CookieTransport {
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieTransport{name: name, secure: secure}
}

func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(t.name)
	if err != nil || c.Value == "" {
		return "", ErrNoToken
	}
	return c.Value, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
