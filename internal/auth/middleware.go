package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Scopes understood by the recap API.
const (
	ScopeRecapsRead  = "recaps:read"
	ScopeRecapsWrite = "recaps:write"
)

// Skipper reports requests that bypass authentication.
type Skipper func(r *http.Request) bool

// SkipProbes lets health and metrics scrapes through unauthenticated.
func SkipProbes(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return true
	}
	return false
}

// Middleware authenticates bearer tokens and stores the claims on the
// request context.
type Middleware struct {
	Config  Config
	Skipper Skipper
}

// NewMiddleware constructs a Middleware. skipper may be nil.
func NewMiddleware(cfg Config, skipper Skipper) Middleware {
	return Middleware{Config: cfg, Skipper: skipper}
}

// Wrap rejects unauthenticated requests to next with 401.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.authenticate(r)
		if err != nil {
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) authenticate(r *http.Request) (*Claims, error) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	switch {
	case scheme == "":
		return nil, ErrMissingToken
	case !found || !strings.EqualFold(scheme, "bearer"):
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidToken, scheme)
	}
	return Parse(token, m.Config)
}

// unauthorized follows RFC 6750: no error attribute when credentials were
// missing, invalid_token otherwise.
func unauthorized(w http.ResponseWriter, err error) {
	challenge := `Bearer realm="recap"`
	if !errors.Is(err, ErrMissingToken) {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": "unauthorized", "message": err.Error()})
}
