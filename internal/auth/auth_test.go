package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "recap-tests"}

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       "user-1",
		"iss":       testConfig.Issuer,
		"workspace": "acme",
		"scopes":    []string{ScopeRecapsRead, ""},
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseValidToken(t *testing.T) {
	claims, err := Parse(sign(t, validClaims(), testConfig.Secret), testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "acme", claims.Workspace)
	require.True(t, claims.HasScope(ScopeRecapsRead))
	require.False(t, claims.HasScope(ScopeRecapsWrite))
	require.True(t, claims.HasAnyScope(ScopeRecapsWrite, ScopeRecapsRead))
	require.Len(t, claims.Scopes, 1)
}

func TestParseScopeString(t *testing.T) {
	c := validClaims()
	c["scopes"] = "recaps:read  recaps:write"
	claims, err := Parse(sign(t, c, testConfig.Secret), testConfig)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeRecapsWrite))
	require.Len(t, claims.Scopes, 2)
}

func TestParseRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	noSubject := validClaims()
	delete(noSubject, "sub")

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	cases := map[string]string{
		"expired":     sign(t, expired, testConfig.Secret),
		"issuer":      sign(t, wrongIssuer, testConfig.Secret),
		"subject":     sign(t, noSubject, testConfig.Secret),
		"expiry":      sign(t, noExpiry, testConfig.Secret),
		"bad secret":  sign(t, validClaims(), "other"),
		"not a token": "abc.def.ghi",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(token, testConfig)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)

	var nilClaims *Claims
	require.False(t, nilClaims.HasScope(ScopeRecapsRead))
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig, SkipProbes).Wrap(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/recaps/preview", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, `Bearer realm="recap"`, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/v1/recaps/preview", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), `error="invalid_token"`)

	req = httptest.NewRequest(http.MethodGet, "/v1/recaps/preview", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims(), testConfig.Secret))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-1", seen.Subject)
	require.Equal(t, "user-1", Subject(req.WithContext(WithClaims(req.Context(), seen)).Context()))

	seen = nil
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Nil(t, seen)
}

func TestFromContextIgnoresNilClaims(t *testing.T) {
	ctx := WithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil)
	_, ok := FromContext(ctx)
	require.False(t, ok)
	require.Empty(t, Subject(ctx))
}
