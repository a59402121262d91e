package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret []byte, method jwt.SigningMethod) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, jwt.MapClaims{"sub": "test"})
	signed, err := tok.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	s := NewServer(newTestEngine(), WithJWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	s := NewServer(newTestEngine(), WithJWTAuth(secret))

	token := signToken(t, secret, jwt.SigningMethodHS256)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine(), WithJWTAuth([]byte("right-secret")))

	token := signToken(t, []byte("wrong-secret"), jwt.SigningMethodHS256)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsUnexpectedSigningMethod(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	s := NewServer(newTestEngine(), WithJWTAuth(secret))

	token := signToken(t, secret, jwt.SigningMethodHS384)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
