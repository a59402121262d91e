package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// requireBearerJWT rejects any request without a valid "Bearer <token>"
// Authorization header signed with secret. It is an optional middleware
// (§10/12 ambient stack, auth is opt-in via config.HighlightOptions.HTTPAuthJWT)
// — the unauthenticated server is a fully supported deployment shape for
// callers behind their own edge auth.
func requireBearerJWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := bearerToken(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "missing or malformed bearer token")
				return
			}

			_, err = jwt.Parse(tok, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errMissingBearer
	}
	return strings.TrimPrefix(header, prefix), nil
}

var errMissingBearer = jwtAuthError("missing bearer token")

type jwtAuthError string

func (e jwtAuthError) Error() string { return string(e) }
