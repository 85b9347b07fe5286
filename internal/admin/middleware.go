package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RequireSecret gates a route group behind the admin secret. The bearer
// value may be the raw secret or a token issued by Login. With no secret
// configured every request is refused with a 500, not silently allowed.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Admin not configured"})
				return
			}

			header := r.Header.Get("Authorization")
			bearer, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || bearer == "" {
				respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
				return
			}

			if subtle.ConstantTimeCompare([]byte(bearer), []byte(secret)) == 1 || validToken(bearer, secret) {
				next.ServeHTTP(w, r)
				return
			}
			respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		})
	}
}

func validToken(tokenString, secret string) bool {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return err == nil && token.Valid
}
