package middleware

import (
	"net/http"
	"os"
	"strings"

	"freshbasket-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

var jwtKey = []byte(os.Getenv("SECRET_KEY"))

// AuthMiddleware extracts the user identity from the bearer token, when one is
// present and valid, and stores it on the request context. Token issuance is
// owned by the auth service; this side only consumes claims.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			return jwtKey, nil
		})

		if err != nil || !token.Valid {
			next.ServeHTTP(w, r)
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			ctx := r.Context()
			if uid, ok := claims["user_id"].(float64); ok {
				ctx = utils.WithUserID(ctx, uint(uid))
			}
			if email, ok := claims["email"].(string); ok {
				ctx = utils.WithUserEmail(ctx, email)
			}
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
