package middleware

import (
	"context"
	"net/http"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// TokenVerifier verifies the caller's user token from request headers and
// returns their user id. Satisfied by *whop.Client.
type TokenVerifier interface {
	VerifyUserToken(header http.Header) (string, error)
}

// AuthMiddleware verifies the Whop user token and embeds the user id into
// the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.VerifyUserToken(r.Header)
			if err != nil {
				http.Error(w, "Authentication failed", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id from the request context.
func UserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserContextKey).(string)
	return userID, ok && userID != ""
}
