package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey keeps identity values private to this package so no other
// package can shadow them.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication: a missing or invalid token stops the
// chain with 401. The verified identity lands in the request context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present but never
// blocks the request. Anonymous callers pass through untouched.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := extractIdentity(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the authenticated caller, or ok=false for an
// anonymous request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.UserID != ""
}

// extractIdentity reads the token from the HttpOnly cookie set at sign-in,
// falling back to an Authorization bearer header for non-browser clients.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return tokens.Validate(token)
	}

	return Identity{}, http.ErrNoCookie
}
