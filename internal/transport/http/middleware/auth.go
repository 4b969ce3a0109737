package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-otp-auth/internal/domain"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
)

type contextKey string

const UserKey contextKey = "user"

// UserLoader resolves the token subject to a stored account.
type UserLoader interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Auth returns middleware that validates the Bearer access token, loads the
// account it names, and injects it into the request context. An expired token
// is reported distinctly from an invalid one so clients know to log in again
// rather than treat it as a bug.
func Auth(provider *jwtinfra.Provider, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			email, err := provider.VerifyAccess(tokenStr)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					writeJSONError(w, http.StatusUnauthorized, "token expired")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			u, err := users.GetByEmail(r.Context(), email)
			if err != nil || !u.Active || u.DeletedAt != nil {
				writeJSONError(w, http.StatusUnauthorized, "account not available")
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserKey).(*domain.User)
	return u, ok
}
