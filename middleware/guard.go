// Package middleware provides the net/http request guard that fronts every
// protected flow. Public flows (login, forgot-password, reset-password) are
// simply not wrapped.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	authkit "github.com/halcyon-labs/authkit"
)

// Guard returns middleware that authenticates the Authorization header
// against the engine and attaches the resolved identity to the request
// context. Malformed prefix material is a 403; everything else that fails
// is a 401.
func Guard(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerCredential(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.Authenticate(raw)
			if err != nil {
				if errors.Is(err, authkit.ErrForbiddenToken) {
					http.Error(w, "Invalid token", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authkit.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerCredential(value string) (string, bool) {
	const scheme = "Bearer "
	if !strings.HasPrefix(value, scheme) {
		return "", false
	}

	credential := value[len(scheme):]
	if credential == "" {
		return "", false
	}

	return credential, true
}
