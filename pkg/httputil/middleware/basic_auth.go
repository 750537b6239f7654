package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/crudr/crudr/pkg/httputil"
)

// BasicAuth guards every wrapped route with static username/password pairs.
// The authenticated username is stored in the request context under
// httputil.BasicAuthCtxKey.
func BasicAuth(credentials map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(authHeader, "Basic ") {
				http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
			if err != nil {
				http.Error(w, "Invalid base64 encoding", http.StatusUnauthorized)
				return
			}
			username, password, ok := strings.Cut(string(decoded), ":")
			if !ok {
				http.Error(w, "Invalid credentials format", http.StatusUnauthorized)
				return
			}

			if validPassword, known := credentials[username]; !known || validPassword != password {
				w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), httputil.BasicAuthCtxKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
