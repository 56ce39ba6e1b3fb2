package httpx

import (
	"net/http"
	"strings"

	"github.com/ariefcatur/go-stockorders/internal/auth"
)

type Authenticator interface {
	Authenticate(raw string) (auth.Principal, error)
}

// RequireAuth resolves the bearer token into an auth.Principal carried by
// the request context.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeMsg(w, http.StatusUnauthorized, "authorization header required")
				return
			}
			p, err := a.Authenticate(strings.TrimSpace(raw))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeMsg(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
