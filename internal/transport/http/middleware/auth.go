package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/relay-service/pkg/httputil"
)

type ctxKey string

const ctxKeyUsername ctxKey = "username"

// Authenticator resolves a bearer token to a username.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware requires "Authorization: Bearer <jwt>" and stores the token's
// username in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				httputil.Failed(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				httputil.Failed(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			username, err := auth.Authenticate(token)
			if err != nil {
				httputil.Failed(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUsername, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func UsernameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUsername).(string); ok {
		return v
	}
	return ""
}
