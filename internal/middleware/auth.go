package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	"github.com/calebmorrow/daylight/backend/pkg/utils"
)

type contextKey string

const observerKey contextKey = "observer"

// WithObserver returns a context carrying a verified observer identity.
// Handlers under RequireObserver get this for free; tests use it directly.
func WithObserver(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, observerKey, claims)
}

// ObserverFromContext retrieves the verified observer identity placed by
// RequireObserver.
func ObserverFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(observerKey).(auth.Claims)
	return claims, ok
}

// RequireObserver rejects requests without a valid bearer credential. A 401
// here is the signal that forces the client to clear its credential and
// return to login.
func RequireObserver(cfg auth.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				// Websocket clients cannot set headers from browsers; accept
				// the token as a query parameter there.
				token = r.URL.Query().Get("token")
			}
			claims, err := auth.Verify(cfg, token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired credential")
				return
			}
			ctx := context.WithValue(r.Context(), observerKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
