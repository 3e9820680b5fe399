package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const CookieName = "sessionid"

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns the session id installed by Middleware.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware resolves or issues the session cookie and slides the session
// expiry forward on every request.
func Middleware(log *slog.Logger, store Store, ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CookieName); err == nil && ValidID(c.Value) {
				id = c.Value
				if err := store.Touch(r.Context(), id); err != nil {
					log.WarnContext(r.Context(), "session touch failed", "err", err)
				}
			} else {
				id = NewID()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}
