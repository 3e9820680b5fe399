// Package auth resolves the caller from an HS256 bearer token. Accounts and
// sign-in live elsewhere; this package only trusts tokens signed with the
// shared secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

var (
	ErrUnauthenticated = apperr.New(apperr.KindUnauthorized, "authentication required")
	ErrForbidden       = apperr.New(apperr.KindForbidden, "administrator access required")
)

type User struct {
	ID    string
	Admin bool
}

type claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin,omitempty"`
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID. It backs tests and local tooling.
func (v *Verifier) Issue(userID string, admin bool, ttl time.Duration) (string, error) {
	now := v.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Admin: admin,
	})
	s, err := tok.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (v *Verifier) Verify(token string) (User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindUnauthorized, ErrUnauthenticated.Message, err)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return User{}, ErrUnauthenticated
	}
	return User{ID: c.Subject, Admin: c.Admin}, nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}

// Authenticate installs the token's user in the request context. Requests
// without a token pass through anonymously; a bad token is rejected.
func Authenticate(log *slog.Logger, v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.WriteError(w, r, log, ErrUnauthenticated)
				return
			}
			u, err := v.Verify(token)
			if err != nil {
				httpx.WriteError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func RequireUser(log *slog.Logger) func(http.Handler) http.Handler {
	return guard(log, func(User) error { return nil })
}

func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return guard(log, func(u User) error {
		if !u.Admin {
			return ErrForbidden
		}
		return nil
	})
}

func guard(log *slog.Logger, check func(User) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, r, log, ErrUnauthenticated)
				return
			}
			if err := check(u); err != nil {
				httpx.WriteError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsUnauthenticated reports whether err came from a missing or bad token.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
