// Package session is the per-visitor key/value state the cart lives in.
//
// A session is addressed by an opaque id carried in the "sessionid" cookie.
// Values expire together after the configured TTL, which every request
// refreshes. Mutations of one session are serialized through a Locker so two
// tabs of the same browser cannot interleave a read-modify-write.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

const DefaultTTL = 7 * 24 * time.Hour

var ErrBusy = apperr.New(apperr.KindConflict, "your session is busy, please retry")

type Store interface {
	Get(ctx context.Context, id, key string) ([]byte, bool, error)
	Set(ctx context.Context, id, key string, value []byte) error
	Clear(ctx context.Context, id, key string) error
	// Touch pushes the expiry of every key of the session TTL into the future.
	Touch(ctx context.Context, id string) error
}

type Locker interface {
	// Lock blocks until the session is held by the caller or the wait budget
	// is spent, in which case it returns ErrBusy. Work done under the lock
	// must run on held: it is cancelled on unlock and as soon as the hold
	// can no longer be guaranteed.
	Lock(ctx context.Context, id string) (held context.Context, unlock func(), err error)
}

func NewID() string {
	return uuid.NewString()
}

func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
