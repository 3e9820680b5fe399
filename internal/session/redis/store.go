package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/session"
)

// Store keeps each session in one Redis hash, "session:<id>", so a single
// EXPIRE refreshes every value at once.
type Store struct {
	log *slog.Logger
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(log *slog.Logger, rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{log: log, rdb: rdb, ttl: ttl}
}

func hashKey(id string) string { return "session:" + id }

func (s *Store) Get(ctx context.Context, id, key string) ([]byte, bool, error) {
	v, err := s.rdb.HGet(ctx, hashKey(id), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, id, key string, value []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, hashKey(id), key, value)
		p.Expire(ctx, hashKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id, key string) error {
	if err := s.rdb.HDel(ctx, hashKey(id), key).Err(); err != nil {
		return fmt.Errorf("session clear %s: %w", key, err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id string) error {
	if err := s.rdb.Expire(ctx, hashKey(id), s.ttl).Err(); err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	return nil
}

// releaseScript deletes the lock only if it still carries our token, so a
// holder whose lease expired cannot release somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// renewScript pushes the lease out only while the lock still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

const defaultLease = 10 * time.Second

// Locker is a per-session mutex built on SET NX PX. While a caller holds the
// lock a background renewal keeps the lease alive every lease/3. If a renewal
// fails or finds another token the held context is cancelled, well before
// the last granted lease runs out.
type Locker struct {
	log   *slog.Logger
	rdb   redis.Cmdable
	lease time.Duration
	wait  time.Duration
	retry time.Duration
}

type LockerOption func(*Locker)

// WithLease sets how long a lock survives without renewal.
func WithLease(d time.Duration) LockerOption {
	return func(l *Locker) { l.lease = d }
}

func NewLocker(log *slog.Logger, rdb redis.Cmdable, wait time.Duration, opts ...LockerOption) *Locker {
	l := &Locker{
		log:   log,
		rdb:   rdb,
		lease: defaultLease,
		wait:  wait,
		retry: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func lockKey(id string) string { return "lock:session:" + id }

func (l *Locker) Lock(ctx context.Context, id string) (context.Context, func(), error) {
	token := uuid.NewString()
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		acquired, err := l.rdb.SetNX(ctx, lockKey(id), token, l.lease).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("session lock: %w", err)
		}
		if acquired {
			held, unlock := l.hold(ctx, id, token)
			return held, unlock, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-deadline.C:
			return nil, nil, session.ErrBusy
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) hold(ctx context.Context, id, token string) (context.Context, func()) {
	held, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.renew(held, cancel, id, token)
	}()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			<-done
			// Release with a fresh context: the request context may already be cancelled.
			rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
			defer rcancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{lockKey(id)}, token).Err(); err != nil {
				l.log.Warn("session unlock failed", "err", err)
			}
		})
	}
}

func (l *Locker) renew(held context.Context, cancel context.CancelFunc, id, token string) {
	every := l.lease / 3
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-held.Done():
			return
		case <-ticker.C:
		}

		rctx, rcancel := context.WithTimeout(context.WithoutCancel(held), every)
		n, err := renewScript.Run(rctx, l.rdb, []string{lockKey(id)}, token, l.lease.Milliseconds()).Int()
		rcancel()
		if err != nil || n == 0 {
			l.log.WarnContext(held, "session lock lost", "err", err)
			cancel()
			return
		}
	}
}
