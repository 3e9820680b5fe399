package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. It backs tests and single-instance
// development runs; it implements both Store and Locker.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memSession
	locks    map[string]chan struct{}
}

type memSession struct {
	values    map[string][]byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memSession),
		locks:    make(map[string]chan struct{}),
	}
}

func (m *MemoryStore) live(id string) *memSession {
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if m.now().After(s.expiresAt) {
		delete(m.sessions, id)
		return nil
	}
	return s
}

func (m *MemoryStore) Get(ctx context.Context, id, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.live(id)
	if s == nil {
		return nil, false, nil
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, id, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.live(id)
	if s == nil {
		s = &memSession{values: make(map[string][]byte)}
		m.sessions[id] = s
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	s.expiresAt = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.live(id); s != nil {
		delete(s.values, key)
	}
	return nil
}

func (m *MemoryStore) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.live(id); s != nil {
		s.expiresAt = m.now().Add(m.ttl)
	}
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, id string) (context.Context, func(), error) {
	for {
		m.mu.Lock()
		other, busy := m.locks[id]
		if !busy {
			ch := make(chan struct{})
			m.locks[id] = ch
			m.mu.Unlock()
			held, cancel := context.WithCancel(ctx)
			var once sync.Once
			return held, func() {
				once.Do(func() {
					cancel()
					m.mu.Lock()
					delete(m.locks, id)
					m.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		m.mu.Unlock()

		select {
		case <-other:
		case <-ctx.Done():
			return nil, nil, ErrBusy
		}
	}
}
