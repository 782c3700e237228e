package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pulsesignals/contract-relay/internal/storage"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Store is an in-memory implementation of storage.KV and storage.EventLog
// used by tests in place of Redis. The clock is overridable so TTL expiry
// can be exercised without sleeping.
type Store struct {
	mu     sync.RWMutex
	kv     map[string]entry
	log    []string
	hashes map[string]map[string]string
	maxLog int

	// Now is the clock used for TTL checks. Tests may replace it.
	Now func() time.Time
}

func NewStore(maxLog int) *Store {
	return &Store{
		kv:     make(map[string]entry),
		hashes: make(map[string]map[string]string),
		maxLog: maxLog,
		Now:    time.Now,
	}
}

var (
	_ storage.KV       = (*Store)(nil)
	_ storage.EventLog = (*Store)(nil)
)

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.kv[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.Now().Before(e.expiresAt) {
		return "", storage.ErrNotFound
	}
	return e.value, nil
}

func (s *Store) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kv[key] = entry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *Store) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.kv[key]; ok {
		if e.expiresAt.IsZero() || s.Now().Before(e.expiresAt) {
			return false, nil
		}
	}
	s.kv[key] = entry{value: value, expiresAt: s.Now().Add(ttl)}
	return true, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.kv, key)
	return nil
}

func (s *Store) Push(_ context.Context, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append([]string{payload}, s.log...)
	if s.maxLog > 0 && len(s.log) > s.maxLog {
		s.log = s.log[:s.maxLog]
	}
	return nil
}

func (s *Store) Entries(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.log))
	copy(out, s.log)
	return out, nil
}

func (s *Store) Hash(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// HSet populates a legacy hash. Test seeding helper; the server never writes
// the legacy hashes, only the producer did.
func (s *Store) HSet(key, field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	s.hashes[key][field] = value
}
