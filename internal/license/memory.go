package license

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and dev mode when no
// database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	licenses map[string]*License

	// Now is the clock; tests override it to control expiry.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		licenses: make(map[string]*License),
		Now:      time.Now,
	}
}

func (s *MemoryStore) Purchase(_ context.Context, tier string) (*License, error) {
	dur, err := DurationForTier(tier)
	if err != nil {
		return nil, err
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate license key: %w", err)
	}

	now := s.Now()
	lic := &License{
		Key:       key,
		Tier:      tier,
		CreatedAt: now,
		ExpiresAt: now.Add(dur),
	}

	s.mu.Lock()
	s.licenses[key] = lic
	s.mu.Unlock()

	out := *lic
	return &out, nil
}

func (s *MemoryStore) Status(_ context.Context, key string) (*Status, error) {
	s.mu.RLock()
	lic, ok := s.licenses[key]
	s.mu.RUnlock()

	if !ok {
		return &Status{Active: false}, nil
	}
	if lic.Revoked || !lic.ExpiresAt.After(s.Now()) {
		return &Status{Active: false}, nil
	}

	exp := lic.ExpiresAt
	return &Status{Active: true, Tier: lic.Tier, ExpiresAt: &exp}, nil
}

func (s *MemoryStore) RevokeExpired(_ context.Context) (int64, error) {
	now := s.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, lic := range s.licenses {
		if !lic.Revoked && !lic.ExpiresAt.After(now) {
			lic.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() {}
