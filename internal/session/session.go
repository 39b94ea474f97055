// Package session stores refresh-token sessions keyed by the token's jti so
// refresh tokens can be rotated and revoked.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// Data holds what is stored for each refresh token
type Data struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	Lookup(ctx context.Context, jti string) (Data, error)
	Revoke(ctx context.Context, jti string) error
}

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore is the single-process Store used when Redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, jti string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.entries[jti] = memoryEntry{
		data:      Data{UserID: userID, CreatedAt: s.now()},
		expiresAt: expiresAt,
	}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, jti string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[jti]
	if !ok || !s.now().Before(entry.expiresAt) {
		delete(s.entries, jti)
		return Data{}, ErrSessionNotFound
	}
	return entry.data, nil
}

func (s *MemoryStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, jti)
	return nil
}

// sweep drops expired entries. Caller holds mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for jti, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, jti)
		}
	}
}
