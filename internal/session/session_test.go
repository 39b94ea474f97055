package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), s
}

func TestRedisStore_SaveLookupRevoke(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "jti-1", 42, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !s.Exists("kirosumi:refresh:jti-1") {
		t.Fatal("expected prefixed key in redis")
	}

	data, err := store.Lookup(ctx, "jti-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if data.UserID != 42 {
		t.Fatalf("expected user 42, got %d", data.UserID)
	}

	if err := store.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := store.Lookup(ctx, "jti-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after revoke, got %v", err)
	}
	if err := store.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoking a missing session should not fail: %v", err)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "short", 1, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.FastForward(2 * time.Minute)

	if _, err := store.Lookup(ctx, "short"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestRedisStore_RejectsExpiredSave(t *testing.T) {
	store, _ := setupTestRedis(t)
	if err := store.Save(context.Background(), "old", 1, time.Now().Add(-time.Second)); err == nil {
		t.Fatal("expected error for already expired session")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, "a", 1, now.Add(time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "b", 2, now.Add(time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := store.Lookup(ctx, "b")
	if err != nil || data.UserID != 2 {
		t.Fatalf("unexpected lookup result %+v, %v", data, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Lookup(ctx, "b"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected b to expire, got %v", err)
	}
	if _, err := store.Lookup(ctx, "a"); err != nil {
		t.Fatalf("expected a to survive: %v", err)
	}

	_ = store.Revoke(ctx, "a")
	if _, err := store.Lookup(ctx, "a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected a revoked, got %v", err)
	}
}
