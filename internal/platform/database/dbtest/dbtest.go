// Package dbtest provides in-memory database fixtures for store tests.
package dbtest

import (
	"context"
	"testing"

	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
)

// Open은 테스트 종료 시 닫히는 마이그레이션된 in-memory DB를 엽니다
func Open(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedUser는 최소 필드만 채운 사용자를 만들고 id를 반환합니다
func SeedUser(t *testing.T, db *database.DB, username string) int64 {
	t.Helper()

	now := database.Now()
	var id int64
	err := db.QueryRowContext(context.Background(),
		db.Rebind("INSERT INTO users (public_id, username, password_hash, nickname, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id"),
		pubid.New(pubid.User), username, "x", username, "user", now, now,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return id
}

// SeedSpace는 space를 만들고 내부 id와 public id를 반환합니다
func SeedSpace(t *testing.T, db *database.DB, userID int64, name string, isDefault bool) (int64, string) {
	t.Helper()

	publicID := pubid.New(pubid.Space)
	var id int64
	err := db.QueryRowContext(context.Background(),
		db.Rebind("INSERT INTO spaces (public_id, user_id, name, is_default, is_system, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id"),
		publicID, userID, name, isDefault, false, database.Now(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed space %s: %v", name, err)
	}
	return id, publicID
}
