package auth_test

import (
	"context"
	"testing"
	"time"

	"taeu.kr/kirosumi/internal/account"
	accountstore "taeu.kr/kirosumi/internal/account/store"
	"taeu.kr/kirosumi/internal/auth"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/session"
)

const (
	testAdminUsername = "admin-test"
	testAdminPassword = "admin-test-password"
	testUserUsername  = "member-test"
	testUserPassword  = "member-test-password"
)

func testConfig() auth.Config {
	return auth.Config{
		Secret:         "test-secret-key",
		Issuer:         "kirosumi-test",
		AccessTokenTTL: 15 * time.Minute,
		RefreshTTL:     24 * time.Hour,
		AllowSignup:    true,
	}
}

func setupAuthTestService(t *testing.T) (*auth.Service, *account.Service, *database.DB) {
	t.Helper()

	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	accountSvc := account.NewService(accountstore.NewStore(db))
	authSvc := auth.NewService(accountSvc, session.NewMemoryStore(), testConfig())

	return authSvc, accountSvc, db
}

func seedAuthUsers(t *testing.T, accountSvc *account.Service) (*account.User, *account.User) {
	t.Helper()

	ctx := context.Background()

	admin, err := accountSvc.BootstrapInitialAdmin(ctx, &account.CreateUserRequest{
		Username: testAdminUsername,
		Password: testAdminPassword,
		Nickname: "Admin Tester",
	})
	if err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	user, err := accountSvc.CreateUser(ctx, &account.CreateUserRequest{
		Username: testUserUsername,
		Password: testUserPassword,
		Nickname: "Member Tester",
		Role:     account.RoleUser,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return admin, user
}
