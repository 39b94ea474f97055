package auth_test

import (
	"context"
	"errors"
	"testing"

	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/auth"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/session"
)

func TestLogin_IssuesTokenPair_OnValidCredentials(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	_, seededUser := seedAuthUsers(t, accountSvc)

	tokenPair, user, err := authSvc.Login(context.Background(), testUserUsername, testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tokenPair == nil || tokenPair.AccessToken == "" || tokenPair.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair, got %#v", tokenPair)
	}
	if user == nil || user.Username != seededUser.Username {
		t.Fatalf("expected user %q, got %#v", seededUser.Username, user)
	}

	accessClaims, err := authSvc.ParseToken(tokenPair.AccessToken, "access")
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if accessClaims.UserID != seededUser.ID || accessClaims.PublicID != seededUser.PublicID {
		t.Fatalf("unexpected access claims: %+v", accessClaims)
	}

	refreshClaims, err := authSvc.ParseToken(tokenPair.RefreshToken, "refresh")
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if refreshClaims.ID == "" {
		t.Fatal("expected refresh token to carry a jti")
	}
	if refreshClaims.ID == accessClaims.ID {
		t.Fatal("expected distinct token ids")
	}
}

func TestLogin_ReturnsInvalidCredentials_OnWrongPassword(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	seedAuthUsers(t, accountSvc)

	_, _, err := authSvc.Login(context.Background(), testUserUsername, "wrong-password")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestParseToken_RejectsForeignIssuerAndSecret(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	_, user := seedAuthUsers(t, accountSvc)

	otherCfg := testConfig()
	otherCfg.Secret = "another-secret"
	other := auth.NewService(accountSvc, nil, otherCfg)
	pair, err := other.IssueTokenPair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := authSvc.ParseToken(pair.AccessToken, "access"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	otherCfg = testConfig()
	otherCfg.Issuer = "someone-else"
	other = auth.NewService(accountSvc, nil, otherCfg)
	pair, err = other.IssueTokenPair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := authSvc.ParseToken(pair.AccessToken, "access"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	seedAuthUsers(t, accountSvc)

	tokenPair, _, err := authSvc.Login(context.Background(), testUserUsername, testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	_, _, err = authSvc.Refresh(context.Background(), tokenPair.AccessToken)
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_RotatesSession(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	seedAuthUsers(t, accountSvc)
	ctx := context.Background()

	tokenPair, loggedInUser, err := authSvc.Login(ctx, testUserUsername, testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	newPair, refreshedUser, err := authSvc.Refresh(ctx, tokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if newPair.RefreshToken == tokenPair.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}
	if refreshedUser.ID != loggedInUser.ID {
		t.Fatalf("expected refreshed user id %d, got %d", loggedInUser.ID, refreshedUser.ID)
	}

	// 이미 사용한 refresh 토큰은 다시 쓸 수 없다
	if _, _, err := authSvc.Refresh(ctx, tokenPair.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected reused refresh token to be rejected, got %v", err)
	}
	if _, _, err := authSvc.Refresh(ctx, newPair.RefreshToken); err != nil {
		t.Fatalf("rotated token should work: %v", err)
	}
}

func TestLogout_RevokesRefreshSession(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	seedAuthUsers(t, accountSvc)
	ctx := context.Background()

	tokenPair, _, err := authSvc.Login(ctx, testUserUsername, testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := authSvc.Logout(ctx, tokenPair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := authSvc.Refresh(ctx, tokenPair.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
	if err := authSvc.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("logout with invalid token should be a no-op: %v", err)
	}
}

func TestRefresh_RejectsDeletedUser(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	_, user := seedAuthUsers(t, accountSvc)
	ctx := context.Background()

	tokenPair, _, err := authSvc.Login(ctx, testUserUsername, testUserPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := accountSvc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, _, err := authSvc.Refresh(ctx, tokenPair.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

type countingProvisioner struct{ calls int }

func (p *countingProvisioner) ProvisionUser(context.Context, int64) error {
	p.calls++
	return nil
}

func TestSignup(t *testing.T) {
	authSvc, accountSvc, _ := setupAuthTestService(t)
	prov := &countingProvisioner{}
	accountSvc.SetProvisioner(prov)
	ctx := context.Background()

	pair, user, err := authSvc.Signup(ctx, auth.SignupRequest{Username: "newbie", Password: "secret123", DisplayName: "New Bie"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if pair.AccessToken == "" || user.Nickname != "New Bie" || user.Role != account.RoleUser {
		t.Fatalf("unexpected signup result: %#v %#v", pair, user)
	}
	if prov.calls != 1 {
		t.Fatalf("expected provisioning once, got %d", prov.calls)
	}

	if _, _, err := authSvc.Signup(ctx, auth.SignupRequest{Username: "newbie", Password: "secret123"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}

	cfg := testConfig()
	cfg.AllowSignup = false
	closed := auth.NewService(accountSvc, session.NewMemoryStore(), cfg)
	if _, _, err := closed.Signup(ctx, auth.SignupRequest{Username: "late", Password: "secret123"}); !errors.Is(err, auth.ErrSignupDisabled) {
		t.Fatalf("expected ErrSignupDisabled, got %v", err)
	}
}
