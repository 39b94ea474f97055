package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"taeu.kr/kirosumi/internal/account"
)

func setupHandler(t *testing.T) (*http.ServeMux, *account.Service) {
	t.Helper()
	svc, _ := setupService(t)
	mux := http.NewServeMux()
	account.NewHandler(svc).RegisterRoutes(mux)
	return mux, svc
}

func TestHandler_CreateAndList(t *testing.T) {
	mux, _ := setupHandler(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"username":"dave","password":"secret123"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not include password fields: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var users []account.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 1 || users[0].Username != "dave" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestHandler_ErrorStatuses(t *testing.T) {
	mux, svc := setupHandler(t)
	ctx := context.Background()

	admin, err := svc.BootstrapInitialAdmin(ctx, &account.CreateUserRequest{Username: "root", Password: "secret123"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "invalid body", method: http.MethodPost, path: "/api/accounts", body: "{", want: http.StatusBadRequest},
		{name: "validation", method: http.MethodPost, path: "/api/accounts", body: `{"username":"x","password":"secret123"}`, want: http.StatusBadRequest},
		{name: "duplicate", method: http.MethodPost, path: "/api/accounts", body: `{"username":"root","password":"secret123"}`, want: http.StatusConflict},
		{name: "bad id", method: http.MethodDelete, path: "/api/accounts/abc", want: http.StatusBadRequest},
		{name: "missing user", method: http.MethodDelete, path: "/api/accounts/999", want: http.StatusNotFound},
		{name: "last admin", method: http.MethodDelete, path: "/api/accounts/" + strconv.FormatInt(admin.ID, 10), want: http.StatusConflict},
		{name: "update missing", method: http.MethodPatch, path: "/api/accounts/999", body: `{"nickname":"x"}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_UpdateNickname(t *testing.T) {
	mux, svc := setupHandler(t)
	user, err := svc.CreateUser(context.Background(), &account.CreateUserRequest{Username: "erin", Password: "secret123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := httptest.NewRecorder()
	path := "/api/accounts/" + strconv.FormatInt(user.ID, 10)
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"nickname":"Erin"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated account.User
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Nickname != "Erin" {
		t.Fatalf("expected nickname Erin, got %q", updated.Nickname)
	}
}
