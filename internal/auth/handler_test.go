package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taeu.kr/kirosumi/internal/auth"
	"taeu.kr/kirosumi/internal/rpc"
)

func setupAuthMux(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()
	authSvc, accountSvc, _ := setupAuthTestService(t)
	seedAuthUsers(t, accountSvc)

	h := auth.NewHandler(authSvc)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	router := rpc.NewRouter(auth.RPCSession)
	h.RegisterProcedures(router)
	router.RegisterRoutes(mux)

	return authSvc.Middleware(mux), authSvc
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandler_LoginRefreshLogout(t *testing.T) {
	handler, _ := setupAuthMux(t)

	rec := httptest.NewRecorder()
	body := `{"username":"` + testUserUsername + `","password":"` + testUserPassword + `"}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	access := cookieByName(rec, auth.AccessCookieName)
	refresh := cookieByName(rec, auth.RefreshCookieName)
	if access == nil || refresh == nil {
		t.Fatal("expected both auth cookies")
	}
	if !access.HttpOnly || refresh.Path != "/api/auth" {
		t.Fatalf("unexpected cookie attributes: %+v %+v", access, refresh)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(access)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), testUserUsername) {
		t.Fatalf("me: unexpected %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", rec.Code)
	}
	rotated := cookieByName(rec, auth.RefreshCookieName)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(rotated)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(rotated)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", rec.Code)
	}
}

func TestHandler_LoginRejectsBadCredentials(t *testing.T) {
	handler, _ := setupAuthMux(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"x","password":"y"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_Signup(t *testing.T) {
	handler, _ := setupAuthMux(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"username":"fresh","password":"secret123","displayName":"Fresh"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if cookieByName(rec, auth.AccessCookieName) == nil {
		t.Fatal("expected signup to log the user in")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"username":"fresh","password":"secret123"}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"username":"no","password":"secret123"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short username, got %d", rec.Code)
	}
}

func TestHandler_PrivateDataProcedure(t *testing.T) {
	handler, authSvc := setupAuthMux(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trpc/privateData", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/trpc/privateData", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: issueAccessTokenForTestUser(t, authSvc, testUserUsername)})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Result struct {
			Data struct {
				Message string `json:"message"`
				User    struct {
					Username string `json:"username"`
				} `json:"user"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result.Data.Message != "This is private" || body.Result.Data.User.Username != testUserUsername {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
