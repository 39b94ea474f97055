package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taeu.kr/kirosumi/internal/platform/database"
)

func TestHandleStatus_ReportsComponents(t *testing.T) {
	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	h := NewHandler("3000",
		Check{Name: "database", Enabled: true, Ping: db.PingContext, Path: "/api/"},
		Check{Name: "redis", Enabled: true, Ping: func(context.Context) error { return errors.New("connection refused") }},
		Check{Name: "sftp", Enabled: false, Port: "2222"},
		Check{Name: "webdav", Enabled: true, Path: "/dav/"},
	)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[string]string{
		"database": "healthy",
		"redis":    "unhealthy",
		"sftp":     "unavailable",
		"webdav":   "healthy",
	}
	for name, status := range want {
		if got := resp.Components[name].Status; got != status {
			t.Fatalf("%s: expected %s, got %s", name, status, got)
		}
	}
	if resp.Components["redis"].Message != "connection refused" {
		t.Fatalf("unexpected redis message %q", resp.Components["redis"].Message)
	}
	if len(resp.Hosts) == 0 || resp.Hosts[0] != "localhost:3000" {
		t.Fatalf("unexpected hosts %v", resp.Hosts)
	}
}

func TestHandleHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler("3000").RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
