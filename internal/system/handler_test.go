package system

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubProbe struct {
	info *HostInfo
	err  error
}

func (p stubProbe) Collect(context.Context, string) (*HostInfo, error) {
	return p.info, p.err
}

func TestGetVersion(t *testing.T) {
	handler := NewHandler(Meta{
		Version:   "v0.3.0",
		Commit:    "abc123",
		BuildDate: "2026-02-24T00:00:00Z",
	}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/system/version", nil)
	rec := httptest.NewRecorder()

	if err := handler.GetVersion(rec, req); err != nil {
		t.Fatalf("expected no error, got %+v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var payload map[string]string
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &payload); decodeErr != nil {
		t.Fatalf("failed to decode response: %v", decodeErr)
	}

	if payload["version"] != "v0.3.0" {
		t.Fatalf("expected version v0.3.0, got %q", payload["version"])
	}
	if payload["commit"] != "abc123" {
		t.Fatalf("expected commit abc123, got %q", payload["commit"])
	}
	if payload["buildDate"] != "2026-02-24T00:00:00Z" {
		t.Fatalf("expected buildDate 2026-02-24T00:00:00Z, got %q", payload["buildDate"])
	}
}

func TestGetVersion_DefaultsToDev(t *testing.T) {
	handler := NewHandler(Meta{Version: "  "}, "")
	rec := httptest.NewRecorder()

	if err := handler.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/api/system/version", nil)); err != nil {
		t.Fatalf("expected no error, got %+v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["version"] != "dev" {
		t.Fatalf("expected dev version, got %q", payload["version"])
	}
}

func TestGetInfo(t *testing.T) {
	handler := NewHandler(Meta{}, "")
	handler.probe = stubProbe{info: &HostInfo{Hostname: "box", CPUs: 8}}

	rec := httptest.NewRecorder()
	if err := handler.GetInfo(rec, httptest.NewRequest(http.MethodGet, "/api/system/info", nil)); err != nil {
		t.Fatalf("expected no error, got %+v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["hostname"] != "box" {
		t.Fatalf("expected hostname box, got %v", payload["hostname"])
	}
	if payload["cpus"] != float64(8) {
		t.Fatalf("expected 8 cpus, got %v", payload["cpus"])
	}
	if payload["goVersion"] == "" {
		t.Fatal("expected go version")
	}
}

func TestGetInfo_ProbeFailure(t *testing.T) {
	handler := NewHandler(Meta{}, "")
	handler.probe = stubProbe{err: errors.New("no host")}

	rec := httptest.NewRecorder()
	err := handler.GetInfo(rec, httptest.NewRequest(http.MethodGet, "/api/system/info", nil))
	if err == nil || err.Code != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %+v", err)
	}
}
