package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"testing"

	"taeu.kr/kirosumi/internal/config"
	"taeu.kr/kirosumi/internal/notefs"
	"taeu.kr/kirosumi/internal/webdav"
)

func TestRegisterWebDAVRoutes_ServesNotesTreeWithoutRedirect(t *testing.T) {
	mux := http.NewServeMux()
	var seen string
	registerWebDAVRoutes(mux, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
		w.WriteHeader(http.StatusMultiStatus)
	}))

	paths := []string{
		webdav.Prefix,
		webdav.Prefix + "/",
		path.Join(webdav.Prefix, notefs.CapturesDir),
		path.Join(webdav.Prefix, "Personal", "Launch", "Write docs.md"),
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("PROPFIND", (&url.URL{Path: p}).RequestURI(), nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusMultiStatus {
				t.Fatalf("expected status %d, got %d", http.StatusMultiStatus, rec.Code)
			}
			if location := rec.Header().Get("Location"); location != "" {
				t.Fatalf("expected no redirect, got Location %q", location)
			}
			if seen != p {
				t.Fatalf("handler saw %q, want %q", seen, p)
			}
		})
	}
}

func TestRegisterWebDAVRoutes_LeavesOtherPathsAlone(t *testing.T) {
	mux := http.NewServeMux()
	registerWebDAVRoutes(mux, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("webdav handler must not see %s", r.URL.Path)
	}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unrelated path, got %d", rec.Code)
	}
}

func TestDataDir(t *testing.T) {
	saved := config.Conf.Datasource
	t.Cleanup(func() { config.Conf.Datasource = saved })

	config.Conf.Datasource.Driver = "sqlite"
	config.Conf.Datasource.URL = "file:data/kirosumi.db"
	if got := dataDir(); got != "data" {
		t.Fatalf("sqlite data dir = %q, want %q", got, "data")
	}

	config.Conf.Datasource.Driver = "postgres"
	if got := dataDir(); got != "." {
		t.Fatalf("postgres data dir = %q, want %q", got, ".")
	}
}
