package spa

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"assets/app.js": {Data: []byte("console.log(1)")},
	}
}

func TestNewSPAHandler_ServesAssets(t *testing.T) {
	h, err := NewSPAHandler(testFS())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "console.log(1)" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestNewSPAHandler_FallsBackToIndex(t *testing.T) {
	h, err := NewSPAHandler(testFS())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/spaces/SPA-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "app") {
		t.Fatalf("expected index.html, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
}

func TestNewSPAHandler_RequiresIndex(t *testing.T) {
	if _, err := NewSPAHandler(fstest.MapFS{}); err == nil {
		t.Fatal("expected error without index.html")
	}
}

func TestFromDir(t *testing.T) {
	if _, err := FromDir(t.TempDir()); err == nil {
		t.Fatal("expected error for a dir without index.html")
	}
	if _, err := FromDir("/definitely/missing"); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
