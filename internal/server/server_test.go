package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/auth"
)

type denyAll struct{}

func (denyAll) Verify(string) (*auth.Session, error) {
	return nil, errors.New("нет сессии")
}

// stubAPI — обработчики не вызываются в этих тестах, кроме health.
type stubAPI struct {
	openapi.ServerInterface
}

func (stubAPI) HealthLive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (stubAPI) CreateItem(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusCreated)
}

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(dir, logger, stubAPI{}, denyAll{}), dir
}

func TestRouter_ServesUploads(t *testing.T) {
	router, dir := newTestRouter(t)
	if err := os.WriteFile(filepath.Join(dir, "1-abc-photo.png"), []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/1-abc-photo.png", nil))
	if w.Code != http.StatusOK || w.Body.String() != "png" {
		t.Fatalf("ожидался файл, получено %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("ожидался заголовок nosniff")
	}
}

func TestRouter_NoDirectoryListing(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("ожидался 404, получено %d", w.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"NOT_FOUND"`) {
		t.Errorf("ожидался 404 NOT_FOUND, получено %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_SessionEnforced(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/items", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("без сессии ожидался 401, получено %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: ожидался 200, получено %d", w.Code)
	}
	if w.Header().Get("Content-Language") == "" {
		t.Error("middleware языка не подключён")
	}
}
