package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// stubServer — заглушка: обработчики не вызываются, middleware обрывает цепочку.
type stubServer struct {
	ServerInterface
}

var pathParamRe = regexp.MustCompile(`\{[^}]+\}`)

func TestGetSwagger_Valid(t *testing.T) {
	doc, err := GetSwagger()
	if err != nil {
		t.Fatalf("GetSwagger: %v", err)
	}
	if doc.Info.Title == "" {
		t.Error("info.title пустой")
	}
}

// TestRoutesDocumented проверяет, что каждый смонтированный маршрут описан
// в документе, а каждая описанная операция смонтирована.
func TestRoutesDocumented(t *testing.T) {
	doc, err := GetSwagger()
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	HandlerFromMux(stubServer{}, r)
	// Статика монтируется сервером отдельно
	r.Get("/uploads/*", func(http.ResponseWriter, *http.Request) {})

	mounted := make(map[string]bool)
	err = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		path := strings.Replace(route, "/*", "/{name}", 1)
		mounted[method+" "+path] = true

		item := doc.Paths.Value(path)
		if item == nil {
			t.Errorf("маршрут %s %s не описан", method, path)
			return nil
		}
		if item.GetOperation(method) == nil {
			t.Errorf("операция %s %s не описана", method, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			if !mounted[method+" "+path] {
				t.Errorf("описанная операция %s %s не смонтирована", method, path)
			}
		}
	}
}

// TestSecurityMatchesDocument проверяет, что требование сессии в обёртке
// совпадает с security операций документа.
func TestSecurityMatchesDocument(t *testing.T) {
	doc, err := GetSwagger()
	if err != nil {
		t.Fatal(err)
	}

	var secured bool
	var reached bool
	h := HandlerWithOptions(stubServer{}, ChiServerOptions{
		Middlewares: []MiddlewareFunc{func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				secured = RequiresSession(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
		}},
	})

	for path, item := range doc.Paths.Map() {
		if path == "/uploads/{name}" {
			continue
		}
		for method, op := range item.Operations() {
			target := pathParamRe.ReplaceAllString(path, "x")
			if method == http.MethodDelete && path == "/api/v1/categories" {
				target += "?path=a"
			}
			if strings.HasPrefix(path, "/api/v1/people/{kind}") {
				target = strings.Replace(target, "/people/x", "/people/memorial", 1)
			}

			reached, secured = false, false
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(method, target, nil))

			if !reached {
				t.Errorf("%s %s: обработчик не достигнут, статус %d", method, target, w.Code)
				continue
			}
			want := op.Security != nil && len(*op.Security) > 0
			if secured != want {
				t.Errorf("%s %s: требование сессии = %v, в документе %v", method, path, secured, want)
			}
		}
	}
}

func TestInvalidParam(t *testing.T) {
	h := HandlerFromMux(stubServer{}, chi.NewRouter())

	tests := []string{
		"/api/v1/items?limit=abc",
		"/api/v1/items?subtree=maybe",
		"/api/v1/items/tags?subtree=2x",
	}
	for _, target := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: ожидался 400, получено %d", target, w.Code)
			continue
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("%s: ожидался VALIDATION_ERROR, получено %+v (%v)", target, body, err)
		}
	}

	// Обязательный path у DELETE /api/v1/categories
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/categories", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("без path: ожидался 400, получено %d", w.Code)
	}
}

func TestServeSpec(t *testing.T) {
	w := httptest.NewRecorder()
	ServeSpec(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получено %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("ответ не JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v", doc["openapi"])
	}
}
