package i18n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoad_CatalogsHaveSameKeys(t *testing.T) {
	b, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	en, he := b.catalogs["en"], b.catalogs["he"]
	if len(en) == 0 {
		t.Fatal("каталог en пуст")
	}
	for key := range en {
		if _, ok := he[key]; !ok {
			t.Errorf("ключ %q отсутствует в he", key)
		}
	}
	for key := range he {
		if _, ok := en[key]; !ok {
			t.Errorf("ключ %q отсутствует в en", key)
		}
	}
}

func TestTranslate_Fallback(t *testing.T) {
	b := NewBundle(nil)
	mustLoad(t, b, "en", map[string]string{"a": "A", "only_en": "EN"})
	mustLoad(t, b, "he", map[string]string{"a": "א"})

	tests := []struct {
		lang, key, want string
	}{
		{"he", "a", "א"},
		{"he", "only_en", "EN"},
		{"en", "missing", "missing"},
		{"fr", "a", "A"},
	}
	for _, tt := range tests {
		if got := b.Translate(tt.lang, tt.key); got != tt.want {
			t.Errorf("Translate(%q, %q) = %q, ожидается %q", tt.lang, tt.key, got, tt.want)
		}
	}
}

func TestT_Format(t *testing.T) {
	b := NewBundle(nil)
	mustLoad(t, b, "en", map[string]string{"moved": "%d items"})

	ctx := WithLang(context.Background(), "en")
	if got := b.T(ctx, "moved", 3); got != "3 items" {
		t.Errorf("ожидалось %q, получено %q", "3 items", got)
	}
	if got := b.T(context.Background(), "moved"); got != "%d items" {
		t.Errorf("без аргументов шаблон возвращается как есть, получено %q", got)
	}
}

func TestMiddleware_DetectLanguage(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"по умолчанию", "", "", "en"},
		{"cookie he", "he", "en-US", "he"},
		{"неизвестная cookie", "ru", "he-IL", "he"},
		{"Accept-Language he", "", "he-IL,he;q=0.9", "he"},
		{"Accept-Language ru", "", "ru-RU", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = LangFromContext(r.Context())
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if got != tt.want {
				t.Errorf("ожидалось %q, получено %q", tt.want, got)
			}
			if w.Header().Get("Content-Language") != tt.want {
				t.Errorf("Content-Language = %q", w.Header().Get("Content-Language"))
			}
		})
	}
}

func TestDir(t *testing.T) {
	if Dir("he") != "rtl" || Dir("en") != "ltr" {
		t.Error("he — rtl, en — ltr")
	}
}

func mustLoad(t *testing.T, b *Bundle, lang string, msgs map[string]string) {
	t.Helper()
	data, err := json.Marshal(msgs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages(lang, data); err != nil {
		t.Fatal(err)
	}
}
