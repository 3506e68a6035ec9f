package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T, opts Options) *Gate {
	t.Helper()
	if opts.SessionKey == "" {
		opts.SessionKey = "0123456789abcdef0123456789abcdef"
	}
	g, err := NewGate(opts, testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания Gate: %v", err)
	}
	return g
}

// TestLoginVerifyRoundTrip проверяет выдачу и проверку токена.
func TestLoginVerifyRoundTrip(t *testing.T) {
	g := newTestGate(t, Options{Password: "secret", TTL: time.Hour})

	sess, token, err := g.Login("secret")
	if err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	if token == "" || sess.ID == "" {
		t.Fatal("Ожидались непустые токен и ID сессии")
	}
	if got := sess.ExpiresAt.Sub(sess.IssuedAt); got != time.Hour {
		t.Errorf("TTL: ожидалось 1h, получено %v", got)
	}

	verified, err := g.Verify(token)
	if err != nil {
		t.Fatalf("Ошибка проверки токена: %v", err)
	}
	if verified.ID != sess.ID {
		t.Errorf("ID: ожидалось %q, получено %q", sess.ID, verified.ID)
	}
}

func TestLogin_Errors(t *testing.T) {
	notConfigured := newTestGate(t, Options{})
	if _, _, err := notConfigured.Login("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ожидалась ErrNotConfigured, получено %v", err)
	}

	g := newTestGate(t, Options{Password: "secret"})
	for _, pw := range []string{"", "Secret", "secret ", "secre"} {
		if _, _, err := g.Login(pw); !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("Login(%q): ожидалась ErrInvalidPassword, получено %v", pw, err)
		}
	}
}

func TestLogin_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	g := newTestGate(t, Options{PasswordHash: string(hash)})

	if _, _, err := g.Login("hashed-secret"); err != nil {
		t.Errorf("Ожидался успешный вход, получено %v", err)
	}
	if _, _, err := g.Login("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Ожидалась ErrInvalidPassword, получено %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	g := newTestGate(t, Options{Password: "secret", TTL: time.Minute})
	_, token, err := g.Login("secret")
	if err != nil {
		t.Fatal(err)
	}

	// Другой ключ
	other := newTestGate(t, Options{Password: "secret", SessionKey: "ffffffffffffffffffffffffffffffff"})
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Чужой ключ: ожидалась ErrInvalidSession, получено %v", err)
	}

	// Испорченный токен
	if _, err := g.Verify(token + "x"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Испорченный токен: ожидалась ErrInvalidSession, получено %v", err)
	}

	// Пустой токен
	if _, err := g.Verify(""); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Пустой токен: ожидалась ErrInvalidSession, получено %v", err)
	}

	// Истёкший токен
	g.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := g.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Истёкший токен: ожидалась ErrInvalidSession, получено %v", err)
	}
}

// TestRandomKey проверяет, что без ключа сессии токены разных процессов несовместимы.
func TestRandomKey(t *testing.T) {
	a, err := NewGate(Options{Password: "p"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGate(Options{Password: "p"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, token, err := a.Login("p")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(token); err != nil {
		t.Errorf("Токен должен проверяться выдавшим Gate: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("Токен не должен проверяться Gate с другим случайным ключом")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie", "abc", "", "abc"},
		{"bearer", "", "Bearer xyz", "xyz"},
		{"bearer регистр", "", "bearer xyz", "xyz"},
		{"cookie приоритетнее", "abc", "Bearer xyz", "abc"},
		{"другая схема", "", "Basic xyz", ""},
		{"пусто", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := TokenFromRequest(r); got != tt.want {
				t.Errorf("ожидалось %q, получено %q", tt.want, got)
			}
		})
	}
}

func TestSessionCookie(t *testing.T) {
	g := newTestGate(t, Options{Password: "secret", SecureCookie: true})
	sess, token, err := g.Login("secret")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	g.SetSessionCookie(w, token, sess)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Ожидалась 1 cookie, получено %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != token {
		t.Errorf("cookie: получено %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure {
		t.Error("cookie должна быть HttpOnly и Secure")
	}

	w = httptest.NewRecorder()
	g.ClearSessionCookie(w)
	if c := w.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cookie должна удаляться, получено MaxAge=%d", c.MaxAge)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")) != nil {
		t.Error("хэш не соответствует паролю")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("ожидалась ошибка для пустого пароля")
	}
}
