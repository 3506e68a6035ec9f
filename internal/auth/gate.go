// Пакет auth — доступ администратора по общему паролю.
// Пароль сверяется с ADMIN_PASSWORD (constant-time) или ADMIN_PASSWORD_HASH (bcrypt),
// после успешного входа выдаётся подписанный HS256 токен сессии.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Имя cookie сессии администратора.
const SessionCookieName = "archive_session"

// Subject токена: доступ один на всех, без пользователей.
const adminSubject = "admin"

var (
	// ErrNotConfigured — пароль на сервере не задан.
	ErrNotConfigured = errors.New("пароль администратора не настроен")
	// ErrInvalidPassword — пароль не совпал.
	ErrInvalidPassword = errors.New("неверный пароль")
	// ErrInvalidSession — токен отсутствует, подделан или истёк.
	ErrInvalidSession = errors.New("невалидная или просроченная сессия")
)

// Session — подтверждённая сессия администратора.
type Session struct {
	// ID — jti токена.
	ID string `json:"id"`
	// IssuedAt — время входа.
	IssuedAt time.Time `json:"issuedAt"`
	// ExpiresAt — время истечения.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Options — параметры Gate.
type Options struct {
	// Password — пароль в открытом виде.
	Password string
	// PasswordHash — bcrypt-хэш пароля.
	PasswordHash string
	// SessionKey — ключ подписи; пустой — случайный на процесс.
	SessionKey string
	// TTL — время жизни сессии.
	TTL time.Duration
	// SecureCookie — выставлять Secure у cookie.
	SecureCookie bool
}

// Gate проверяет пароль и выдаёт/проверяет токены сессий.
type Gate struct {
	password []byte
	hash     []byte
	key      []byte
	ttl      time.Duration
	secure   bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewGate создаёт Gate. Если SessionKey пустой — генерируется случайный ключ,
// и сессии не переживают рестарт.
func NewGate(opts Options, logger *slog.Logger) (*Gate, error) {
	key := []byte(opts.SessionKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		logger.Warn("ARCHIVE_SESSION_KEY не задан, сессии будут сброшены при рестарте")
	}

	g := &Gate{
		key:    key,
		ttl:    opts.TTL,
		secure: opts.SecureCookie,
		logger: logger.With(slog.String("component", "auth")),
		now:    time.Now,
	}
	if opts.Password != "" {
		g.password = []byte(opts.Password)
	}
	if opts.PasswordHash != "" {
		g.hash = []byte(opts.PasswordHash)
	}
	if g.ttl <= 0 {
		g.ttl = 24 * time.Hour
	}
	return g, nil
}

// Configured возвращает true, если задан пароль или его хэш.
func (g *Gate) Configured() bool {
	return g.password != nil || g.hash != nil
}

// Login сверяет пароль и возвращает сессию и подписанный токен.
func (g *Gate) Login(password string) (*Session, string, error) {
	if !g.Configured() {
		g.logger.Error("Попытка входа без настроенного пароля")
		return nil, "", ErrNotConfigured
	}
	if !g.check(password) {
		g.logger.Info("Неудачная попытка входа")
		return nil, "", ErrInvalidPassword
	}

	now := g.now().Truncate(time.Second)
	sess := &Session{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.key)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	g.logger.Info("Вход администратора", slog.String("session_id", sess.ID))
	return sess, token, nil
}

func (g *Gate) check(password string) bool {
	if g.hash != nil {
		return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare(g.password, []byte(password)) == 1
}

// Verify проверяет подпись и срок действия токена.
func (g *Gate) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return g.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	sess := &Session{ID: claims.ID}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// TokenFromRequest извлекает токен из cookie или заголовка Authorization: Bearer.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetSessionCookie устанавливает cookie сессии.
func (g *Gate) SetSessionCookie(w http.ResponseWriter, token string, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(sess.ExpiresAt.Sub(sess.IssuedAt).Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет cookie сессии (logout).
func (g *Gate) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// HashPassword возвращает bcrypt-хэш для ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("пустой пароль")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}
