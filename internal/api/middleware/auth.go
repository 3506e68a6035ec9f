// auth.go — проверка сессии администратора для изменяющих операций.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/archive/internal/api/errors"
	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
	"github.com/bigkaa/goartstore/archive/internal/auth"
)

type contextKey string

// ContextKeySession — подтверждённая сессия в контексте запроса.
const ContextKeySession contextKey = "archive_session"

// SessionVerifier проверяет токен сессии. Реализуется auth.Gate.
type SessionVerifier interface {
	Verify(token string) (*auth.Session, error)
}

// RequireSession пропускает операции, помеченные security-требованием,
// только с валидной сессией (cookie archive_session или Bearer).
// Для остальных операций сессия, если есть, тоже кладётся в контекст.
func RequireSession(verifier SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "session_auth"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			required := openapi.RequiresSession(r.Context())
			token := auth.TokenFromRequest(r)

			if token == "" {
				if required {
					apierrors.Unauthorized(w, "Требуется вход администратора")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			sess, err := verifier.Verify(token)
			if err != nil {
				if required {
					logger.Debug("Сессия отклонена",
						slog.String("error", err.Error()),
						slog.String("remote_addr", r.RemoteAddr),
					)
					apierrors.Unauthorized(w, "Невалидная или просроченная сессия")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext возвращает сессию из контекста (nil, если нет).
func SessionFromContext(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(ContextKeySession).(*auth.Session)
	return sess
}
