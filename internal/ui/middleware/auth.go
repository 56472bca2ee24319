// Пакет middleware — HTTP middleware страниц портала.
// auth.go — проверка сессии перед защищёнными страницами.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/auth"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
)

// contextKey — тип для ключей контекста UI.
type contextKey string

const (
	// ContextKeyUISession — данные сессии в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
	// ContextKeyClaims — claims токена в контексте запроса.
	ContextKeyClaims contextKey = "ui_claims"
)

// LoginPath — страница входа.
const LoginPath = "/"

// SessionGuard — middleware защищённых страниц.
// Без сессии, с повреждённым cookie, нечитаемым или истёкшим токеном:
// cookie очищается, ставится уведомление и выполняется redirect на вход.
// Проверка однократная на каждый запрос, без повторов и обновления токена.
type SessionGuard struct {
	sessionManager *auth.SessionManager
	notifier       *notify.Notifier
	logger         *slog.Logger
}

// NewSessionGuard создаёт SessionGuard.
func NewSessionGuard(
	sessionManager *auth.SessionManager,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *SessionGuard {
	return &SessionGuard{
		sessionManager: sessionManager,
		notifier:       notifier,
		logger:         logger.With(slog.String("component", "session_guard")),
	}
}

// Middleware возвращает HTTP middleware проверки сессии.
func (sg *SessionGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Сессия из cookie
			session, err := sg.sessionManager.Load(r)
			if err != nil {
				sg.logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				sg.reject(w, r)
				return
			}
			if session == nil || session.Token == "" {
				sg.reject(w, r)
				return
			}

			// 2. Claims токена (роль — только подсказка для интерфейса)
			claims, err := auth.ReadClaims(session.Token)
			if err != nil {
				sg.logger.Info("Недействительный токен в сессии",
					slog.String("username", session.UserName),
					slog.String("error", err.Error()),
				)
				sg.reject(w, r)
				return
			}

			// 3. Срок действия
			if session.IsExpired() {
				sg.logger.Info("Срок действия сессии истёк",
					slog.String("username", session.UserName),
				)
				sg.reject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject очищает сессию и отправляет на страницу входа.
func (sg *SessionGuard) reject(w http.ResponseWriter, r *http.Request) {
	sg.sessionManager.Clear(w)
	sg.notifier.Error(w, i18n.T(r.Context(), "session.expired"))
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// RequireAdmin пропускает только роль admin; остальных возвращает на dashboard
// с уведомлением. Применяется после SessionGuard.
func RequireAdmin(notifier *notify.Notifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil || !rbac.CanManageUsers(claims.Role) {
				notifier.Error(w, i18n.T(r.Context(), "admin.restricted"))
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil если сессия не найдена (не прошёл через SessionGuard).
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}

// ClaimsFromContext извлекает claims токена из контекста запроса.
func ClaimsFromContext(ctx context.Context) *auth.TokenClaims {
	claims, ok := ctx.Value(ContextKeyClaims).(*auth.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
