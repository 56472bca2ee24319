// auth.go — вход и выход: токен backend сохраняется в зашифрованной сессии.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/auth"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/pages"
)

// DashboardPath — страница после входа.
const DashboardPath = "/dashboard"

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	portal         *service.PortalService
	sessionManager *auth.SessionManager
	notifier       *notify.Notifier
	logger         *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(
	portal *service.PortalService,
	sessionManager *auth.SessionManager,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		portal:         portal,
		sessionManager: sessionManager,
		notifier:       notifier,
		logger:         logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage — GET /
// С действующей сессией — redirect на dashboard, иначе форма входа.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.hasSession(r) {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}

	data := pages.LoginData{Flash: h.notifier.Take(w, r)}
	renderPage(w, r, http.StatusOK, pages.Login(data), h.logger)
}

// HandleLogin — POST /login
// Получает токен backend, сохраняет сессию, redirect на dashboard.
// Неудача — форма с сообщением и снова доступной кнопкой.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dto forms.LoginDTO
	if err := forms.Decode(r, &dto); err != nil {
		h.loginError(w, r, http.StatusBadRequest, "", i18n.T(ctx, "login.denied"))
		return
	}
	dto.Normalize()

	if errs, ok := dto.Ok(ctx); !ok {
		h.loginError(w, r, http.StatusUnprocessableEntity, dto.Username, forms.FirstError(errs, "Username", "Password"))
		return
	}

	token, err := h.portal.Login(ctx, dto.Username, dto.Password, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, backend.ErrUnavailable) {
			h.loginError(w, r, http.StatusBadGateway, dto.Username, i18n.T(ctx, "login.connection_error"))
			return
		}
		h.logger.Info("Вход отклонён",
			slog.String("username", dto.Username),
			slog.String("error", err.Error()),
		)
		h.loginError(w, r, http.StatusUnauthorized, dto.Username, i18n.T(ctx, "login.denied"))
		return
	}

	claims, err := auth.ReadClaims(token)
	if err != nil {
		h.logger.Warn("Backend выдал нечитаемый токен",
			slog.String("username", dto.Username),
			slog.String("error", err.Error()),
		)
		h.loginError(w, r, http.StatusUnauthorized, dto.Username, i18n.T(ctx, "login.denied"))
		return
	}

	session := &auth.SessionData{
		Token:    token,
		UserName: dto.Username,
	}
	if !claims.ExpiresAt.IsZero() {
		session.ExpiresAt = claims.ExpiresAt.Unix()
	}

	if err := h.sessionManager.Save(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.String("username", dto.Username),
		slog.String("role", claims.Role),
	)
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// HandleLogout — POST /logout
// Очищает сессию; backend о выходе не уведомляется.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessionManager.Load(r); err == nil && session != nil {
		h.portal.Logout(r.Context(), service.Actor{
			Username:   session.UserName,
			RemoteAddr: r.RemoteAddr,
		})
	}

	h.sessionManager.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// hasSession — в запросе действующая сессия с читаемым токеном.
func (h *AuthHandler) hasSession(r *http.Request) bool {
	session, err := h.sessionManager.Load(r)
	if err != nil || session == nil || session.Token == "" || session.IsExpired() {
		return false
	}
	_, err = auth.ReadClaims(session.Token)
	return err == nil
}

func (h *AuthHandler) loginError(w http.ResponseWriter, r *http.Request, status int, username, msg string) {
	data := pages.LoginData{
		Error:    msg,
		Username: username,
	}
	renderPage(w, r, status, pages.Login(data), h.logger)
}
