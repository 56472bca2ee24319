// dashboard.go — главная страница: приветствие, карточки сервисов,
// разделы по роли и отчёт BI.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/password"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/auth"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/disclosure"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	uimiddleware "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/middleware"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/pages"
)

// serviceCards — каталог карточек сервисов в порядке показа.
var serviceCards = []pages.Card{
	{Key: "request", Icon: "fas fa-file-signature"},
	{Key: "tracking", Icon: "fas fa-route"},
	{Key: "maintenance", Icon: "fas fa-screwdriver-wrench"},
	{Key: "monitoring", Icon: "fas fa-video"},
	{Key: "documents", Icon: "fas fa-folder-open"},
	{Key: "support", Icon: "fas fa-headset"},
}

// DashboardHandler — обработчик страницы Dashboard и смены пароля.
type DashboardHandler struct {
	portal         *service.PortalService
	sessionManager *auth.SessionManager
	notifier       *notify.Notifier
	policy         password.Policy
	logger         *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(
	portal *service.PortalService,
	sessionManager *auth.SessionManager,
	notifier *notify.Notifier,
	policy password.Policy,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		portal:         portal,
		sessionManager: sessionManager,
		notifier:       notifier,
		policy:         policy,
		logger:         logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /dashboard.
// ?cards=all — карточки раскрыты, ?modal=password — открыто окно смены пароля.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	modal := forms.NewModal("password")
	if r.URL.Query().Get("modal") == "password" {
		logTransition(r, h.logger, modal.Open())
	}

	data := h.dashboardData(w, r, modal)
	data.Flash = h.notifier.Take(w, r)
	renderPage(w, r, http.StatusOK, pages.Dashboard(data), h.logger)
}

// dashboardData собирает данные страницы для текущей сессии.
func (h *DashboardHandler) dashboardData(w http.ResponseWriter, r *http.Request, modal *forms.Modal) pages.DashboardData {
	ctx := r.Context()
	session := uimiddleware.SessionFromContext(ctx)
	claims := uimiddleware.ClaimsFromContext(ctx)

	// Приветствие: профиль backend → сохранённое имя → логин → "Usuário"
	displayName := session.DisplayName()
	profile, err := h.portal.Profile(ctx, session.Token)
	switch {
	case err != nil:
		h.logger.Debug("Профиль недоступен, имя из сессии",
			slog.String("username", session.UserName),
			slog.String("error", err.Error()),
		)
	case profile.FullName != "":
		displayName = profile.FullName
		if profile.FullName != session.UserFullName {
			session.UserFullName = profile.FullName
			if err := h.sessionManager.Save(w, session); err != nil {
				h.logger.Warn("Не удалось обновить сессию", slog.String("error", err.Error()))
			}
		}
	case profile.Username != "":
		displayName = profile.Username
	}

	visibility := rbac.VisibilityFor(claims.Role)

	state := disclosure.Setup(claims.Role, len(serviceCards)).
		FromQuery(r.URL.Query().Get(disclosure.ExpandParam))
	bindings := disclosure.NewBindings()
	bindings.Register(pages.CardsBlockID, DashboardPath, state)

	data := pages.DashboardData{
		DisplayName: displayName,
		Visibility:  visibility,
		Cards:       serviceCards,
		Disclosure:  state,
		Password:    modal,
	}
	if b, ok := bindings.Lookup(pages.CardsBlockID); ok {
		data.Toggle = &b
	}

	// Отчёт BI: при ошибке раздел скрывается
	if visibility.Reporting {
		embedURL, err := h.portal.EmbedURL(ctx, session.Token)
		if err != nil {
			h.logger.Info("Отчёт BI недоступен",
				slog.String("username", session.UserName),
				slog.String("error", err.Error()),
			)
		} else {
			data.EmbedURL = embedURL
		}
	}

	return data
}
