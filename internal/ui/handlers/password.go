// password.go — смена собственного пароля из окна настроек dashboard.
package handlers

import (
	"errors"
	"net/http"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/pages"
)

// HandleChangePassword обрабатывает POST /dashboard/password.
// Нарушение политики — окно остаётся открытым, запрос в backend не отправляется.
// Успех — сессия очищается, требуется повторный вход.
func (h *DashboardHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	modal := forms.NewModal("password")
	logTransition(r, h.logger, modal.Open())

	var dto forms.ChangePasswordDTO
	if err := forms.Decode(r, &dto); err != nil {
		logTransition(r, h.logger, modal.Reject(i18n.T(ctx, "password.change_failed"), nil))
		h.renderDashboard(w, r, http.StatusBadRequest, modal)
		return
	}

	if errs, ok := dto.Ok(ctx, h.policy); !ok {
		logTransition(r, h.logger, modal.Reject(forms.FirstError(errs, "OldPassword", "NewPassword"), errs))
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, modal)
		return
	}

	logTransition(r, h.logger, modal.Submit())
	if err := h.portal.ChangePassword(ctx, actorFrom(r), dto.OldPassword, dto.NewPassword); err != nil {
		logTransition(r, h.logger, modal.Fail(passwordFailure(r, err)))
		h.renderDashboard(w, r, http.StatusOK, modal)
		return
	}

	logTransition(r, h.logger, modal.Succeed())
	h.sessionManager.Clear(w)
	h.notifier.Success(w, i18n.T(ctx, "password.changed"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *DashboardHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, modal *forms.Modal) {
	data := h.dashboardData(w, r, modal)
	renderPage(w, r, status, pages.Dashboard(data), h.logger)
}

// passwordFailure — detail backend без префикса, иначе общее сообщение.
func passwordFailure(r *http.Request, err error) string {
	if errors.Is(err, backend.ErrUnavailable) {
		return i18n.T(r.Context(), "common.connection_error")
	}
	if detail, ok := backend.DetailOf(err); ok {
		return detail
	}
	return i18n.T(r.Context(), "password.change_failed")
}
