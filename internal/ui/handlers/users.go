// users.go — справочник пользователей (только admin): список, создание,
// редактирование и удаление. Каждое изменение завершается redirect на список,
// таблица всегда строится заново из GET /users.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/password"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/directory"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	uimiddleware "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/middleware"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/pages"
)

// UsersHandler — обработчики страницы управления пользователями.
type UsersHandler struct {
	portal       *service.PortalService
	loader       *directory.Loader
	audit        *service.AuditService
	notifier     *notify.Notifier
	policy       password.Policy
	confirmModal bool
	logger       *slog.Logger
}

// NewUsersHandler создаёт новый UsersHandler.
// confirmModal — подтверждение удаления в окне (false — диалог confirm()).
func NewUsersHandler(
	portal *service.PortalService,
	loader *directory.Loader,
	audit *service.AuditService,
	notifier *notify.Notifier,
	policy password.Policy,
	confirmModal bool,
	logger *slog.Logger,
) *UsersHandler {
	return &UsersHandler{
		portal:       portal,
		loader:       loader,
		audit:        audit,
		notifier:     notifier,
		policy:       policy,
		confirmModal: confirmModal,
		logger:       logger.With(slog.String("component", "ui.users")),
	}
}

// HandleList обрабатывает GET /admin/users (?modal=create — окно создания).
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	data := h.usersData(w, r)
	if r.URL.Query().Get("modal") == "create" {
		logTransition(r, h.logger, data.Create.Open())
	}
	renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
}

// HandleCreate обрабатывает POST /admin/users/create.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := h.usersData(w, r)
	modal := data.Create
	logTransition(r, h.logger, modal.Open())

	var dto forms.CreateUserDTO
	if err := forms.Decode(r, &dto); err != nil {
		logTransition(r, h.logger, modal.Reject(i18n.T(ctx, "users.check_data"), nil))
		renderPage(w, r, http.StatusBadRequest, pages.Users(data), h.logger)
		return
	}
	dto.Normalize()
	data.CreateForm = forms.CreateUserDTO{Username: dto.Username, FullName: dto.FullName, Role: dto.Role}

	if errs, ok := dto.Ok(ctx, h.policy); !ok {
		logTransition(r, h.logger, modal.Reject(forms.FirstError(errs, "Username", "FullName", "Password", "Role"), errs))
		renderPage(w, r, http.StatusUnprocessableEntity, pages.Users(data), h.logger)
		return
	}

	logTransition(r, h.logger, modal.Submit())
	_, err := h.portal.CreateUser(ctx, actorFrom(r), backend.CreateUserRequest{
		Username: dto.Username,
		Password: dto.Password,
		FullName: dto.FullName,
		Role:     dto.Role,
	})
	if err != nil {
		logTransition(r, h.logger, modal.Fail(failureMessage(ctx, err, "users.create_failed", "users.check_data", "common.connection_error")))
		renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
		return
	}

	logTransition(r, h.logger, modal.Succeed())
	h.notifier.Success(w, i18n.Tf(ctx, "users.created", dto.Username))
	http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
}

// HandleEditForm обрабатывает GET /admin/users/{id}/edit — окно редактирования.
func (h *UsersHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	data, user, ok := h.withTarget(w, r)
	if !ok {
		return
	}

	logTransition(r, h.logger, data.Edit.Open())
	data.EditUser = user
	data.EditForm = forms.UpdateUserDTO{FullName: user.FullName, Role: user.Role}
	renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
}

// HandleEdit обрабатывает POST /admin/users/{id}/edit.
// Пароль проверяется и отправляется только если он введён.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, user, ok := h.withTarget(w, r)
	if !ok {
		return
	}
	modal := data.Edit
	logTransition(r, h.logger, modal.Open())
	data.EditUser = user

	var dto forms.UpdateUserDTO
	if err := forms.Decode(r, &dto); err != nil {
		logTransition(r, h.logger, modal.Reject(i18n.T(ctx, "users.check_data"), nil))
		renderPage(w, r, http.StatusBadRequest, pages.Users(data), h.logger)
		return
	}
	dto.Normalize()
	data.EditForm = forms.UpdateUserDTO{FullName: dto.FullName, Role: dto.Role}

	if errs, ok := dto.Ok(ctx, h.policy); !ok {
		logTransition(r, h.logger, modal.Reject(forms.FirstError(errs, "FullName", "Password", "Role"), errs))
		renderPage(w, r, http.StatusUnprocessableEntity, pages.Users(data), h.logger)
		return
	}

	logTransition(r, h.logger, modal.Submit())
	err := h.portal.UpdateUser(ctx, actorFrom(r), user, backend.UpdateUserRequest{
		FullName: dto.FullName,
		Role:     dto.Role,
		Password: dto.Password,
	})
	if err != nil {
		logTransition(r, h.logger, modal.Fail(failureMessage(ctx, err, "users.update_failed", "users.unknown_failure", "common.connection_error")))
		renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
		return
	}

	logTransition(r, h.logger, modal.Succeed())
	h.notifier.Success(w, i18n.T(ctx, "users.updated"))
	http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
}

// HandleDeleteConfirm обрабатывает GET /admin/users/{id}/delete — окно подтверждения.
func (h *UsersHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	data, user, ok := h.withTarget(w, r)
	if !ok {
		return
	}

	logTransition(r, h.logger, data.Delete.Open())
	data.DeleteUser = user
	renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
}

// HandleDelete обрабатывает POST /admin/users/{id}/delete — DELETE /users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, user, ok := h.withTarget(w, r)
	if !ok {
		return
	}
	modal := data.Delete
	logTransition(r, h.logger, modal.Open())
	data.DeleteUser = user

	logTransition(r, h.logger, modal.Submit())
	if err := h.portal.DeleteUser(ctx, actorFrom(r), user); err != nil {
		msg := failureMessage(ctx, err, "users.delete_failed", "users.unknown_failure", "users.delete_connection_error")
		logTransition(r, h.logger, modal.Fail(msg))
		if !h.confirmModal {
			// Без окна ошибка показывается уведомлением на списке
			h.notifier.Error(w, msg)
			http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
			return
		}
		renderPage(w, r, http.StatusOK, pages.Users(data), h.logger)
		return
	}

	logTransition(r, h.logger, modal.Succeed())
	h.notifier.Success(w, i18n.T(ctx, "users.deleted"))
	http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
}

// usersData загружает таблицу и общие данные страницы.
func (h *UsersHandler) usersData(w http.ResponseWriter, r *http.Request) pages.UsersData {
	ctx := r.Context()
	session := uimiddleware.SessionFromContext(ctx)

	data := pages.UsersData{
		Table:        h.loader.LoadUsers(ctx, session.Token),
		Create:       forms.NewModal("create"),
		Edit:         forms.NewModal("edit"),
		Delete:       forms.NewModal("delete"),
		ConfirmModal: h.confirmModal,
		AuditEnabled: h.audit.Enabled(),
		Flash:        h.notifier.Take(w, r),
	}

	if data.Table.Status == directory.StatusFailed {
		data.Flash = &notify.Flash{Level: notify.LevelError, Message: i18n.T(ctx, directory.LoadFailedKey)}
	}

	if data.AuditEnabled {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		audit, err := h.audit.Search(ctx, service.AuditQuery{
			Actor:  q.Get("actor"),
			Action: q.Get("action"),
			Page:   page,
		})
		if err != nil && !errors.Is(err, service.ErrAuditDisabled) {
			h.logger.Warn("Не удалось загрузить журнал аудита", slog.String("error", err.Error()))
		}
		data.Audit = audit
	}

	return data
}

// withTarget загружает страницу и ищет запись {id} в свежем списке.
// Некорректный или отсутствующий id — уведомление и redirect на список.
func (h *UsersHandler) withTarget(w http.ResponseWriter, r *http.Request) (pages.UsersData, model.User, bool) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.notifier.Error(w, i18n.T(ctx, "users.not_found"))
		http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
		return pages.UsersData{}, model.User{}, false
	}

	data := h.usersData(w, r)
	switch data.Table.Status {
	case directory.StatusFailed:
		h.notifier.Error(w, i18n.T(ctx, directory.LoadFailedKey))
		http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
		return data, model.User{}, false
	case directory.StatusLoaded:
		for _, u := range data.Table.Users {
			if u.ID == id {
				return data, u, true
			}
		}
	}

	h.notifier.Error(w, i18n.T(ctx, "users.not_found"))
	http.Redirect(w, r, pages.UsersPath, http.StatusSeeOther)
	return data, model.User{}, false
}
