// portal.go — операции портала над backend: вход, профиль, справочник
// пользователей, смена пароля, BI. Каждое изменяющее действие попадает в аудит.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"
)

// Backend — операции REST API, используемые порталом (реализует *backend.Client).
type Backend interface {
	Login(ctx context.Context, username, password string) (*backend.TokenResponse, error)
	Me(ctx context.Context, token string) (*model.Profile, error)
	ListUsers(ctx context.Context, token string) ([]model.User, error)
	CreateUser(ctx context.Context, token string, req backend.CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, token string, id int64, req backend.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, token string, id int64) error
	ChangePassword(ctx context.Context, token string, req backend.ChangePasswordRequest) error
	BIConfig(ctx context.Context, token string) (*backend.BIConfig, error)
}

// Actor — кто выполняет действие.
type Actor struct {
	Username   string
	RemoteAddr string
	Token      string
}

// PortalService — сервис операций портала.
type PortalService struct {
	api    Backend
	audit  *AuditService
	logger *slog.Logger
}

// NewPortalService создаёт сервис.
func NewPortalService(api Backend, audit *AuditService, logger *slog.Logger) *PortalService {
	return &PortalService{
		api:    api,
		audit:  audit,
		logger: logger.With(slog.String("component", "portal_service")),
	}
}

// Login получает токен. Неудача фиксируется в аудите с логином из формы.
func (s *PortalService) Login(ctx context.Context, username, password, remoteAddr string) (string, error) {
	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.audit.Record(ctx, model.AuditEvent{
			Action:     model.AuditLoginFailure,
			Actor:      username,
			RemoteAddr: remoteAddr,
			Detail:     failureDetail(err),
		})
		return "", err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditLoginSuccess,
		Actor:      username,
		RemoteAddr: remoteAddr,
	})
	return tok.AccessToken, nil
}

// Logout фиксирует выход. Backend о выходе не уведомляется.
func (s *PortalService) Logout(ctx context.Context, actor Actor) {
	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditLogout,
		Actor:      actor.Username,
		RemoteAddr: actor.RemoteAddr,
	})
}

// Profile возвращает данные текущего пользователя.
func (s *PortalService) Profile(ctx context.Context, token string) (*model.Profile, error) {
	return s.api.Me(ctx, token)
}

// ListUsers возвращает справочник пользователей в порядке backend.
func (s *PortalService) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	return s.api.ListUsers(ctx, token)
}

// CreateUser создаёт пользователя.
func (s *PortalService) CreateUser(ctx context.Context, actor Actor, req backend.CreateUserRequest) (*model.User, error) {
	if !rbac.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: роль %q", ErrValidation, req.Role)
	}

	created, err := s.api.CreateUser(ctx, actor.Token, req)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditUserCreated,
		Actor:      actor.Username,
		Target:     req.Username,
		RemoteAddr: actor.RemoteAddr,
		Detail:     "role=" + req.Role,
	})
	return created, nil
}

// UpdateUser меняет имя и роль; пароль — только если он передан.
func (s *PortalService) UpdateUser(ctx context.Context, actor Actor, target model.User, req backend.UpdateUserRequest) error {
	if !rbac.IsValidRole(req.Role) {
		return fmt.Errorf("%w: роль %q", ErrValidation, req.Role)
	}

	if _, err := s.api.UpdateUser(ctx, actor.Token, target.ID, req); err != nil {
		return err
	}

	detail := "role=" + req.Role
	if req.Password != "" {
		detail += " password=changed"
	}
	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditUserUpdated,
		Actor:      actor.Username,
		Target:     targetName(target),
		RemoteAddr: actor.RemoteAddr,
		Detail:     detail,
	})
	return nil
}

// DeleteUser удаляет пользователя.
func (s *PortalService) DeleteUser(ctx context.Context, actor Actor, target model.User) error {
	if err := s.api.DeleteUser(ctx, actor.Token, target.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditUserDeleted,
		Actor:      actor.Username,
		Target:     targetName(target),
		RemoteAddr: actor.RemoteAddr,
	})
	return nil
}

// ChangePassword меняет пароль текущего пользователя.
func (s *PortalService) ChangePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error {
	err := s.api.ChangePassword(ctx, actor.Token, backend.ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, model.AuditEvent{
		Action:     model.AuditPasswordChange,
		Actor:      actor.Username,
		Target:     actor.Username,
		RemoteAddr: actor.RemoteAddr,
	})
	return nil
}

// EmbedURL возвращает адрес встраиваемого отчёта BI.
func (s *PortalService) EmbedURL(ctx context.Context, token string) (string, error) {
	cfg, err := s.api.BIConfig(ctx, token)
	if err != nil {
		return "", err
	}
	return cfg.EmbedURL, nil
}

// failureDetail — краткая причина неудачи для журнала.
func failureDetail(err error) string {
	if detail, ok := backend.DetailOf(err); ok {
		return detail
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return "backend unavailable"
	}
	return err.Error()
}

// targetName — логин, а без него — id записи.
func targetName(u model.User) string {
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("id=%d", u.ID)
}
