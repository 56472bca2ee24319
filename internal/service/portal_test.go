package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend/backendtest"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// setupPortal создаёт сервис поверх имитации backend с администратором.
func setupPortal(t *testing.T) (*PortalService, *backendtest.Server, *memAuditRepo) {
	t.Helper()

	srv := backendtest.New(t)
	srv.AddUser("admin", "Admin1234", "Administrador", "admin")

	repo := &memAuditRepo{}
	client := backend.New(srv.URL, "/docs", srv.Client(), testLogger())
	return NewPortalService(client, NewAuditService(repo, testLogger()), testLogger()), srv, repo
}

func TestPortalService_Login(t *testing.T) {
	svc, _, repo := setupPortal(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin", "errada", "10.0.0.1:1234"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("неверный пароль: ожидалась ErrUnauthorized, получено %v", err)
	}

	token, err := svc.Login(ctx, "admin", "Admin1234", "10.0.0.1:1234")
	if err != nil || token == "" {
		t.Fatalf("Login() = %q, %v", token, err)
	}

	want := []string{model.AuditLoginFailure, model.AuditLoginSuccess}
	if got := repo.actions(); !slices.Equal(got, want) {
		t.Errorf("аудит = %v, ожидается %v", got, want)
	}
}

func TestPortalService_UserLifecycle(t *testing.T) {
	svc, srv, repo := setupPortal(t)
	ctx := context.Background()
	actor := Actor{Username: "admin", RemoteAddr: "10.0.0.1:1234", Token: srv.Token("admin")}

	created, err := svc.CreateUser(ctx, actor, backend.CreateUserRequest{
		Username: "joao", Password: "Senha1234", FullName: "João", Role: "supervisor",
	})
	if err != nil {
		t.Fatalf("CreateUser() вернул ошибку: %v", err)
	}

	target := model.User{ID: created.ID, Username: "joao"}
	if err := svc.UpdateUser(ctx, actor, target, backend.UpdateUserRequest{FullName: "João S.", Role: "admin"}); err != nil {
		t.Fatalf("UpdateUser() вернул ошибку: %v", err)
	}

	users, err := svc.ListUsers(ctx, actor.Token)
	if err != nil {
		t.Fatalf("ListUsers() вернул ошибку: %v", err)
	}
	idx := slices.IndexFunc(users, func(u model.User) bool { return u.ID == created.ID })
	if idx < 0 || users[idx].Role != "admin" || users[idx].FullName != "João S." {
		t.Errorf("после обновления: %+v", users)
	}

	if err := svc.DeleteUser(ctx, actor, target); err != nil {
		t.Fatalf("DeleteUser() вернул ошибку: %v", err)
	}

	want := []string{model.AuditUserCreated, model.AuditUserUpdated, model.AuditUserDeleted}
	if got := repo.actions(); !slices.Equal(got, want) {
		t.Errorf("аудит = %v, ожидается %v", got, want)
	}
}

// TestPortalService_InvalidRole — роль проверяется до обращения к backend.
func TestPortalService_InvalidRole(t *testing.T) {
	svc, srv, repo := setupPortal(t)
	actor := Actor{Username: "admin", Token: srv.Token("admin")}

	_, err := svc.CreateUser(context.Background(), actor, backend.CreateUserRequest{Username: "x", Password: "Senha1234", Role: "root"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено %v", err)
	}
	if len(srv.Users()) != 1 {
		t.Error("backend не должен вызываться при неверной роли")
	}
	if len(repo.actions()) != 0 {
		t.Error("неудачная попытка не должна попадать в аудит")
	}
}

func TestPortalService_FailedMutationNotAudited(t *testing.T) {
	svc, srv, repo := setupPortal(t)
	actor := Actor{Username: "admin", Token: srv.Token("admin")}

	_, err := svc.CreateUser(context.Background(), actor, backend.CreateUserRequest{Username: "admin", Password: "Senha1234", Role: "admin"})
	if detail, ok := backend.DetailOf(err); !ok || detail == "" {
		t.Errorf("ожидался detail backend, получено %v", err)
	}
	if len(repo.actions()) != 0 {
		t.Errorf("аудит = %v, ожидается пустой", repo.actions())
	}
}

func TestPortalService_ChangePasswordAndEmbed(t *testing.T) {
	svc, srv, repo := setupPortal(t)
	ctx := context.Background()
	actor := Actor{Username: "admin", Token: srv.Token("admin")}

	if err := svc.ChangePassword(ctx, actor, "Admin1234", "Trocada99"); err != nil {
		t.Fatalf("ChangePassword() вернул ошибку: %v", err)
	}
	if !srv.CheckPassword("admin", "Trocada99") {
		t.Error("пароль не изменился")
	}
	if got := repo.actions(); !slices.Equal(got, []string{model.AuditPasswordChange}) {
		t.Errorf("аудит = %v", got)
	}

	embed, err := svc.EmbedURL(ctx, actor.Token)
	if err != nil || embed != backendtest.DefaultEmbedURL {
		t.Errorf("EmbedURL() = %q, %v", embed, err)
	}

	profile, err := svc.Profile(ctx, actor.Token)
	if err != nil || profile.FullName != "Administrador" {
		t.Errorf("Profile() = %+v, %v", profile, err)
	}

	svc.Logout(ctx, actor)
	if got := repo.actions(); got[len(got)-1] != model.AuditLogout {
		t.Errorf("последнее событие %q, ожидается logout", got[len(got)-1])
	}
}
