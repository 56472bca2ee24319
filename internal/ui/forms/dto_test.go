package forms

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/password"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("i18n", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/users/create", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDecode(t *testing.T) {
	req := postForm(url.Values{
		"username":  {"  joao "},
		"full_name": {" João Silva "},
		"password":  {"Senha1234"},
		"role":      {"supervisor"},
	})

	var dto CreateUserDTO
	if err := Decode(req, &dto); err != nil {
		t.Fatalf("Decode() вернул ошибку: %v", err)
	}
	dto.Normalize()

	want := CreateUserDTO{Username: "joao", FullName: "João Silva", Password: "Senha1234", Role: "supervisor"}
	if dto != want {
		t.Errorf("dto = %+v, ожидается %+v", dto, want)
	}
}

func TestCreateUserDTO_Ok(t *testing.T) {
	ctx := i18n.WithLang(context.Background(), i18n.LangPT)
	policy := password.DefaultPolicy()

	tests := []struct {
		name      string
		dto       CreateUserDTO
		wantField string
		wantMsg   string
	}{
		{
			name: "корректная форма",
			dto:  CreateUserDTO{Username: "joao", Password: "Senha1234", Role: "admin"},
		},
		{
			name:      "короткий пароль",
			dto:       CreateUserDTO{Username: "joao", Password: "Ab1", Role: "admin"},
			wantField: "Password",
			wantMsg:   "A senha deve ter pelo menos 8 caracteres.",
		},
		{
			name:      "пустой пароль — сообщение о длине",
			dto:       CreateUserDTO{Username: "joao", Password: "", Role: "admin"},
			wantField: "Password",
			wantMsg:   "A senha deve ter pelo menos 8 caracteres.",
		},
		{
			name:      "пароль без цифры",
			dto:       CreateUserDTO{Username: "joao", Password: "SenhaSemNumero", Role: "admin"},
			wantField: "Password",
			wantMsg:   "A senha deve conter pelo menos um número.",
		},
		{
			name:      "неизвестная роль",
			dto:       CreateUserDTO{Username: "joao", Password: "Senha1234", Role: "root"},
			wantField: "Role",
		},
		{
			name:      "нет логина",
			dto:       CreateUserDTO{Password: "Senha1234", Role: "admin"},
			wantField: "Username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, ok := tt.dto.Ok(ctx, policy)
			if tt.wantField == "" {
				if !ok {
					t.Errorf("ожидалась корректная форма, ошибки %v", errs)
				}
				return
			}
			if ok {
				t.Fatal("ожидались ошибки")
			}
			msg, found := errs[tt.wantField]
			if !found {
				t.Fatalf("нет ошибки поля %s: %v", tt.wantField, errs)
			}
			if strings.HasPrefix(msg, "validation.") || strings.HasPrefix(msg, "password.") {
				t.Errorf("сообщение не переведено: %q", msg)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Errorf("сообщение %q, ожидается %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestUpdateUserDTO_Ok(t *testing.T) {
	ctx := context.Background()
	policy := password.DefaultPolicy()

	noPassword := UpdateUserDTO{FullName: "Carla", Role: "solicitante"}
	if errs, ok := noPassword.Ok(ctx, policy); !ok {
		t.Errorf("без пароля форма должна быть корректной: %v", errs)
	}

	weak := UpdateUserDTO{Role: "solicitante", Password: "fraca"}
	errs, ok := weak.Ok(ctx, policy)
	if ok || errs["Password"] == "" {
		t.Errorf("слабый пароль должен отклоняться: %v", errs)
	}
}

func TestChangePasswordDTO_Ok(t *testing.T) {
	ctx := i18n.WithLang(context.Background(), i18n.LangPT)
	policy := password.DefaultPolicy()

	tests := []struct {
		name    string
		dto     ChangePasswordDTO
		wantMsg string
	}{
		{"корректная смена", ChangePasswordDTO{OldPassword: "Antiga123", NewPassword: "Nova12345"}, ""},
		{"совпадает со старым", ChangePasswordDTO{OldPassword: "Igual1234", NewPassword: "Igual1234"}, "A nova senha deve ser diferente."},
		{"правила проверяются раньше совпадения", ChangePasswordDTO{OldPassword: "curta", NewPassword: "curta"}, "A senha deve ter pelo menos 8 caracteres."},
		{"пробел в пароле", ChangePasswordDTO{OldPassword: "Antiga123", NewPassword: "Nova 12345"}, "A senha não pode conter espaços em branco."},
		{"пустой новый пароль — сообщение о длине", ChangePasswordDTO{OldPassword: "Antiga123", NewPassword: ""}, "A senha deve ter pelo menos 8 caracteres."},
		{"оба поля пустые", ChangePasswordDTO{}, "A senha deve ter pelo menos 8 caracteres."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, ok := tt.dto.Ok(ctx, policy)
			if tt.wantMsg == "" {
				if !ok {
					t.Errorf("ожидалась корректная форма, ошибки %v", errs)
				}
				return
			}
			if got := errs["NewPassword"]; got != tt.wantMsg {
				t.Errorf("сообщение %q, ожидается %q", got, tt.wantMsg)
			}
		})
	}
}

func TestLoginDTO_Ok(t *testing.T) {
	ctx := i18n.WithLang(context.Background(), i18n.LangEN)

	dto := LoginDTO{Username: "   "}
	dto.Normalize()
	errs, ok := dto.Ok(ctx)
	if ok || errs["Username"] == "" || errs["Password"] == "" {
		t.Errorf("пустые поля должны отклоняться: %v", errs)
	}
}

func TestFirstError(t *testing.T) {
	errs := map[string]string{"Role": "papel", "Password": "senha"}
	if got := FirstError(errs, "Username", "Password", "Role"); got != "senha" {
		t.Errorf("FirstError() = %q", got)
	}
	if got := FirstError(map[string]string{}); got != "" {
		t.Errorf("FirstError() пустой карты = %q", got)
	}
}
