package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock HTTP-сервер backend с переданным обработчиком.
func setupMockBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL+"/", "/docs", server.Client(), testLogger())
}

func TestClient_LoginSendsForm(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" {
			t.Errorf("запрос %s %s, ожидался POST /token", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("запрос токена не должен содержать Authorization")
		}
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "maria" || r.PostForm.Get("password") != "Segredo123" {
			t.Errorf("форма = %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "jwt-token", TokenType: "bearer"})
	})

	token, err := client.Login(context.Background(), "maria", "Segredo123")
	if err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}
	if token.AccessToken != "jwt-token" {
		t.Errorf("AccessToken = %q", token.AccessToken)
	}
}

func TestClient_LoginUnauthorized(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Credenciais incorretas"}`)
	})

	_, err := client.Login(context.Background(), "maria", "errada")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("ожидалась ErrUnauthorized, получено %v", err)
	}
	detail, ok := DetailOf(err)
	if !ok || detail != "Credenciais incorretas" {
		t.Errorf("DetailOf() = %q, %v", detail, ok)
	}
}

func TestClient_BearerOnEveryCall(t *testing.T) {
	calls := map[string]bool{}

	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("%s %s: Authorization = %q", r.Method, r.URL.Path, got)
		}
		calls[r.Method+" "+r.URL.Path] = true

		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /users/me":
			_, _ = io.WriteString(w, `{"username":"ana","full_name":"Ana Souza","role":"admin"}`)
		case "GET /users":
			_, _ = io.WriteString(w, `[{"id":2,"username":"b","full_name":"","role":"solicitante"},{"id":1,"username":"a","full_name":"A","role":"admin"}]`)
		case "POST /users/create":
			_, _ = io.WriteString(w, `{"id":3,"username":"c","full_name":"C","role":"supervisor"}`)
		case "PUT /users/3":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if _, ok := body["password"]; ok {
				t.Error("пустой пароль не должен отправляться при редактировании")
			}
			w.WriteHeader(http.StatusOK)
		case "DELETE /users/3", "POST /users/me/password":
			w.WriteHeader(http.StatusOK)
		case "GET /bi-config":
			_, _ = io.WriteString(w, `{"embed_url":"https://bi.example/report"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	const token = "tok-123"

	profile, err := client.Me(ctx, token)
	if err != nil || profile.FullName != "Ana Souza" || profile.Role != "admin" {
		t.Fatalf("Me() = %+v, %v", profile, err)
	}

	users, err := client.ListUsers(ctx, token)
	if err != nil {
		t.Fatalf("ListUsers() вернул ошибку: %v", err)
	}
	if len(users) != 2 || users[0].ID != 2 || users[1].ID != 1 {
		t.Errorf("ListUsers() должен сохранять порядок backend, получено %+v", users)
	}

	created, err := client.CreateUser(ctx, token, CreateUserRequest{Username: "c", Password: "Senha123", FullName: "C", Role: "supervisor"})
	if err != nil || created == nil || created.ID != 3 {
		t.Fatalf("CreateUser() = %+v, %v", created, err)
	}

	updated, err := client.UpdateUser(ctx, token, 3, UpdateUserRequest{FullName: "C2", Role: "admin"})
	if err != nil {
		t.Fatalf("UpdateUser() вернул ошибку: %v", err)
	}
	if updated != nil {
		t.Errorf("UpdateUser() с пустым телом должен вернуть nil, получено %+v", updated)
	}

	if err := client.DeleteUser(ctx, token, 3); err != nil {
		t.Fatalf("DeleteUser() вернул ошибку: %v", err)
	}
	if err := client.ChangePassword(ctx, token, ChangePasswordRequest{OldPassword: "a", NewPassword: "b"}); err != nil {
		t.Fatalf("ChangePassword() вернул ошибку: %v", err)
	}

	bi, err := client.BIConfig(ctx, token)
	if err != nil || bi.EmbedURL != "https://bi.example/report" {
		t.Fatalf("BIConfig() = %+v, %v", bi, err)
	}

	for _, want := range []string{
		"GET /users/me", "GET /users", "POST /users/create", "PUT /users/3",
		"DELETE /users/3", "POST /users/me/password", "GET /bi-config",
	} {
		if !calls[want] {
			t.Errorf("запрос %s не выполнен", want)
		}
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantIs     error
	}{
		{
			name:       "строковый detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":"Usuário já existe"}`,
			wantDetail: "Usuário já existe",
		},
		{
			name:       "detail списком ошибок валидации",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","username"],"msg":"field required"},{"msg":"too short"}]}`,
			wantDetail: "field required; too short",
		},
		{
			name:   "тело не JSON",
			status: http.StatusInternalServerError,
			body:   `Internal Server Error`,
		},
		{
			name:   "403 сопоставляется с ErrForbidden",
			status: http.StatusForbidden,
			body:   `{"detail":"Acesso negado"}`,
			wantIs: ErrForbidden, wantDetail: "Acesso negado",
		},
		{
			name:   "404 сопоставляется с ErrNotFound",
			status: http.StatusNotFound,
			body:   `{}`,
			wantIs: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.CreateUser(context.Background(), "tok", CreateUserRequest{Username: "x"})
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("ожидалась *APIError, получено %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, ожидается %d", apiErr.Status, tt.status)
			}

			detail, ok := DetailOf(err)
			if detail != tt.wantDetail || ok != (tt.wantDetail != "") {
				t.Errorf("DetailOf() = %q, %v; ожидается %q", detail, ok, tt.wantDetail)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(err, %v) = false", tt.wantIs)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(url, "/docs", nil, testLogger())

	_, err := client.ListUsers(context.Background(), "tok")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ожидалась ErrUnavailable, получено %v", err)
	}
	if _, ok := DetailOf(err); ok {
		t.Error("у ошибки транспорта не должно быть detail")
	}

	status, _ := client.CheckReady()
	if status != "fail" {
		t.Errorf("CheckReady() = %q, ожидается fail", status)
	}
}

func TestClient_CheckReady(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"200 — ok", http.StatusOK, "ok"},
		{"404 — backend отвечает", http.StatusNotFound, "ok"},
		{"503 — fail", http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/docs" {
					t.Errorf("путь проверки = %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			})

			if got, _ := client.CheckReady(); got != tt.want {
				t.Errorf("CheckReady() = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestClient_EmptyEmbedURL(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"embed_url":""}`)
	})

	if _, err := client.BIConfig(context.Background(), "tok"); err == nil {
		t.Error("ожидалась ошибка для пустого embed_url")
	}
}
