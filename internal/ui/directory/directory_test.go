package directory

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend/backendtest"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubLister — источник с заданным ответом.
type stubLister struct {
	users []model.User
	err   error
}

func (s stubLister) ListUsers(context.Context, string) ([]model.User, error) {
	return s.users, s.err
}

func TestLoadUsers(t *testing.T) {
	records := []model.User{
		{ID: 7, Username: "b", Role: "solicitante"},
		{ID: 3, Username: "a", FullName: "A", Role: "admin"},
	}

	tests := []struct {
		name       string
		lister     stubLister
		wantStatus Status
		wantRows   int
		wantKey    string
	}{
		{"ошибка backend", stubLister{err: backend.ErrForbidden}, StatusFailed, 1, LoadFailedKey},
		{"пустой список — одна строка-заглушка", stubLister{users: []model.User{}}, StatusEmpty, 1, EmptyKey},
		{"nil-список", stubLister{}, StatusEmpty, 1, EmptyKey},
		{"две записи", stubLister{users: records}, StatusLoaded, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewLoader(tt.lister, testLogger()).LoadUsers(context.Background(), "tok")

			if table.Status != tt.wantStatus {
				t.Errorf("Status = %q, ожидается %q", table.Status, tt.wantStatus)
			}
			if table.RowCount() != tt.wantRows {
				t.Errorf("RowCount() = %d, ожидается %d", table.RowCount(), tt.wantRows)
			}
			if got := table.PlaceholderKey(); got != tt.wantKey {
				t.Errorf("PlaceholderKey() = %q, ожидается %q", got, tt.wantKey)
			}
			if tt.wantStatus == StatusFailed {
				if table.Err == nil || len(table.Users) != 0 {
					t.Errorf("при ошибке ожидается Err и пустые строки: %+v", table)
				}
			}
		})
	}
}

// TestLoadUsers_ExactBackendResult — таблица содержит ровно записи ответа, в его порядке.
func TestLoadUsers_ExactBackendResult(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("admin", "Admin1234", "Administrador", "admin")
	srv.AddUser("maria", "Senha1234", "Maria", "supervisor")

	client := backend.New(srv.URL, "/docs", srv.Client(), testLogger())
	table := NewLoader(client, testLogger()).LoadUsers(context.Background(), srv.Token("admin"))

	want := srv.Users()
	if table.Status != StatusLoaded || len(table.Users) != len(want) {
		t.Fatalf("таблица %+v, ожидается %d записей", table, len(want))
	}
	for i := range want {
		if table.Users[i] != want[i] {
			t.Errorf("строка %d = %+v, ожидается %+v", i, table.Users[i], want[i])
		}
	}
}

func TestLoadUsers_Forbidden(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddUser("sol", "Senha1234", "", "solicitante")

	client := backend.New(srv.URL, "/docs", srv.Client(), testLogger())
	table := NewLoader(client, testLogger()).LoadUsers(context.Background(), srv.Token("sol"))

	if table.Status != StatusFailed || !errors.Is(table.Err, backend.ErrForbidden) {
		t.Errorf("таблица %+v, ожидается failed/ErrForbidden", table)
	}
}
