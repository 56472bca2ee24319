package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/repository"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memAuditRepo — репозиторий аудита в памяти.
type memAuditRepo struct {
	mu        sync.Mutex
	events    []model.AuditEvent
	insertErr error
}

func (m *memAuditRepo) Insert(_ context.Context, e *model.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *memAuditRepo) matching(f repository.AuditFilter) []model.AuditEvent {
	var out []model.AuditEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if (f.Actor == "" || e.Actor == f.Actor) && (f.Action == "" || e.Action == f.Action) {
			out = append(out, e)
		}
	}
	return out
}

func (m *memAuditRepo) List(_ context.Context, f repository.AuditFilter) ([]model.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memAuditRepo) Count(_ context.Context, f repository.AuditFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

// actions возвращает типы записанных событий по порядку.
func (m *memAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

func TestAuditService_LogOnly(t *testing.T) {
	s := NewAuditService(nil, testLogger())

	if s.Enabled() {
		t.Error("Enabled() должен быть false без репозитория")
	}
	s.Record(context.Background(), model.AuditEvent{Action: model.AuditLogout, Actor: "ana"})

	if _, err := s.Search(context.Background(), AuditQuery{}); !errors.Is(err, ErrAuditDisabled) {
		t.Errorf("Search(): ожидалась ErrAuditDisabled, получено %v", err)
	}
}

func TestAuditService_Search(t *testing.T) {
	repo := &memAuditRepo{}
	s := NewAuditService(repo, testLogger())
	ctx := context.Background()

	for i := 0; i < auditPageSize+5; i++ {
		s.Record(ctx, model.AuditEvent{Action: model.AuditLoginSuccess, Actor: "ana", Target: strconv.Itoa(i)})
	}
	s.Record(ctx, model.AuditEvent{Action: model.AuditLogout, Actor: "bia"})

	tests := []struct {
		name       string
		query      AuditQuery
		wantEvents int
		wantTotal  int
		wantPage   int
		wantPages  int
		wantAction string
	}{
		{"первая страница", AuditQuery{}, auditPageSize, auditPageSize + 6, 1, 2, ""},
		{"вторая страница", AuditQuery{Page: 2}, 6, auditPageSize + 6, 2, 2, ""},
		{"страница за пределами — последняя", AuditQuery{Page: 99}, 6, auditPageSize + 6, 2, 2, ""},
		{"по пользователю", AuditQuery{Actor: " bia "}, 1, 1, 1, 1, ""},
		{"по действию", AuditQuery{Action: model.AuditLogout}, 1, 1, 1, 1, model.AuditLogout},
		{"неизвестное действие не фильтрует", AuditQuery{Action: "drop table"}, auditPageSize, auditPageSize + 6, 1, 2, ""},
		{"ничего не найдено", AuditQuery{Actor: "ninguem"}, 0, 0, 1, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search() вернул ошибку: %v", err)
			}
			if len(page.Events) != tt.wantEvents || page.Total != tt.wantTotal {
				t.Errorf("событий %d из %d, ожидается %d из %d", len(page.Events), page.Total, tt.wantEvents, tt.wantTotal)
			}
			if page.Query.Page != tt.wantPage || page.Pages != tt.wantPages {
				t.Errorf("страница %d/%d, ожидается %d/%d", page.Query.Page, page.Pages, tt.wantPage, tt.wantPages)
			}
			if page.Query.Action != tt.wantAction {
				t.Errorf("Action = %q, ожидается %q", page.Query.Action, tt.wantAction)
			}
		})
	}

	last, _ := s.Search(ctx, AuditQuery{})
	if last.Events[0].Actor != "bia" {
		t.Errorf("первым должно идти последнее событие, получено %+v", last.Events[0])
	}
	if last.HasPrev() || !last.HasNext() {
		t.Errorf("первая страница: HasPrev=%v HasNext=%v", last.HasPrev(), last.HasNext())
	}
}

// TestAuditService_InsertErrorSwallowed — сбой БД не прерывает действие.
func TestAuditService_InsertErrorSwallowed(t *testing.T) {
	repo := &memAuditRepo{insertErr: errors.New("connection refused")}
	s := NewAuditService(repo, testLogger())

	s.Record(context.Background(), model.AuditEvent{Action: model.AuditLogout, Actor: "ana"})
	if len(repo.actions()) != 0 {
		t.Error("событие не должно сохраниться")
	}
}
