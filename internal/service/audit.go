// Пакет service — бизнес-логика портала.
// audit.go — журнал аудита доступа: всегда в лог, в PostgreSQL — если настроено.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/repository"
)

// auditPageSize — событий на одной странице журнала.
const auditPageSize = 20

// AuditQuery — фильтр журнала на странице пользователей.
type AuditQuery struct {
	Actor  string
	Action string
	// Page — номер страницы, с 1.
	Page int
}

// AuditPage — одна страница журнала, от новых событий к старым.
type AuditPage struct {
	Events []model.AuditEvent
	// Query — фильтр после нормализации (неизвестное действие сброшено,
	// номер страницы ограничен числом страниц).
	Query AuditQuery
	Total int
	Pages int
}

// HasPrev сообщает, есть ли предыдущая страница.
func (p AuditPage) HasPrev() bool { return p.Query.Page > 1 }

// HasNext сообщает, есть ли следующая страница.
func (p AuditPage) HasNext() bool { return p.Query.Page < p.Pages }

// AuditService — запись и чтение журнала аудита.
type AuditService struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditService создаёт сервис аудита. repo == nil — события только в лог.
func NewAuditService(repo repository.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("component", "audit")),
	}
}

// Enabled сообщает, сохраняются ли события в БД.
func (s *AuditService) Enabled() bool {
	return s.repo != nil
}

// Record фиксирует событие. Ошибка записи в БД не прерывает действие
// пользователя: она только логируется.
func (s *AuditService) Record(ctx context.Context, event model.AuditEvent) {
	s.logger.Info("Событие аудита",
		slog.String("action", event.Action),
		slog.String("actor", event.Actor),
		slog.String("target", event.Target),
		slog.String("remote_addr", event.RemoteAddr),
		slog.String("detail", event.Detail),
	)

	if s.repo == nil {
		return
	}
	if err := s.repo.Insert(ctx, &event); err != nil {
		s.logger.Warn("Не удалось сохранить событие аудита",
			slog.String("action", event.Action),
			slog.String("error", err.Error()),
		)
	}
}

// Search возвращает страницу журнала по фильтру.
func (s *AuditService) Search(ctx context.Context, q AuditQuery) (AuditPage, error) {
	q.Actor = strings.TrimSpace(q.Actor)
	if !model.IsAuditAction(q.Action) {
		q.Action = ""
	}
	q.Page = max(q.Page, 1)

	if s.repo == nil {
		return AuditPage{Query: q, Pages: 1}, ErrAuditDisabled
	}

	filter := repository.AuditFilter{Actor: q.Actor, Action: q.Action, Limit: auditPageSize}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return AuditPage{Query: q, Pages: 1}, fmt.Errorf("ошибка подсчёта событий аудита: %w", err)
	}

	pages := max((total+auditPageSize-1)/auditPageSize, 1)
	q.Page = min(q.Page, pages)
	filter.Offset = (q.Page - 1) * auditPageSize

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return AuditPage{Query: q, Total: total, Pages: pages}, fmt.Errorf("ошибка выборки событий аудита: %w", err)
	}
	return AuditPage{Events: events, Query: q, Total: total, Pages: pages}, nil
}
