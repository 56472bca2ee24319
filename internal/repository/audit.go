package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// Предельный размер страницы выборки.
const maxAuditLimit = 500

// AuditFilter — параметры выборки журнала. Пустые поля не фильтруют.
type AuditFilter struct {
	Actor  string
	Action string
	Limit  int
	Offset int
}

// AuditRepository — интерфейс для таблицы audit_events.
type AuditRepository interface {
	// Insert сохраняет событие. Пустой ID заполняется UUID, CreatedAt — временем БД.
	Insert(ctx context.Context, event *model.AuditEvent) error
	// List возвращает события от новых к старым.
	List(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, error)
	// Count возвращает число событий, подходящих под фильтр (без Limit/Offset).
	Count(ctx context.Context, filter AuditFilter) (int, error)
}

// auditRepo — реализация AuditRepository.
type auditRepo struct {
	db DBTX
}

// NewAuditRepository создаёт репозиторий журнала аудита.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepo{db: db}
}

// Insert сохраняет событие аудита.
func (r *auditRepo) Insert(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_events (id, action, actor, target, remote_addr, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		event.ID, event.Action, event.Actor, event.Target, event.RemoteAddr, event.Detail,
	).Scan(&event.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: audit_events[%s]", ErrConflict, event.ID)
		}
		return fmt.Errorf("ошибка сохранения события аудита: %w", err)
	}
	return nil
}

// List возвращает события по фильтру.
func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, error) {
	where, args := filter.where()

	limit := filter.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset := max(filter.Offset, 0)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT id, action, actor, target, remote_addr, detail, created_at
		FROM audit_events
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки audit_events: %w", err)
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var e model.AuditEvent
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.Target, &e.RemoteAddr, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения audit_events: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count возвращает число событий по фильтру.
func (r *auditRepo) Count(ctx context.Context, filter AuditFilter) (int, error) {
	where, args := filter.where()

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_events "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта audit_events: %w", err)
	}
	return count, nil
}

// where строит условие WHERE и аргументы для фильтра.
func (f AuditFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Actor != "" {
		args = append(args, f.Actor)
		conds = append(conds, fmt.Sprintf("actor = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
