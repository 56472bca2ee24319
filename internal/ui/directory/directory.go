// Пакет directory — загрузка таблицы пользователей для страницы администрирования.
// Таблица строится заново на каждый запрос только из ответа GET /users.
package directory

import (
	"context"
	"log/slog"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// Status — состояние таблицы.
type Status string

const (
	StatusFailed Status = "failed"
	StatusEmpty  Status = "empty"
	StatusLoaded Status = "loaded"
)

// Ключи i18n для строки-заглушки и уведомления.
const (
	LoadFailedKey = "users.load_failed"
	EmptyKey      = "users.empty"
)

// Table — содержимое таблицы пользователей одного рендера.
type Table struct {
	Status Status
	Users  []model.User
	// Err — причина неудачи (только для StatusFailed).
	Err error
}

// PlaceholderKey — ключ текста строки-заглушки; "" для StatusLoaded.
func (t Table) PlaceholderKey() string {
	switch t.Status {
	case StatusFailed:
		return LoadFailedKey
	case StatusEmpty:
		return EmptyKey
	default:
		return ""
	}
}

// RowCount — число строк tbody: одна строка-заглушка для состояний
// без данных, иначе по строке на запись.
func (t Table) RowCount() int {
	if t.Status == StatusLoaded {
		return len(t.Users)
	}
	return 1
}

// UserLister — источник списка пользователей (backend.Client).
type UserLister interface {
	ListUsers(ctx context.Context, token string) ([]model.User, error)
}

// Loader загружает таблицу пользователей.
type Loader struct {
	users  UserLister
	logger *slog.Logger
}

// NewLoader создаёт Loader.
func NewLoader(users UserLister, logger *slog.Logger) *Loader {
	return &Loader{
		users:  users,
		logger: logger.With(slog.String("component", "directory")),
	}
}

// LoadUsers запрашивает список и возвращает таблицу в одном из конечных состояний.
func (l *Loader) LoadUsers(ctx context.Context, token string) Table {
	users, err := l.users.ListUsers(ctx, token)
	if err != nil {
		l.logger.Warn("Не удалось загрузить пользователей",
			slog.String("error", err.Error()),
		)
		return Table{Status: StatusFailed, Err: err}
	}

	if len(users) == 0 {
		return Table{Status: StatusEmpty}
	}
	return Table{Status: StatusLoaded, Users: users}
}
