// Пакет model — доменные модели портала.
package model

import "time"

// User — запись справочника пользователей backend.
// Пароль в модель не попадает: он только отправляется в backend.
type User struct {
	// ID — идентификатор пользователя в backend
	ID int64
	// Username — логин
	Username string
	// FullName — полное имя (может быть пустым)
	FullName string
	// Role — роль (admin, supervisor, solicitante)
	Role string
}

// DisplayFullName возвращает полное имя или "-" для пустого значения.
func (u *User) DisplayFullName() string {
	if u.FullName == "" {
		return "-"
	}
	return u.FullName
}

// Profile — данные текущего пользователя (GET /users/me).
type Profile struct {
	Username string
	FullName string
	Role     string
}

// AuditEvent — запись журнала аудита доступа.
type AuditEvent struct {
	// ID — UUID записи
	ID string
	// Action — тип события (login_success, login_failure, ...)
	Action string
	// Actor — пользователь, выполнивший действие (или логин при неудачном входе)
	Actor string
	// Target — объект действия (логин изменяемого пользователя), может быть пустым
	Target string
	// RemoteAddr — адрес клиента
	RemoteAddr string
	// Detail — дополнительная информация (сообщение ошибки backend и т.п.)
	Detail string
	// CreatedAt — время события
	CreatedAt time.Time
}

// Типы событий аудита.
const (
	AuditLoginSuccess   = "login_success"
	AuditLoginFailure   = "login_failure"
	AuditLogout         = "logout"
	AuditUserCreated    = "user_created"
	AuditUserUpdated    = "user_updated"
	AuditUserDeleted    = "user_deleted"
	AuditPasswordChange = "password_changed"
)

// AuditActions — все типы событий в порядке показа в фильтре журнала.
func AuditActions() []string {
	return []string{
		AuditLoginSuccess, AuditLoginFailure, AuditLogout,
		AuditUserCreated, AuditUserUpdated, AuditUserDeleted, AuditPasswordChange,
	}
}

// IsAuditAction сообщает, известен ли тип события.
func IsAuditAction(action string) bool {
	for _, a := range AuditActions() {
		if a == action {
			return true
		}
	}
	return false
}
