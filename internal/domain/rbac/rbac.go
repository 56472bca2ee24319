// Пакет rbac — роли портала и правила видимости разделов интерфейса.
// Роль из токена — только подсказка для UI: авторизацию выполняет backend.
package rbac

// Роли пользователей портала.
const (
	RoleAdmin       = "admin"
	RoleSupervisor  = "supervisor"
	RoleSolicitante = "solicitante"
)

// knownRoles — множество допустимых ролей.
var knownRoles = map[string]bool{
	RoleSolicitante: true,
	RoleSupervisor:  true,
	RoleAdmin:       true,
}

// Visibility — какие разделы dashboard показывать пользователю.
type Visibility struct {
	// AdminArea — блок управления пользователями.
	AdminArea bool
	// Reporting — раздел BI-отчётов.
	Reporting bool
}

// VisibilityFor вычисляет видимость разделов по роли.
// admin — всё; supervisor — только отчёты; любая другая строка — ничего.
func VisibilityFor(role string) Visibility {
	switch role {
	case RoleAdmin:
		return Visibility{AdminArea: true, Reporting: true}
	case RoleSupervisor:
		return Visibility{Reporting: true}
	default:
		return Visibility{}
	}
}

// CanManageUsers сообщает, открыт ли для роли раздел управления пользователями.
func CanManageUsers(role string) bool {
	return role == RoleAdmin
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	return knownRoles[role]
}

// Roles возвращает допустимые роли в порядке возрастания привилегий
// (для выпадающих списков форм).
func Roles() []string {
	return []string{RoleSolicitante, RoleSupervisor, RoleAdmin}
}
