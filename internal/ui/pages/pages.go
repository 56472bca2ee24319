// Пакет pages — HTML-страницы портала.
// Разметка описана в *.templ, *_templ.go создаются командой templ generate.
// Текст из данных выводится экранированным, адреса проходят через templ.URL.
package pages

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/directory"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/disclosure"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
)

const (
	// CardsBlockID — id блока карточек (якорь переключателя).
	CardsBlockID = "cards"

	// UsersPath — страница справочника пользователей.
	UsersPath = "/admin/users"
)

// LayoutProps — параметры общего каркаса страницы.
type LayoutProps struct {
	// TitleKey — ключ i18n заголовка страницы.
	TitleKey string
	// Flash — уведомление для показа (может быть nil).
	Flash *notify.Flash
	// ToastRegion — на странице есть область toast; иначе уведомление
	// выводится встроенным блоком.
	ToastRegion bool
	// Authenticated — показывать кнопку выхода.
	Authenticated bool
}

// LoginData — данные страницы входа.
type LoginData struct {
	// Flash — отложенное уведомление (например, об истёкшей сессии).
	Flash *notify.Flash
	// Error — сообщение об ошибке входа.
	Error string
	// Username — логин, введённый в прошлой попытке.
	Username string
}

// Card — карточка сервиса на dashboard.
type Card struct {
	// Key — ключ каталога: заголовок "card.<Key>", описание "card.<Key>.desc".
	Key string
	// Icon — класс иконки.
	Icon string
}

// DashboardData — данные страницы Dashboard.
type DashboardData struct {
	// DisplayName — имя для приветствия.
	DisplayName string
	Visibility  rbac.Visibility
	Cards       []Card
	Disclosure  disclosure.State
	// Toggle — переключатель блока карточек (nil — не показывается).
	Toggle *disclosure.Binding
	// EmbedURL — адрес отчёта BI (пусто — раздел скрыт).
	EmbedURL string
	// Password — окно смены пароля.
	Password *forms.Modal
	Flash    *notify.Flash
}

// UsersData — данные страницы управления пользователями.
type UsersData struct {
	Table directory.Table

	// Create — окно создания и введённые значения.
	Create     *forms.Modal
	CreateForm forms.CreateUserDTO

	// Edit — окно редактирования записи EditUser.
	Edit     *forms.Modal
	EditUser model.User
	EditForm forms.UpdateUserDTO

	// Delete — окно подтверждения удаления записи DeleteUser.
	Delete     *forms.Modal
	DeleteUser model.User

	// ConfirmModal — удаление через окно подтверждения;
	// false — форма с диалогом браузера confirm().
	ConfirmModal bool

	// AuditEnabled — журнал аудита хранится в БД; Audit — текущая страница
	// журнала с фильтром.
	AuditEnabled bool
	Audit        service.AuditPage

	Flash *notify.Flash
}

func userPath(id int64, action string) string {
	return fmt.Sprintf("%s/%d/%s", UsersPath, id, action)
}

func roleLabelKey(role string) string {
	return "role." + role
}

// auditPageURL — адрес страницы журнала с сохранением фильтра.
func auditPageURL(q service.AuditQuery, page int) string {
	v := url.Values{}
	if q.Actor != "" {
		v.Set("actor", q.Actor)
	}
	if q.Action != "" {
		v.Set("action", q.Action)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return UsersPath
	}
	return UsersPath + "?" + v.Encode()
}

func modalOpen(m *forms.Modal) bool {
	return m != nil && m.IsOpen()
}

func fieldID(inputName string) string {
	return "f-" + inputName
}
