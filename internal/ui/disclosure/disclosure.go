// Пакет disclosure — ограниченный показ карточек сервисов на dashboard:
// первые Limit карточек видны сразу, остальные открываются переключателем.
// Состояние не хранится между запросами: раскрытие задаётся параметром ссылки.
package disclosure

import "github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"

// Limit — число карточек, видимых до раскрытия.
const Limit = 4

// ExpandParam — query-параметр раскрытого состояния (?cards=all).
const (
	ExpandParam = "cards"
	ExpandValue = "all"
)

// Layout — способ раскладки карточек.
type Layout string

const (
	// LayoutVertical — все карточки столбцом, без переключателя.
	LayoutVertical Layout = "vertical"
	// LayoutCarousel — горизонтальная лента с ограничением.
	LayoutCarousel Layout = "carousel"
)

// State — состояние блока карточек для одного рендера.
type State struct {
	Role     string
	Total    int
	Expanded bool
	Layout   Layout
}

// Setup строит начальное (свёрнутое) состояние для роли и числа карточек.
// Повторный вызов с теми же аргументами даёт равное значение.
func Setup(role string, total int) State {
	if total < 0 {
		total = 0
	}
	s := State{Role: role, Total: total, Layout: LayoutCarousel}
	if role == rbac.RoleSolicitante {
		s.Layout = LayoutVertical
	}
	return s
}

// HasToggle сообщает, нужен ли переключатель.
func (s State) HasToggle() bool {
	return s.Layout == LayoutCarousel && s.Total > Limit
}

// Toggle возвращает состояние с инвертированным флагом раскрытия.
// Без переключателя состояние не меняется.
func (s State) Toggle() State {
	if s.HasToggle() {
		s.Expanded = !s.Expanded
	}
	return s
}

// Visible сообщает, показывается ли карточка с индексом i.
func (s State) Visible(i int) bool {
	if i < 0 || i >= s.Total {
		return false
	}
	if !s.HasToggle() || s.Expanded {
		return true
	}
	return i < Limit
}

// VisibleCount — число видимых карточек.
func (s State) VisibleCount() int {
	if !s.HasToggle() || s.Expanded {
		return s.Total
	}
	return Limit
}

// FromQuery применяет значение ?cards= к свёрнутому состоянию.
func (s State) FromQuery(value string) State {
	if value == ExpandValue && !s.Expanded {
		return s.Toggle()
	}
	return s
}
