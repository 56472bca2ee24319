package disclosure

import "net/url"

// Binding — переключатель, привязанный к блоку карточек.
// Href ведёт на противоположное состояние; LabelKey — ключ i18n подписи.
type Binding struct {
	ID       string
	Href     string
	LabelKey string
	Expanded bool
}

// Bindings — реестр переключателей одного рендера страницы.
// Register заменяет прежнюю привязку с тем же ID, поэтому повторная
// настройка блока не плодит переключатели.
type Bindings struct {
	order []string
	byID  map[string]Binding
}

// NewBindings создаёт пустой реестр.
func NewBindings() *Bindings {
	return &Bindings{byID: make(map[string]Binding)}
}

// Register привязывает переключатель блока id к состоянию s.
// Если переключатель не нужен, прежняя привязка снимается.
func (b *Bindings) Register(id, basePath string, s State) {
	if !s.HasToggle() {
		b.Teardown(id)
		return
	}

	q := url.Values{}
	labelKey := "cards.expand"
	if s.Expanded {
		labelKey = "cards.collapse"
	} else {
		q.Set(ExpandParam, ExpandValue)
	}
	href := basePath
	if enc := q.Encode(); enc != "" {
		href += "?" + enc
	}
	href += "#" + id

	if _, ok := b.byID[id]; !ok {
		b.order = append(b.order, id)
	}
	b.byID[id] = Binding{ID: id, Href: href, LabelKey: labelKey, Expanded: s.Expanded}
}

// Teardown снимает привязку блока id.
func (b *Bindings) Teardown(id string) {
	if _, ok := b.byID[id]; !ok {
		return
	}
	delete(b.byID, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Lookup возвращает привязку блока id.
func (b *Bindings) Lookup(id string) (Binding, bool) {
	v, ok := b.byID[id]
	return v, ok
}

// Len — число активных привязок.
func (b *Bindings) Len() int {
	return len(b.order)
}

// All возвращает привязки в порядке регистрации.
func (b *Bindings) All() []Binding {
	out := make([]Binding, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}
