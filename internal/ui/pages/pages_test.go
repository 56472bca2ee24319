package pages

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/rbac"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/directory"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/disclosure"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/forms"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("i18n", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() вернул ошибку: %v", err)
	}
	return buf.String()
}

func testCards(n int) []Card {
	keys := []string{"request", "tracking", "maintenance", "monitoring", "documents", "support"}
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{Key: keys[i%len(keys)], Icon: "fas fa-circle"}
	}
	return cards
}

func TestLogin_ErrorAndInlineFlash(t *testing.T) {
	html := renderString(t, Login(LoginData{
		Flash:    &notify.Flash{Level: notify.LevelError, Message: "Sessão expirada. Faça login novamente."},
		Error:    "Acesso negado: usuário ou senha incorretos.",
		Username: `ana"><b>`,
	}))

	if !strings.Contains(html, `class="login-error visible"`) {
		t.Error("блок ошибки входа должен быть видим")
	}
	if strings.Contains(html, `id="appToast"`) {
		t.Error("на странице входа нет области toast")
	}
	if !strings.Contains(html, `class="alert alert-error"`) || !strings.Contains(html, "Sessão expirada.") {
		t.Error("уведомление должно выводиться встроенным блоком")
	}
	if strings.Contains(html, `ana"><b>`) {
		t.Error("введённый логин должен экранироваться")
	}
}

func TestDashboard_Disclosure(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		total       int
		query       string
		wantVisible int
		wantToggle  bool
	}{
		{"admin, 6 карточек — видно 4", rbac.RoleAdmin, 6, "", 4, true},
		{"admin, раскрыто — видно все", rbac.RoleAdmin, 6, disclosure.ExpandValue, 6, true},
		{"supervisor, 4 карточки — без переключателя", rbac.RoleSupervisor, 4, "", 4, false},
		{"solicitante — все и без переключателя", rbac.RoleSolicitante, 6, "", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := disclosure.Setup(tt.role, tt.total).FromQuery(tt.query)
			bindings := disclosure.NewBindings()
			bindings.Register(CardsBlockID, "/dashboard", state)

			data := DashboardData{
				DisplayName: "Ana",
				Visibility:  rbac.VisibilityFor(tt.role),
				Cards:       testCards(tt.total),
				Disclosure:  state,
				Password:    forms.NewModal("password"),
			}
			if b, ok := bindings.Lookup(CardsBlockID); ok {
				data.Toggle = &b
			}

			html := renderString(t, Dashboard(data))

			visible := strings.Count(html, `class="card-action"`)
			if visible != tt.wantVisible {
				t.Errorf("видимых карточек %d, ожидается %d", visible, tt.wantVisible)
			}
			if got := strings.Contains(html, `id="btnExpandCards"`); got != tt.wantToggle {
				t.Errorf("переключатель = %v, ожидается %v", got, tt.wantToggle)
			}
			if !strings.Contains(html, "Olá, Ana") {
				t.Error("нет приветствия")
			}
		})
	}
}

func TestDashboard_RoleSections(t *testing.T) {
	tests := []struct {
		role      string
		wantAdmin bool
		wantBI    bool
	}{
		{rbac.RoleAdmin, true, true},
		{rbac.RoleSupervisor, false, true},
		{rbac.RoleSolicitante, false, false},
		{"desconhecido", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			html := renderString(t, Dashboard(DashboardData{
				DisplayName: "X",
				Visibility:  rbac.VisibilityFor(tt.role),
				Disclosure:  disclosure.Setup(tt.role, 0),
				EmbedURL:    "https://bi.example/report?id=1",
				Password:    forms.NewModal("password"),
			}))

			if got := strings.Contains(html, `id="adminArea"`); got != tt.wantAdmin {
				t.Errorf("adminArea = %v, ожидается %v", got, tt.wantAdmin)
			}
			if got := strings.Contains(html, `id="biSection"`); got != tt.wantBI {
				t.Errorf("biSection = %v, ожидается %v", got, tt.wantBI)
			}
		})
	}
}

func TestDashboard_UnsafeEmbedURL(t *testing.T) {
	html := renderString(t, Dashboard(DashboardData{
		Visibility: rbac.VisibilityFor(rbac.RoleAdmin),
		EmbedURL:   "javascript:alert(1)",
		Password:   forms.NewModal("password"),
	}))
	if strings.Contains(html, "javascript:alert") {
		t.Error("адрес со схемой javascript: не должен попадать в iframe")
	}
}

func TestDashboard_PasswordModal(t *testing.T) {
	m := forms.NewModal("password")
	_ = m.Open()
	_ = m.Reject("A nova senha deve ser diferente.", map[string]string{"NewPassword": "A nova senha deve ser diferente."})

	html := renderString(t, Dashboard(DashboardData{Password: m}))
	if !strings.Contains(html, `id="settingsModal"`) || !strings.Contains(html, `data-state="open"`) {
		t.Error("окно смены пароля должно быть открыто")
	}
	if !strings.Contains(html, `class="form-error"`) {
		t.Error("нет сообщения об ошибке в окне")
	}
}

func TestUsers_TableStates(t *testing.T) {
	tests := []struct {
		name     string
		table    directory.Table
		wantRows int
		wantText string
	}{
		{"пустой список — одна строка", directory.Table{Status: directory.StatusEmpty}, 1, "Nenhum usuário cadastrado"},
		{"ошибка загрузки — одна строка", directory.Table{Status: directory.StatusFailed}, 1, "Erro ao carregar usuários."},
		{
			name: "строка на запись",
			table: directory.Table{Status: directory.StatusLoaded, Users: []model.User{
				{ID: 1, Username: "ana", Role: "admin"},
				{ID: 2, Username: "bia", FullName: "Bia", Role: "solicitante"},
			}},
			wantRows: 2,
			wantText: "bia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderString(t, Users(UsersData{Table: tt.table, ConfirmModal: true}))

			start := strings.Index(html, `<tbody id="usersTableBody"`)
			end := strings.Index(html[start:], `</tbody>`)
			body := html[start : start+end]
			if rows := strings.Count(body, "<tr"); rows != tt.wantRows {
				t.Errorf("строк %d, ожидается %d", rows, tt.wantRows)
			}
			if !strings.Contains(body, tt.wantText) {
				t.Errorf("в таблице нет %q", tt.wantText)
			}
		})
	}
}

func TestUsers_EscapesFields(t *testing.T) {
	html := renderString(t, Users(UsersData{
		Table: directory.Table{Status: directory.StatusLoaded, Users: []model.User{
			{ID: 7, Username: "<script>alert(1)</script>", FullName: `<img src=x onerror=alert(1)>`, Role: "<b>root</b>"},
		}},
		ConfirmModal: true,
	}))

	for _, raw := range []string{"<script>alert(1)</script>", "<img src=x", "<b>root</b>"} {
		if strings.Contains(html, raw) {
			t.Errorf("неэкранированный текст %q в разметке", raw)
		}
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("логин должен выводиться экранированным")
	}
}

func TestUsers_DeleteFallback(t *testing.T) {
	table := directory.Table{Status: directory.StatusLoaded, Users: []model.User{{ID: 3, Username: "joao", Role: "supervisor"}}}

	withModal := renderString(t, Users(UsersData{Table: table, ConfirmModal: true}))
	if !strings.Contains(withModal, `href="/admin/users/3/delete"`) || strings.Contains(withModal, "onsubmit") {
		t.Error("в режиме окна удаление — ссылка на окно подтверждения")
	}

	fallback := renderString(t, Users(UsersData{Table: table, ConfirmModal: false}))
	if !strings.Contains(fallback, `action="/admin/users/3/delete"`) || !strings.Contains(fallback, "return confirm(") {
		t.Error("без окна удаление — форма с confirm()")
	}
}

func TestUsers_DeleteModal(t *testing.T) {
	m := forms.NewModal("delete")
	_ = m.Open()

	html := renderString(t, Users(UsersData{
		Table:        directory.Table{Status: directory.StatusEmpty},
		Delete:       m,
		DeleteUser:   model.User{ID: 9, Username: "carla"},
		ConfirmModal: true,
	}))
	if !strings.Contains(html, `id="confirmDeleteModal"`) {
		t.Fatal("окно подтверждения не выведено")
	}
	if !strings.Contains(html, "carla") || !strings.Contains(html, `action="/admin/users/9/delete"`) {
		t.Error("окно должно ссылаться на удаляемую запись")
	}
}

func TestUsers_Audit(t *testing.T) {
	html := renderString(t, Users(UsersData{
		Table:        directory.Table{Status: directory.StatusEmpty},
		AuditEnabled: true,
		Audit: service.AuditPage{
			Events: []model.AuditEvent{{Action: model.AuditUserCreated, Actor: "admin", Target: "joao"}},
			Query:  service.AuditQuery{Page: 1},
			Total:  1,
			Pages:  1,
		},
	}))
	if !strings.Contains(html, `class="audit"`) || !strings.Contains(html, "joao") {
		t.Error("журнал аудита не выведен")
	}
	if !strings.Contains(html, `id="auditFilter"`) {
		t.Error("нет формы фильтра журнала")
	}
	if strings.Contains(html, `class="pager"`) {
		t.Error("для одной страницы навигация не выводится")
	}

	off := renderString(t, Users(UsersData{Table: directory.Table{Status: directory.StatusEmpty}}))
	if strings.Contains(off, `class="audit"`) {
		t.Error("без БД аудита блок не выводится")
	}
}

func TestUsers_AuditPager(t *testing.T) {
	html := renderString(t, Users(UsersData{
		Table:        directory.Table{Status: directory.StatusEmpty},
		AuditEnabled: true,
		Audit: service.AuditPage{
			Events: []model.AuditEvent{{Action: model.AuditLogout, Actor: "ana"}},
			Query:  service.AuditQuery{Actor: "ana", Action: model.AuditLogout, Page: 2},
			Total:  45,
			Pages:  3,
		},
	}))

	for _, want := range []string{
		`href="/admin/users?action=logout&amp;actor=ana"`,
		`href="/admin/users?action=logout&amp;actor=ana&amp;page=3"`,
		`<option value="logout" selected>`,
		`value="ana"`,
		"Página 2 de 3",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("в разметке нет %q", want)
		}
	}
}

func TestAuditPageURL(t *testing.T) {
	tests := []struct {
		name string
		q    service.AuditQuery
		page int
		want string
	}{
		{"без фильтра, первая страница", service.AuditQuery{}, 1, UsersPath},
		{"без фильтра, вторая страница", service.AuditQuery{}, 2, UsersPath + "?page=2"},
		{"фильтр экранируется", service.AuditQuery{Actor: "a b&c"}, 1, UsersPath + "?actor=a+b%26c"},
		{"действие и страница", service.AuditQuery{Action: model.AuditLoginFailure}, 4, UsersPath + "?action=login_failure&page=4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auditPageURL(tt.q, tt.page); got != tt.want {
				t.Errorf("auditPageURL() = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := Login(LoginData{}).Render(ctx, &buf); err == nil {
		t.Error("рендер с отменённым контекстом должен вернуть ошибку")
	}
	if buf.Len() != 0 {
		t.Errorf("при отменённом контексте ничего не пишется, записано %d байт", buf.Len())
	}
}
