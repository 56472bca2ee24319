// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
)

// HandleSetLanguage — POST /language: запоминает язык в cookie и
// возвращает пользователя на страницу из Referer. Неизвестный lang → pt.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.LangPT
	}

	http.SetCookie(w, languageCookie(lang))
	http.Redirect(w, r, backPath(r.Header.Get("Referer")), http.StatusSeeOther)
}

// langCookieTTL — срок хранения выбранного языка.
const langCookieTTL = 365 * 24 * time.Hour

// languageCookie — cookie выбранного языка (не HttpOnly, секретов в нём нет).
func languageCookie(lang string) *http.Cookie {
	return &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieTTL.Seconds()),
		Expires:  time.Now().Add(langCookieTTL),
		SameSite: http.SameSiteLaxMode,
	}
}

// backRoutes — разделы портала, куда можно вернуться после смены языка.
var backRoutes = []string{DashboardPath, "/admin/users"}

// backPath — путь (с query) из Referer. Хост отбрасывается; путь с обратной
// косой чертой или вне разделов портала заменяется на "/".
func backPath(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || strings.Contains(u.Path, "\\") {
		return "/"
	}
	path := u.EscapedPath()
	if !isBackRoute(path) {
		return "/"
	}
	if u.RawQuery != "" {
		return path + "?" + u.RawQuery
	}
	return path
}

func isBackRoute(path string) bool {
	for _, route := range backRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}
