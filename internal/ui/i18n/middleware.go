// middleware.go — выбор языка запроса.
package i18n

import (
	"net/http"
)

// LangCookieName — cookie с явно выбранным языком.
const LangCookieName = "lang"

// Middleware кладёт язык в контекст запроса и выставляет Content-Language.
// Порядок: cookie "lang" → Accept-Language → defaultLang (неподдерживаемый заменяется на pt).
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	if !IsSupported(defaultLang) {
		defaultLang = baseLang
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(r, defaultLang)

			w.Header().Set("Content-Language", lang)
			w.Header().Add("Vary", "Accept-Language, Cookie")

			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

func detectLanguage(r *http.Request, defaultLang string) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept, defaultLang)
	}
	return defaultLang
}
