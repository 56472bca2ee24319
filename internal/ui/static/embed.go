// Пакет static — CSS, JS и service worker портала, встроенные в бинарник.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js sw.js
var assets embed.FS

// ServiceWorkerPath — путь service worker относительно префикса статики.
const ServiceWorkerPath = "/sw.js"

// FS — встроенные файлы (css/portal.css, js/portal.js, sw.js).
func FS() fs.FS {
	return assets
}

// Handler раздаёт файлы под prefix (например, /static/css/portal.css).
// Service worker отдаётся с Service-Worker-Allowed: /, чтобы его область
// охватывала весь портал, и без кеширования браузером.
func Handler(prefix string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServerFS(assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == prefix+ServiceWorkerPath {
			w.Header().Set("Service-Worker-Allowed", "/")
			w.Header().Set("Cache-Control", "no-cache")
		}
		files.ServeHTTP(w, r)
	})
}
