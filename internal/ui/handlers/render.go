// Пакет handlers — HTTP-обработчики страниц портала.
// render.go — общий вывод страниц и данные инициатора действия.
package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	uimiddleware "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/middleware"
)

// renderPage рендерит страницу в буфер и отправляет её с кодом status.
// При ошибке рендеринга клиент получает 500 без частичной разметки.
func renderPage(w http.ResponseWriter, r *http.Request, status int, page templ.Component, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := page.Render(r.Context(), &buf); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// logTransition логирует переход модального окна, отклонённый машиной
// состояний. Страница всё равно выводится в текущем состоянии окна.
func logTransition(r *http.Request, logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logger.Error("Недопустимый переход модального окна",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// actorFrom — инициатор действия по сессии запроса.
func actorFrom(r *http.Request) service.Actor {
	actor := service.Actor{RemoteAddr: r.RemoteAddr}
	if session := uimiddleware.SessionFromContext(r.Context()); session != nil {
		actor.Username = session.UserName
		actor.Token = session.Token
	}
	return actor
}

// failureMessage формирует сообщение о неудачном изменении:
// ошибка транспорта — connKey; иначе prefixKey с detail backend
// (или fallbackKey, если detail нет).
func failureMessage(ctx context.Context, err error, prefixKey, fallbackKey, connKey string) string {
	if errors.Is(err, backend.ErrUnavailable) {
		return i18n.T(ctx, connKey)
	}
	detail, ok := backend.DetailOf(err)
	if !ok {
		detail = i18n.T(ctx, fallbackKey)
	}
	return i18n.Tf(ctx, prefixKey, detail)
}
