// Пакет notify — одноразовые уведомления пользователю (flash).
// Уведомление кладётся в cookie перед redirect и показывается следующей
// страницей: toast, либо встроенный блок, если на странице нет области toast.
package notify

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
)

// CookieName — имя cookie с отложенным уведомлением.
const CookieName = "portal_flash"

// Level — тип уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Flash — уведомление, ожидающее показа.
type Flash struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// IsError сообщает, является ли уведомление ошибкой.
func (f *Flash) IsError() bool {
	return f.Level == LevelError
}

// TitleKey — ключ i18n заголовка toast ("Erro" / "Sucesso").
func (f *Flash) TitleKey() string {
	if f.IsError() {
		return "toast.error"
	}
	return "toast.success"
}

// Notifier записывает и забирает flash-cookie.
type Notifier struct {
	secure bool
}

// New создаёт Notifier. secure — Secure flag для cookie.
func New(secure bool) *Notifier {
	return &Notifier{secure: secure}
}

// Notify ставит уведомление в очередь. Предыдущее непоказанное заменяется.
func (n *Notifier) Notify(w http.ResponseWriter, level Level, message string) {
	data, err := json.Marshal(Flash{Level: level, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   n.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Success ставит уведомление об успехе.
func (n *Notifier) Success(w http.ResponseWriter, message string) {
	n.Notify(w, LevelSuccess, message)
}

// Error ставит уведомление об ошибке.
func (n *Notifier) Error(w http.ResponseWriter, message string) {
	n.Notify(w, LevelError, message)
}

// Take читает уведомление из запроса и удаляет cookie.
// Возвращает nil, если уведомления нет или cookie повреждён.
func (n *Notifier) Take(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   n.secure,
		SameSite: http.SameSiteLaxMode,
	})

	f, err := decode(cookie.Value)
	if err != nil {
		return nil
	}
	return f
}

func decode(value string) (*Flash, error) {
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Message == "" {
		return nil, errors.New("пустое уведомление")
	}
	if f.Level != LevelError {
		f.Level = LevelSuccess
	}
	return &f, nil
}
