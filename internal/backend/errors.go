// errors.go — ошибки взаимодействия с backend.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized — backend отклонил токен или учётные данные (401).
	ErrUnauthorized = errors.New("backend: не авторизован")
	// ErrForbidden — недостаточно прав (403).
	ErrForbidden = errors.New("backend: доступ запрещён")
	// ErrNotFound — ресурс не найден (404).
	ErrNotFound = errors.New("backend: ресурс не найден")
	// ErrUnavailable — ошибка транспорта (backend недоступен).
	ErrUnavailable = errors.New("backend недоступен")
)

// APIError — ответ backend со статусом вне 2xx.
// Detail показывается пользователю как есть.
type APIError struct {
	Status int
	Detail string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend вернул статус %d", e.Status)
	}
	return fmt.Sprintf("backend вернул статус %d: %s", e.Status, e.Detail)
}

// Is сопоставляет статус с sentinel-ошибками пакета.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// DetailOf возвращает текст ошибки backend, если err — *APIError с detail.
// Второе значение false для прочих ошибок (транспорт, декодирование).
func DetailOf(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}
