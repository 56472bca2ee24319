// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных (до обращения к backend).
	ErrValidation = errors.New("ошибка валидации")
	// ErrAuditDisabled — хранение журнала аудита в БД не настроено.
	ErrAuditDisabled = errors.New("журнал аудита в БД не настроен")
)
