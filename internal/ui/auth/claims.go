// claims.go — чтение claims из токена backend без проверки подписи и заголовка.
// Роль из токена используется только для выбора разделов интерфейса;
// права проверяет backend при каждом запросе.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — токен не удалось разобрать или в нём нет роли.
var ErrInvalidToken = errors.New("недействительный токен")

// TokenClaims — claims токена, нужные порталу.
type TokenClaims struct {
	// Subject — логин владельца токена (sub).
	Subject string
	// Role — роль (admin, supervisor, solicitante).
	Role string
	// ExpiresAt — срок действия (нулевое значение, если exp нет).
	ExpiresAt time.Time
}

// payload — claims, которые читает портал. sub может быть строкой или числом.
type payload struct {
	Subject   json.RawMessage  `json:"sub"`
	Role      string           `json:"role"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

// parser — только для декодирования сегмента (base64url, padding допускается).
var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// ReadClaims декодирует средний сегмент токена. Заголовок и подпись
// не проверяются. Любая ошибка (число сегментов, base64, JSON, пустая роль)
// — ErrInvalidToken.
func ReadClaims(token string) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: ожидается 3 сегмента, получено %d", ErrInvalidToken, len(parts))
	}

	raw, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if p.Role == "" {
		return nil, fmt.Errorf("%w: claim role отсутствует", ErrInvalidToken)
	}

	tc := &TokenClaims{
		Subject: subjectString(p.Subject),
		Role:    p.Role,
	}
	if p.ExpiresAt != nil {
		tc.ExpiresAt = p.ExpiresAt.Time
	}
	return tc, nil
}

// subjectString: строка — как есть, иначе JSON-представление (42 → "42").
func subjectString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}
