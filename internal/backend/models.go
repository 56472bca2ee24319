// Пакет backend — HTTP-клиент к REST API портала (токены, пользователи, BI).
// models.go — модели запросов и ответов backend.
package backend

import (
	"encoding/json"
	"strings"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// TokenResponse — ответ POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: структура токена OAuth2
	TokenType   string `json:"token_type"`
}

// ProfileResponse — ответ GET /users/me.
type ProfileResponse struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// toModel преобразует ответ в доменную модель.
func (p *ProfileResponse) toModel() *model.Profile {
	return &model.Profile{
		Username: p.Username,
		FullName: p.FullName,
		Role:     p.Role,
	}
}

// UserResponse — запись справочника пользователей.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// toModel преобразует ответ в доменную модель.
func (u *UserResponse) toModel() model.User {
	return model.User{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// CreateUserRequest — тело POST /users/create.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // G117: пароль передаётся в backend
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UpdateUserRequest — тело PUT /users/{id}.
// Password отправляется только если задан.
type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"` //nolint:gosec // G117: пароль передаётся в backend
}

// ChangePasswordRequest — тело POST /users/me/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"` //nolint:gosec // G117: пароль передаётся в backend
	NewPassword string `json:"new_password"` //nolint:gosec // G117: пароль передаётся в backend
}

// BIConfig — ответ GET /bi-config.
type BIConfig struct {
	EmbedURL string `json:"embed_url"`
}

// errorBody — тело ошибки backend.
// detail бывает строкой либо списком ошибок валидации вида [{"msg": "..."}].
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// validationItem — элемент списка ошибок валидации.
type validationItem struct {
	Msg string `json:"msg"`
}

// parseDetail извлекает текст ошибки из тела ответа backend.
// Если тело не распознано — возвращает пустую строку.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
