// client.go — HTTP-клиент к REST API портала.
// Каждый запрос (кроме получения токена) отправляется с заголовком
// Authorization: Bearer <токен пользователя из сессии>.
// Повторов и обновления токена нет: ошибка возвращается вызывающему как есть.
// Операции: Login, Me, ListUsers, CreateUser, UpdateUser, DeleteUser,
// ChangePassword, BIConfig.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// maxErrorBody — сколько байт тела ошибки читать для извлечения detail.
const maxErrorBody = 64 * 1024

// Client — HTTP-клиент к REST API портала.
type Client struct {
	baseURL    string // Базовый URL backend (без trailing slash)
	healthPath string // Путь для проверки доступности

	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент к backend.
// baseURL — базовый URL (например, http://api.abv.local:8000).
// healthPath — путь для CheckReady (например, /docs).
// httpClient — HTTP-клиент (может содержать TLS конфигурацию); nil — клиент без таймаута.
func New(baseURL, healthPath string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if healthPath == "" {
		healthPath = "/"
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		healthPath: healthPath,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "backend_client")),
	}
}

// BaseURL возвращает базовый URL backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- HTTP helpers ---

// do выполняет запрос к backend и записывает метрики.
// token может быть пустым (только для /token).
func (c *Client) do(ctx context.Context, op, method, path, token string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	backendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		backendRequestsTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("Ошибка запроса к backend",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	backendRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// doJSON сериализует body в JSON и выполняет авторизованный запрос.
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body any) (*http.Response, error) {
	if body == nil {
		return c.do(ctx, op, method, path, token, nil, "")
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("сериализация тела запроса: %w", err)
	}
	return c.do(ctx, op, method, path, token, bytes.NewReader(data), "application/json")
}

// decodeResponse проверяет статус и декодирует JSON ответ в target.
// target == nil — тело ответа игнорируется.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа backend: %w", err)
		}
	}

	return nil
}

// decodeOptional как decodeResponse, но пустое тело ответа не считается ошибкой.
// Возвращает true, если target был заполнен.
func decodeOptional(resp *http.Response, target any) (bool, error) {
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return false, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("чтение ответа backend: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("декодирование ответа backend: %w", err)
	}
	return true, nil
}

// checkStatus возвращает *APIError для статусов вне 2xx.
// Тело ответа при ошибке читается для извлечения detail.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Status: resp.StatusCode,
		Detail: parseDetail(body),
	}
}

// --- Аутентификация ---

// Login обменивает логин и пароль на токен доступа (POST /token, form-urlencoded).
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	resp, err := c.do(ctx, "login", http.MethodPost, "/token", "",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := decodeResponse(resp, &token); err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("Login: backend вернул пустой access_token")
	}

	return &token, nil
}

// Me возвращает профиль владельца токена (GET /users/me).
func (c *Client) Me(ctx context.Context, token string) (*model.Profile, error) {
	resp, err := c.doJSON(ctx, "me", http.MethodGet, "/users/me", token, nil)
	if err != nil {
		return nil, err
	}

	var profile ProfileResponse
	if err := decodeResponse(resp, &profile); err != nil {
		return nil, fmt.Errorf("Me: %w", err)
	}

	return profile.toModel(), nil
}

// --- Users API ---

// ListUsers возвращает справочник пользователей (GET /users) в порядке backend.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	resp, err := c.doJSON(ctx, "list_users", http.MethodGet, "/users", token, nil)
	if err != nil {
		return nil, err
	}

	var list []UserResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}

	users := make([]model.User, 0, len(list))
	for i := range list {
		users = append(users, list[i].toModel())
	}
	return users, nil
}

// CreateUser создаёт пользователя (POST /users/create).
// Возвращает созданную запись или nil, если backend не вернул тело.
func (c *Client) CreateUser(ctx context.Context, token string, req CreateUserRequest) (*model.User, error) {
	resp, err := c.doJSON(ctx, "create_user", http.MethodPost, "/users/create", token, req)
	if err != nil {
		return nil, err
	}

	var created UserResponse
	ok, err := decodeOptional(resp, &created)
	if err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	if !ok {
		return nil, nil
	}

	u := created.toModel()
	return &u, nil
}

// UpdateUser обновляет пользователя (PUT /users/{id}).
// Пароль отправляется только если задан в req.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, req UpdateUserRequest) (*model.User, error) {
	path := "/users/" + strconv.FormatInt(id, 10)
	resp, err := c.doJSON(ctx, "update_user", http.MethodPut, path, token, req)
	if err != nil {
		return nil, err
	}

	var updated UserResponse
	ok, err := decodeOptional(resp, &updated)
	if err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	if !ok {
		return nil, nil
	}

	u := updated.toModel()
	return &u, nil
}

// DeleteUser удаляет пользователя (DELETE /users/{id}).
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	path := "/users/" + strconv.FormatInt(id, 10)
	resp, err := c.doJSON(ctx, "delete_user", http.MethodDelete, path, token, nil)
	if err != nil {
		return err
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return nil
}

// ChangePassword меняет пароль владельца токена (POST /users/me/password).
func (c *Client) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) error {
	resp, err := c.doJSON(ctx, "change_password", http.MethodPost, "/users/me/password", token, req)
	if err != nil {
		return err
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	return nil
}

// --- BI ---

// BIConfig возвращает адрес встраиваемого отчёта (GET /bi-config).
func (c *Client) BIConfig(ctx context.Context, token string) (*BIConfig, error) {
	resp, err := c.doJSON(ctx, "bi_config", http.MethodGet, "/bi-config", token, nil)
	if err != nil {
		return nil, err
	}

	var cfg BIConfig
	if err := decodeResponse(resp, &cfg); err != nil {
		return nil, fmt.Errorf("BIConfig: %w", err)
	}
	if cfg.EmbedURL == "" {
		return nil, fmt.Errorf("BIConfig: backend вернул пустой embed_url")
	}

	return &cfg, nil
}

// --- Readiness checker ---

// CheckReady проверяет доступность backend запросом к healthPath.
// Любой ответ ниже 500 считается признаком работающего backend.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.do(ctx, "health", http.MethodGet, c.healthPath, "", nil, "")
	if err != nil {
		return "fail", fmt.Sprintf("backend недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return "fail", fmt.Sprintf("backend вернул статус %d", resp.StatusCode)
	}

	return "ok", "backend доступен"
}
