// Пакет config — загрузка и валидация конфигурации портала
// из переменных окружения (и опционального файла .env).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации портала.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend REST API ---

	// Базовый URL backend (например, http://api.abv.local:8000)
	BackendURL string
	// Таймаут запросов к backend (0 — без таймаута, поведение net/http по умолчанию)
	BackendTimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с backend (опционально)
	BackendCACertPath string
	// Путь для HTTP-проверки доступности backend (topologymetrics, readiness)
	BackendHealthPath string

	// --- Сессии ---

	// Секрет для шифрования session cookie (пустой — случайный ключ на время жизни процесса)
	SessionSecret string
	// Время жизни session cookie
	SessionMaxAge time.Duration
	// Secure flag для cookie (включать за HTTPS)
	SecureCookie bool

	// --- UI ---

	// Язык по умолчанию (pt, en)
	DefaultLang string
	// Подтверждение удаления в модальном окне (false — диалог браузера confirm())
	ConfirmModal bool

	// --- Политика паролей ---

	// Минимальная длина пароля
	PasswordMinLength int
	// Требовать хотя бы одну строчную букву
	PasswordRequireLower bool
	// Запрещать пробельные символы в пароле
	PasswordForbidWhitespace bool

	// --- PostgreSQL (журнал аудита, опционально) ---

	// Хост PostgreSQL (пустой — аудит только в лог)
	AuditDBHost string
	// Порт PostgreSQL
	AuditDBPort int
	// Имя базы данных
	AuditDBName string
	// Имя пользователя PostgreSQL
	AuditDBUser string
	// Пароль пользователя PostgreSQL
	AuditDBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	AuditDBSSLMode string

	// --- topologymetrics ---

	// Группа сервиса в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// LoadDotEnv загружает переменные из файла .env, если он существует.
// Уже заданные переменные окружения не перезаписываются.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("ошибка загрузки %s: %w", path, err)
	}
	return nil
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PORTAL_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("PORTAL_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORTAL_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// PORTAL_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PORTAL_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PORTAL_LOG_LEVEL: %w", err)
	}

	// PORTAL_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PORTAL_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PORTAL_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend ---

	// PORTAL_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("PORTAL_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if u, parseErr := url.Parse(cfg.BackendURL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("PORTAL_BACKEND_URL: некорректный URL %q", cfg.BackendURL)
	}

	// PORTAL_BACKEND_TIMEOUT — таймаут запросов к backend (по умолчанию без таймаута)
	cfg.BackendTimeout, err = getEnvDuration("PORTAL_BACKEND_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_BACKEND_TIMEOUT: %w", err)
	}

	// PORTAL_BACKEND_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.BackendCACertPath = getEnvDefault("PORTAL_BACKEND_CA_CERT_PATH", "")

	// PORTAL_BACKEND_HEALTH_PATH — путь проверки backend (по умолчанию /docs)
	cfg.BackendHealthPath = getEnvDefault("PORTAL_BACKEND_HEALTH_PATH", "/docs")
	if !strings.HasPrefix(cfg.BackendHealthPath, "/") {
		return nil, fmt.Errorf("PORTAL_BACKEND_HEALTH_PATH: путь должен начинаться с '/', получено %q", cfg.BackendHealthPath)
	}

	// --- Сессии ---

	// PORTAL_SESSION_SECRET — секрет сессий (опционально)
	cfg.SessionSecret = getEnvDefault("PORTAL_SESSION_SECRET", "")

	// PORTAL_SESSION_MAX_AGE — время жизни сессии (по умолчанию 30m, как срок жизни токена backend)
	cfg.SessionMaxAge, err = getEnvDuration("PORTAL_SESSION_MAX_AGE", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_SESSION_MAX_AGE: %w", err)
	}
	if cfg.SessionMaxAge < time.Minute {
		return nil, fmt.Errorf("PORTAL_SESSION_MAX_AGE: значение %s меньше минимального 1m", cfg.SessionMaxAge)
	}

	// PORTAL_SECURE_COOKIE — Secure flag для cookie (по умолчанию false)
	cfg.SecureCookie, err = getEnvBool("PORTAL_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_SECURE_COOKIE: %w", err)
	}

	// --- UI ---

	// PORTAL_DEFAULT_LANG — язык по умолчанию (pt)
	cfg.DefaultLang = getEnvDefault("PORTAL_DEFAULT_LANG", "pt")
	if cfg.DefaultLang != "pt" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("PORTAL_DEFAULT_LANG: недопустимое значение %q, допустимые: pt, en", cfg.DefaultLang)
	}

	// PORTAL_UI_CONFIRM_MODAL — модальное окно подтверждения удаления (true)
	cfg.ConfirmModal, err = getEnvBool("PORTAL_UI_CONFIRM_MODAL", true)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_UI_CONFIRM_MODAL: %w", err)
	}

	// --- Политика паролей ---

	// PORTAL_PASSWORD_MIN_LENGTH — минимальная длина пароля (по умолчанию 8)
	cfg.PasswordMinLength, err = getEnvInt("PORTAL_PASSWORD_MIN_LENGTH", 8)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_PASSWORD_MIN_LENGTH: %w", err)
	}
	if cfg.PasswordMinLength < 1 || cfg.PasswordMinLength > 128 {
		return nil, fmt.Errorf("PORTAL_PASSWORD_MIN_LENGTH: значение %d вне допустимого диапазона 1-128", cfg.PasswordMinLength)
	}

	// PORTAL_PASSWORD_REQUIRE_LOWER — требовать строчную букву (по умолчанию true)
	cfg.PasswordRequireLower, err = getEnvBool("PORTAL_PASSWORD_REQUIRE_LOWER", true)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_PASSWORD_REQUIRE_LOWER: %w", err)
	}

	// PORTAL_PASSWORD_FORBID_WHITESPACE — запрещать пробелы (по умолчанию true)
	cfg.PasswordForbidWhitespace, err = getEnvBool("PORTAL_PASSWORD_FORBID_WHITESPACE", true)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_PASSWORD_FORBID_WHITESPACE: %w", err)
	}

	// --- PostgreSQL (аудит) ---

	// PORTAL_AUDIT_DB_HOST — опциональный; без него остальные DB-переменные не проверяются
	cfg.AuditDBHost = getEnvDefault("PORTAL_AUDIT_DB_HOST", "")
	if cfg.AuditDBHost != "" {
		cfg.AuditDBPort, err = getEnvInt("PORTAL_AUDIT_DB_PORT", 5432)
		if err != nil {
			return nil, fmt.Errorf("PORTAL_AUDIT_DB_PORT: %w", err)
		}

		cfg.AuditDBName, err = getEnvRequired("PORTAL_AUDIT_DB_NAME")
		if err != nil {
			return nil, err
		}

		cfg.AuditDBUser, err = getEnvRequired("PORTAL_AUDIT_DB_USER")
		if err != nil {
			return nil, err
		}

		cfg.AuditDBPassword, err = getEnvRequired("PORTAL_AUDIT_DB_PASSWORD")
		if err != nil {
			return nil, err
		}

		cfg.AuditDBSSLMode = getEnvDefault("PORTAL_AUDIT_DB_SSL_MODE", "disable")
		validSSLModes := map[string]bool{
			"disable": true, "require": true, "verify-ca": true, "verify-full": true,
		}
		if !validSSLModes[cfg.AuditDBSSLMode] {
			return nil, fmt.Errorf("PORTAL_AUDIT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.AuditDBSSLMode)
		}
	}

	// --- topologymetrics ---

	// PORTAL_DEPHEALTH_GROUP — группа сервиса (по умолчанию portal-abv)
	cfg.DephealthGroup = getEnvDefault("PORTAL_DEPHEALTH_GROUP", "portal-abv")

	// PORTAL_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("PORTAL_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// PORTAL_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PORTAL_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// AuditEnabled сообщает, настроено ли хранение журнала аудита в PostgreSQL.
func (c *Config) AuditEnabled() bool {
	return c.AuditDBHost != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.AuditDBHost, c.AuditDBPort, c.AuditDBName, c.AuditDBUser, c.AuditDBPassword, c.AuditDBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL без пароля
// (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.AuditDBUser, c.AuditDBHost, c.AuditDBPort, c.AuditDBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
