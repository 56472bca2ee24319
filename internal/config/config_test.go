package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allKeys — все переменные, читаемые Load(). Очищаются перед каждым тестом,
// чтобы окружение разработчика не влияло на результат.
var allKeys = []string{
	"PORTAL_PORT", "PORTAL_LOG_LEVEL", "PORTAL_LOG_FORMAT",
	"PORTAL_BACKEND_URL", "PORTAL_BACKEND_TIMEOUT", "PORTAL_BACKEND_CA_CERT_PATH", "PORTAL_BACKEND_HEALTH_PATH",
	"PORTAL_SESSION_SECRET", "PORTAL_SESSION_MAX_AGE", "PORTAL_SECURE_COOKIE",
	"PORTAL_DEFAULT_LANG", "PORTAL_UI_CONFIRM_MODAL",
	"PORTAL_PASSWORD_MIN_LENGTH", "PORTAL_PASSWORD_REQUIRE_LOWER", "PORTAL_PASSWORD_FORBID_WHITESPACE",
	"PORTAL_AUDIT_DB_HOST", "PORTAL_AUDIT_DB_PORT", "PORTAL_AUDIT_DB_NAME", "PORTAL_AUDIT_DB_USER",
	"PORTAL_AUDIT_DB_PASSWORD", "PORTAL_AUDIT_DB_SSL_MODE",
	"PORTAL_DEPHEALTH_GROUP", "PORTAL_DEPHEALTH_CHECK_INTERVAL",
	"PORTAL_SHUTDOWN_TIMEOUT",
}

// setEnvs очищает известные переменные и устанавливает переданные.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"PORTAL_BACKEND_URL": "http://api.abv.local:8000/",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, ожидается 8000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.BackendURL != "http://api.abv.local:8000" {
		t.Errorf("BackendURL = %q, trailing slash должен быть убран", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 0 {
		t.Errorf("BackendTimeout = %v, ожидается 0", cfg.BackendTimeout)
	}
	if cfg.BackendHealthPath != "/docs" {
		t.Errorf("BackendHealthPath = %q, ожидается /docs", cfg.BackendHealthPath)
	}
	if cfg.SessionMaxAge != 30*time.Minute {
		t.Errorf("SessionMaxAge = %v, ожидается 30m", cfg.SessionMaxAge)
	}
	if cfg.SecureCookie {
		t.Error("SecureCookie должен быть false по умолчанию")
	}
	if cfg.DefaultLang != "pt" {
		t.Errorf("DefaultLang = %q, ожидается pt", cfg.DefaultLang)
	}
	if !cfg.ConfirmModal {
		t.Error("ConfirmModal должен быть true по умолчанию")
	}
	if cfg.PasswordMinLength != 8 || !cfg.PasswordRequireLower || !cfg.PasswordForbidWhitespace {
		t.Errorf("политика паролей по умолчанию: min=%d lower=%v ws=%v",
			cfg.PasswordMinLength, cfg.PasswordRequireLower, cfg.PasswordForbidWhitespace)
	}
	if cfg.AuditEnabled() {
		t.Error("AuditEnabled() должен быть false без PORTAL_AUDIT_DB_HOST")
	}
	if cfg.DephealthGroup != "portal-abv" {
		t.Errorf("DephealthGroup = %q, ожидается portal-abv", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["PORTAL_PORT"] = "9090"
	envs["PORTAL_LOG_LEVEL"] = "debug"
	envs["PORTAL_LOG_FORMAT"] = "text"
	envs["PORTAL_BACKEND_TIMEOUT"] = "10s"
	envs["PORTAL_BACKEND_HEALTH_PATH"] = "/health"
	envs["PORTAL_SESSION_MAX_AGE"] = "1h"
	envs["PORTAL_SECURE_COOKIE"] = "true"
	envs["PORTAL_DEFAULT_LANG"] = "en"
	envs["PORTAL_UI_CONFIRM_MODAL"] = "false"
	envs["PORTAL_PASSWORD_MIN_LENGTH"] = "12"
	envs["PORTAL_PASSWORD_REQUIRE_LOWER"] = "false"
	envs["PORTAL_PASSWORD_FORBID_WHITESPACE"] = "false"
	envs["PORTAL_AUDIT_DB_HOST"] = "db.local"
	envs["PORTAL_AUDIT_DB_NAME"] = "portal"
	envs["PORTAL_AUDIT_DB_USER"] = "portal"
	envs["PORTAL_AUDIT_DB_PASSWORD"] = "secret"
	envs["PORTAL_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, ожидается 10s", cfg.BackendTimeout)
	}
	if cfg.BackendHealthPath != "/health" {
		t.Errorf("BackendHealthPath = %q, ожидается /health", cfg.BackendHealthPath)
	}
	if cfg.SessionMaxAge != time.Hour {
		t.Errorf("SessionMaxAge = %v, ожидается 1h", cfg.SessionMaxAge)
	}
	if !cfg.SecureCookie {
		t.Error("SecureCookie = false, ожидается true")
	}
	if cfg.DefaultLang != "en" {
		t.Errorf("DefaultLang = %q, ожидается en", cfg.DefaultLang)
	}
	if cfg.ConfirmModal {
		t.Error("ConfirmModal = true, ожидается false")
	}
	if cfg.PasswordMinLength != 12 || cfg.PasswordRequireLower || cfg.PasswordForbidWhitespace {
		t.Errorf("политика паролей: min=%d lower=%v ws=%v",
			cfg.PasswordMinLength, cfg.PasswordRequireLower, cfg.PasswordForbidWhitespace)
	}
	if !cfg.AuditEnabled() {
		t.Error("AuditEnabled() = false, ожидается true")
	}
	if cfg.AuditDBPort != 5432 || cfg.AuditDBSSLMode != "disable" {
		t.Errorf("AuditDBPort=%d AuditDBSSLMode=%q, ожидаются значения по умолчанию", cfg.AuditDBPort, cfg.AuditDBSSLMode)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingBackendURL(t *testing.T) {
	setEnvs(t, map[string]string{})

	if _, err := Load(); err == nil {
		t.Error("Load() не вернул ошибку при отсутствии PORTAL_BACKEND_URL")
	}
}

func TestLoad_AuditRequiresCredentials(t *testing.T) {
	requiredVars := []string{"PORTAL_AUDIT_DB_NAME", "PORTAL_AUDIT_DB_USER", "PORTAL_AUDIT_DB_PASSWORD"}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			envs["PORTAL_AUDIT_DB_HOST"] = "db.local"
			envs["PORTAL_AUDIT_DB_NAME"] = "portal"
			envs["PORTAL_AUDIT_DB_USER"] = "portal"
			envs["PORTAL_AUDIT_DB_PASSWORD"] = "secret"
			delete(envs, missing)
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт ноль", "PORTAL_PORT", "0"},
		{"порт выше диапазона", "PORTAL_PORT", "70000"},
		{"порт не число", "PORTAL_PORT", "abc"},
		{"уровень логирования", "PORTAL_LOG_LEVEL", "verbose"},
		{"формат логов", "PORTAL_LOG_FORMAT", "xml"},
		{"backend URL без схемы", "PORTAL_BACKEND_URL", "api.abv.local"},
		{"таймаут backend", "PORTAL_BACKEND_TIMEOUT", "ten"},
		{"health path без слеша", "PORTAL_BACKEND_HEALTH_PATH", "docs"},
		{"слишком короткая сессия", "PORTAL_SESSION_MAX_AGE", "10s"},
		{"secure cookie", "PORTAL_SECURE_COOKIE", "yes-please"},
		{"язык", "PORTAL_DEFAULT_LANG", "ru"},
		{"модальное подтверждение", "PORTAL_UI_CONFIRM_MODAL", "talvez"},
		{"длина пароля ноль", "PORTAL_PASSWORD_MIN_LENGTH", "0"},
		{"длина пароля не число", "PORTAL_PASSWORD_MIN_LENGTH", "eight"},
		{"интервал dephealth", "PORTAL_DEPHEALTH_CHECK_INTERVAL", "often"},
		{"таймаут shutdown", "PORTAL_SHUTDOWN_TIMEOUT", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_InvalidSSLMode(t *testing.T) {
	envs := minimalEnvs()
	envs["PORTAL_AUDIT_DB_HOST"] = "db.local"
	envs["PORTAL_AUDIT_DB_NAME"] = "portal"
	envs["PORTAL_AUDIT_DB_USER"] = "portal"
	envs["PORTAL_AUDIT_DB_PASSWORD"] = "secret"
	envs["PORTAL_AUDIT_DB_SSL_MODE"] = "prefer"
	setEnvs(t, envs)

	if _, err := Load(); err == nil {
		t.Error("Load() не вернул ошибку при PORTAL_AUDIT_DB_SSL_MODE=prefer")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		AuditDBHost:     "db.local",
		AuditDBPort:     5433,
		AuditDBName:     "portal",
		AuditDBUser:     "portal",
		AuditDBPassword: "secret",
		AuditDBSSLMode:  "require",
	}

	expected := "host=db.local port=5433 dbname=portal user=portal password=secret sslmode=require"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}

	if u := cfg.DatabaseURL(); u != "postgres://portal@db.local:5433/portal" {
		t.Errorf("DatabaseURL() = %q, пароль не должен попадать в URL", u)
	}
}

func TestLoadDotEnv(t *testing.T) {
	setEnvs(t, map[string]string{})
	// Пустая, но заданная переменная godotenv не перезаписывает.
	// Снимаем её полностью, исходное значение восстановит cleanup от t.Setenv.
	os.Unsetenv("PORTAL_BACKEND_URL")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORTAL_BACKEND_URL=http://from-dotenv:8000\n"), 0o600); err != nil {
		t.Fatalf("Ошибка записи .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() вернул ошибку: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.BackendURL != "http://from-dotenv:8000" {
		t.Errorf("BackendURL = %q, ожидается значение из .env", cfg.BackendURL)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv() для отсутствующего файла вернул ошибку: %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}
