// Точка входа портала ABV — веб-интерфейс поверх REST API backend.
// Загружает конфигурацию, создаёт клиент backend, опционально подключает
// PostgreSQL журнала аудита, собирает сервисный слой и страницы,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/api/handlers"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/backend"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/config"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/database"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/password"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/repository"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/server"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/service"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/auth"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/directory"
	uihandlers "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/handlers"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	uimiddleware "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/middleware"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
)

func main() {
	// 1. Загрузка конфигурации (.env, затем переменные окружения)
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("Ошибка загрузки .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Портал запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend_url", cfg.BackendURL),
	)

	if cfg.SessionSecret == "" {
		logger.Warn("PORTAL_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 3. Каталоги сообщений (pt, en)
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. HTTP-клиент backend (таймаут, опциональный CA)
	httpClient, err := buildHTTPClient(cfg)
	if err != nil {
		logger.Error("Ошибка загрузки CA-сертификата",
			slog.String("path", cfg.BackendCACertPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	apiClient := backend.New(cfg.BackendURL, cfg.BackendHealthPath, httpClient, logger)

	// 5. Журнал аудита в PostgreSQL (опционально)
	ctx := context.Background()
	var (
		auditRepo    repository.AuditRepository
		auditChecker handlers.ReadinessChecker
		pgDB         *sql.DB
	)
	if cfg.AuditEnabled() {
		pool, err := database.Open(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подготовки журнала аудита", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		auditRepo = repository.NewAuditRepository(pool)
		auditChecker = database.NewReadinessChecker(pool)
	} else {
		logger.Info("PORTAL_AUDIT_DB_HOST не задан, журнал аудита только в лог")
	}

	// 6. Сервисы
	auditSvc := service.NewAuditService(auditRepo, logger)
	portalSvc := service.NewPortalService(apiClient, auditSvc, logger)

	// 7. topologymetrics — мониторинг backend и PostgreSQL
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:         "portal",
		Group:             cfg.DephealthGroup,
		BackendURL:        cfg.BackendURL,
		BackendHealthPath: cfg.BackendHealthPath,
		DB:                pgDB,
		PGConnURL:         cfg.DatabaseURL(),
		CheckInterval:     cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		defer dephealthSvc.Stop()
	}

	// 8. Сессии и уведомления
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookie, cfg.SessionMaxAge)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	notifier := notify.New(cfg.SecureCookie)

	policy := password.Policy{
		MinLength:        cfg.PasswordMinLength,
		RequireLower:     cfg.PasswordRequireLower,
		ForbidWhitespace: cfg.PasswordForbidWhitespace,
	}

	// 9. Страницы портала
	components := server.Components{
		Health:    handlers.NewHealthHandler(apiClient, auditChecker),
		Auth:      uihandlers.NewAuthHandler(portalSvc, sessionMgr, notifier, logger),
		Dashboard: uihandlers.NewDashboardHandler(portalSvc, sessionMgr, notifier, policy, logger),
		Users: uihandlers.NewUsersHandler(
			portalSvc,
			directory.NewLoader(apiClient, logger),
			auditSvc,
			notifier,
			policy,
			cfg.ConfirmModal,
			logger,
		),
		Guard:    uimiddleware.NewSessionGuard(sessionMgr, notifier, logger),
		Notifier: notifier,
	}

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Портал остановлен")
}

// buildHTTPClient создаёт HTTP-клиент backend с таймаутом
// и, если задан путь, с дополнительным CA-сертификатом.
func buildHTTPClient(cfg *config.Config) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.BackendTimeout}
	if cfg.BackendCACertPath == "" {
		return client, nil
	}

	caCert, err := os.ReadFile(cfg.BackendCACertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("файл не содержит PEM-сертификатов")
	}

	client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caCertPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return client, nil
}
