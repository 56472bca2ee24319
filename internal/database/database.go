// Пакет database — хранилище журнала аудита в PostgreSQL:
// схема (golang-migrate), пул pgxpool и проверка готовности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Параметры пула: журнал пишется редко, соединений нужно немного.
const (
	applicationName   = "portal"
	maxConns          = 4
	connectTimeout    = 5 * time.Second
	readinessTimeout  = 3 * time.Second
	healthCheckPeriod = 30 * time.Second
)

// auditTable — таблица, наличие которой подтверждает применённую схему.
const auditTable = "audit_events"

// Open готовит хранилище аудита: применяет миграции и открывает пул.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := Migrate(cfg, logger); err != nil {
		return nil, err
	}
	return Connect(ctx, cfg, logger)
}

// Connect создаёт пул подключений и проверяет его ping.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Журнал аудита подключён к PostgreSQL",
		slog.String("host", cfg.AuditDBHost),
		slog.Int("port", cfg.AuditDBPort),
		slog.String("database", cfg.AuditDBName),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
	)

	return pool, nil
}

// poolConfig разбирает DSN и задаёт размер пула и имя приложения.
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = 0
	poolCfg.HealthCheckPeriod = healthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	return poolCfg, nil
}

// migrationURL — адрес базы в формате драйвера pgx5 golang-migrate.
func migrationURL(cfg *config.Config) string {
	return (&url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.AuditDBUser, cfg.AuditDBPassword),
		Host:     net.JoinHostPort(cfg.AuditDBHost, strconv.Itoa(cfg.AuditDBPort)),
		Path:     "/" + cfg.AuditDBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.AuditDBSSLMode),
	}).String()
}

// Migrate применяет встроенные SQL-миграции схемы аудита.
// Повторный запуск без новых миграций ошибкой не считается.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(cfg))
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	}
	if dirty {
		return fmt.Errorf("схема аудита в состоянии dirty (версия %d)", version)
	}

	logger.Info("Схема журнала аудита актуальна", slog.Uint64("version", uint64(version)))
	return nil
}

// ReadinessChecker — готовность журнала аудита для /health/ready.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности журнала аудита.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady проверяет соединение и наличие таблицы журнала.
// Доступная база без схемы — degraded: события продолжают писаться в лог.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	var exists bool
	err := c.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, auditTable).Scan(&exists)
	if err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	if !exists {
		return "degraded", "таблица " + auditTable + " отсутствует"
	}
	return "ok", "журнал аудита доступен"
}
