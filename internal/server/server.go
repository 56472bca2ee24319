// Пакет server — HTTP-сервер портала с graceful shutdown.
// Без TLS — TLS termination на ingress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/api/handlers"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/api/middleware"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/config"
	uihandlers "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/handlers"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/i18n"
	uimiddleware "github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/middleware"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/static"
)

// Components — обработчики и middleware, из которых собирается маршрутизатор.
type Components struct {
	Health    *handlers.HealthHandler
	Auth      *uihandlers.AuthHandler
	Dashboard *uihandlers.DashboardHandler
	Users     *uihandlers.UsersHandler
	Guard     *uimiddleware.SessionGuard
	Notifier  *notify.Notifier
}

// Server — HTTP-сервер портала.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// Таймауты соединения. Запросы к backend ограничены отдельно (PORTAL_BACKEND_TIMEOUT).
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// New собирает http.Server поверх NewRouter.
func New(cfg *config.Config, logger *slog.Logger, c Components) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, logger, c),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// NewRouter собирает маршруты портала.
//
// Публичные: вход, выход, смена языка, статика, health и метрики.
// Под SessionGuard: dashboard и смена пароля.
// Под SessionGuard + RequireAdmin: /admin/users.
func NewRouter(cfg *config.Config, logger *slog.Logger, c Components) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware(cfg.DefaultLang))

	// Health и metrics проверяются Kubernetes напрямую.
	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)

	router.Handle("/static/*", static.Handler("/static"))

	router.Get("/", c.Auth.HandleLoginPage)
	router.Post("/login", c.Auth.HandleLogin)
	router.Post("/logout", c.Auth.HandleLogout)
	router.Post("/language", uihandlers.HandleSetLanguage)

	router.Group(func(r chi.Router) {
		r.Use(c.Guard.Middleware())

		r.Get(uihandlers.DashboardPath, c.Dashboard.HandleDashboard)
		r.Post(uihandlers.DashboardPath+"/password", c.Dashboard.HandleChangePassword)

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(uimiddleware.RequireAdmin(c.Notifier))

			r.Get("/", c.Users.HandleList)
			r.Post("/create", c.Users.HandleCreate)
			r.Get("/{id}/edit", c.Users.HandleEditForm)
			r.Post("/{id}/edit", c.Users.HandleEdit)
			r.Get("/{id}/delete", c.Users.HandleDeleteConfirm)
			r.Post("/{id}/delete", c.Users.HandleDelete)
		})
	})

	return router
}

// Run слушает порт до SIGINT/SIGTERM, затем выполняет Shutdown.
// Ошибка ListenAndServe (кроме ErrServerClosed) возвращается сразу.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	}

	return s.Shutdown()
}

// Shutdown останавливает сервер, ожидая завершения активных запросов
// не дольше ShutdownTimeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
