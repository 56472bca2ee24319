// Пакет middleware — HTTP middleware сервера портала (метрики, логирование запросов).
// metrics.go — Prometheus-метрики HTTP: счётчик, гистограмма длительности
// и число запросов в обработке.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Общее количество HTTP-запросов к порталу",
		},
		[]string{"method", "path", "status"},
	)

	// Страницы рендерятся на сервере и ждут backend: нижняя граница 5 мс, верхняя 10 с.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к порталу в секундах",
			Buckets: prometheus.ExponentialBucketsRange(0.005, 10, 12),
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_http_requests_in_flight",
			Help: "Количество HTTP-запросов в обработке",
		},
	)
)

// MetricsMiddleware возвращает middleware сбора метрик.
// Лейбл path — шаблон маршрута chi, без маршрута — normalizePath.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := routeLabel(r)
			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel берёт шаблон сработавшего маршрута из контекста chi.
// Шаблон известен только после обработки запроса.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			if len(pattern) > 1 {
				pattern = strings.TrimSuffix(pattern, "/")
			}
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath ограничивает кардинальность лейбла для запросов вне маршрутизатора:
// /admin/users/42/edit → /admin/users/{id}/edit, неизвестное → other.
func normalizePath(path string) string {
	switch path {
	case "/", "/login", "/logout", "/language",
		"/dashboard", "/dashboard/password",
		"/admin/users", "/admin/users/create",
		"/health/live", "/health/ready", "/metrics":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	if rest, ok := strings.CutPrefix(path, "/admin/users/"); ok {
		id, action, _ := strings.Cut(rest, "/")
		if _, err := strconv.ParseInt(id, 10, 64); err == nil && (action == "edit" || action == "delete") {
			return "/admin/users/{id}/" + action
		}
	}

	return "other"
}
