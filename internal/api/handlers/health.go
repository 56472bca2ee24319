// Пакет handlers — служебные HTTP-обработчики портала.
// health.go — /health/live, /health/ready и /metrics.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/config"
)

const serviceName = "portal"

// Статусы проверок.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// Имена проверок в ответе /health/ready.
const (
	checkBackend = "backend"
	checkAuditDB = "audit_db"
)

// ReadinessChecker — проверка готовности одной зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// uninitialized — проверка, которая всегда fail (зависимость не создана).
type uninitialized struct{}

func (uninitialized) CheckReady() (string, string) {
	return statusFail, "не инициализирован"
}

type namedCheck struct {
	name    string
	checker ReadinessChecker
}

// HealthHandler — health endpoints и экспорт метрик.
type HealthHandler struct {
	checks      []namedCheck
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик.
// backendChecker nil — проверка backend всегда fail;
// auditChecker nil — журнал аудита не подключён и в ответ не входит.
func NewHealthHandler(backendChecker, auditChecker ReadinessChecker) *HealthHandler {
	if backendChecker == nil {
		backendChecker = uninitialized{}
	}
	checks := []namedCheck{{checkBackend, backendChecker}}
	if auditChecker != nil {
		checks = append(checks, namedCheck{checkAuditDB, auditChecker})
	}

	return &HealthHandler{
		checks:      checks,
		promHandler: promhttp.Handler(),
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Version   string                       `json:"version"`
	Service   string                       `json:"service"`
	Checks    map[string]healthCheckResult `json:"checks,omitempty"`
}

func newHealthResponse() healthResponse {
	return healthResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
}

// HealthLive — процесс жив; зависимости не проверяются.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse())
}

// HealthReady выполняет проверки параллельно.
// 503 — если хотя бы одна fail, иначе 200 (в том числе degraded).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	results := make([]healthCheckResult, len(h.checks))

	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, msg := c.checker.CheckReady()
			results[i] = healthCheckResult{Status: status, Message: msg}
		}()
	}
	wg.Wait()

	resp := newHealthResponse()
	resp.Checks = make(map[string]healthCheckResult, len(h.checks))
	statuses := make([]string, 0, len(results))
	for i, c := range h.checks {
		resp.Checks[c.name] = results[i]
		statuses = append(statuses, results[i].Status)
	}
	resp.Status = overallStatus(statuses...)

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics отдаёт метрики Prometheus.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// overallStatus: любой fail → fail, иначе любой degraded → degraded, иначе ok.
func overallStatus(statuses ...string) string {
	result := statusOK
	for _, s := range statuses {
		switch s {
		case statusFail:
			return statusFail
		case statusDegraded:
			result = statusDegraded
		}
	}
	return result
}
