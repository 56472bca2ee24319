package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDependencyURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "HTTP с портом", input: "http://api.abv.local:8000", want: "http://api.abv.local:8000"},
		{name: "путь отбрасывается", input: "https://api.abv.local/v1/", want: "https://api.abv.local"},
		{name: "IP-адрес", input: "http://10.0.0.5:8000/", want: "http://10.0.0.5:8000"},
		{name: "пустой URL", input: "", wantErr: true},
		{name: "без схемы", input: "api.abv.local:8000", wantErr: true},
		{name: "другая схема", input: "ftp://api.abv.local", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dependencyURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("dependencyURL(%q) — ожидалась ошибка, получено %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("dependencyURL(%q) — неожиданная ошибка: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("dependencyURL(%q) = %q, ожидалось %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestDephealthService_BackendOnly — без БД отслеживается только backend.
func TestDephealthService_BackendOnly(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	ds, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:         "portal",
		Group:             "portal-abv",
		BackendURL:        backend.URL,
		BackendHealthPath: "/docs",
		CheckInterval:     time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer() вернул ошибку: %v", err)
	}

	deps := ds.Dependencies()
	if len(deps) != 1 || !slices.Contains(deps, DepBackend) {
		t.Errorf("Dependencies() = %v", deps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Start() вернул ошибку: %v", err)
	}
	ds.Stop()
}

func TestDephealthService_InvalidBackendURL(t *testing.T) {
	_, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "portal",
		Group:         "portal-abv",
		BackendURL:    "api.abv.local",
		CheckInterval: time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err == nil {
		t.Error("ожидалась ошибка для URL без схемы")
	}
}
