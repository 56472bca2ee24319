package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/auth"
	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/ui/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "ana", "exp": time.Now().Add(time.Hour).Unix()}
	if role != "" {
		claims["role"] = role
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("ошибка подписи: %v", err)
	}
	return s
}

// sessionCookie сохраняет SessionData и возвращает полученный cookie.
func sessionCookie(t *testing.T, sm *auth.SessionManager, data *auth.SessionData) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := sm.Save(w, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return w.Result().Cookies()[0]
}

func TestSessionGuard(t *testing.T) {
	sm, _ := auth.NewSessionManager("test-key", false, time.Hour)
	guard := NewSessionGuard(sm, notify.New(false), testLogger())

	tests := []struct {
		name         string
		cookie       func() *http.Cookie
		wantRedirect bool
	}{
		{"нет cookie", func() *http.Cookie { return nil }, true},
		{"повреждённый cookie", func() *http.Cookie {
			return &http.Cookie{Name: auth.SessionCookieName, Value: "lixo"}
		}, true},
		{"пустой токен", func() *http.Cookie {
			return sessionCookie(t, sm, &auth.SessionData{UserName: "ana"})
		}, true},
		{"токен не декодируется", func() *http.Cookie {
			return sessionCookie(t, sm, &auth.SessionData{Token: "a.!!!.c", UserName: "ana"})
		}, true},
		{"токен без роли", func() *http.Cookie {
			return sessionCookie(t, sm, &auth.SessionData{Token: token(t, ""), UserName: "ana"})
		}, true},
		{"срок истёк", func() *http.Cookie {
			return sessionCookie(t, sm, &auth.SessionData{
				Token: token(t, "admin"), UserName: "ana", ExpiresAt: time.Now().Add(-time.Minute).Unix(),
			})
		}, true},
		{"действующая сессия", func() *http.Cookie {
			return sessionCookie(t, sm, &auth.SessionData{Token: token(t, "supervisor"), UserName: "ana"})
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			h := guard.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				if SessionFromContext(r.Context()) == nil {
					t.Error("сессия не помещена в контекст")
				}
				if c := ClaimsFromContext(r.Context()); c == nil || c.Role != "supervisor" {
					t.Errorf("claims в контексте = %+v", c)
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			if c := tt.cookie(); c != nil {
				req.AddCookie(c)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if !tt.wantRedirect {
				if !reached || w.Code != http.StatusOK {
					t.Errorf("ожидался доступ, код %d", w.Code)
				}
				return
			}

			if reached {
				t.Error("защищённый обработчик не должен вызываться")
			}
			if w.Code != http.StatusFound || w.Header().Get("Location") != LoginPath {
				t.Errorf("ответ %d → %q, ожидается 302 → /", w.Code, w.Header().Get("Location"))
			}

			var cleared, flashed bool
			for _, c := range w.Result().Cookies() {
				if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
					cleared = true
				}
				if c.Name == notify.CookieName && c.Value != "" {
					flashed = true
				}
			}
			if !cleared || !flashed {
				t.Errorf("ожидались очистка сессии и уведомление: cleared=%v flashed=%v", cleared, flashed)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		role     string
		wantCode int
	}{
		{"admin", http.StatusOK},
		{"supervisor", http.StatusFound},
		{"solicitante", http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			h := RequireAdmin(notify.New(false))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req = req.WithContext(contextWithClaims(req, &auth.TokenClaims{Role: tt.role}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("код %d, ожидается %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusFound && w.Header().Get("Location") != "/dashboard" {
				t.Errorf("Location = %q", w.Header().Get("Location"))
			}
		})
	}
}

func contextWithClaims(r *http.Request, claims *auth.TokenClaims) context.Context {
	return context.WithValue(r.Context(), ContextKeyClaims, claims)
}
