package auth

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signToken создаёт HS256-токен с переданными claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("qualquer-segredo"))
	if err != nil {
		t.Fatalf("ошибка подписи токена: %v", err)
	}
	return tok
}

func TestReadClaims_Valid(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := signToken(t, jwt.MapClaims{"sub": "ana", "role": "supervisor", "exp": exp.Unix()})

	claims, err := ReadClaims(tok)
	if err != nil {
		t.Fatalf("ReadClaims() вернул ошибку: %v", err)
	}
	if claims.Subject != "ana" || claims.Role != "supervisor" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, ожидается %v", claims.ExpiresAt, exp)
	}
}

// TestReadClaims_SignatureNotChecked — подпись чужим ключом не мешает чтению роли.
func TestReadClaims_SignatureNotChecked(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"sub": "ana", "role": "admin"})

	claims, err := ReadClaims(tok)
	if err != nil {
		t.Fatalf("ReadClaims() вернул ошибку: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q", claims.Role)
	}
	if !claims.ExpiresAt.IsZero() {
		t.Errorf("ExpiresAt без exp должен быть нулевым, получено %v", claims.ExpiresAt)
	}
}

// TestReadClaims_PayloadOnly — читается только средний сегмент: заголовок
// без alg и числовой sub не мешают.
func TestReadClaims_PayloadOnly(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name        string
		header      string
		payload     string
		wantSubject string
	}{
		{"заголовок без alg", `{"typ":"JWT"}`, `{"sub":"ana","role":"admin"}`, "ana"},
		{"заголовок не JSON", `xyz`, `{"sub":"ana","role":"admin"}`, "ana"},
		{"числовой sub", `{"alg":"HS256"}`, `{"sub":42,"role":"admin"}`, "42"},
		{"без sub", `{"alg":"HS256"}`, `{"role":"admin"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ReadClaims(enc([]byte(tt.header)) + "." + enc([]byte(tt.payload)) + ".sig")
			if err != nil {
				t.Fatalf("ReadClaims() вернул ошибку: %v", err)
			}
			if claims.Subject != tt.wantSubject || claims.Role != "admin" {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}

func TestReadClaims_Invalid(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	notJSON := base64.RawURLEncoding.EncodeToString([]byte(`isto não é json`))

	tests := []struct {
		name  string
		token string
	}{
		{"пустая строка", ""},
		{"один сегмент", "abc"},
		{"два сегмента", header + ".abc"},
		{"payload не base64", header + ".!!!.sig"},
		{"payload не JSON", header + "." + notJSON + ".sig"},
		{"нет роли", signToken(t, jwt.MapClaims{"sub": "ana"})},
		{"пустая роль", signToken(t, jwt.MapClaims{"sub": "ana", "role": ""})},
		{"роль не строка", header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"role":1}`)) + ".sig"},
		{"четыре сегмента", header + ".a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadClaims(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ожидалась ErrInvalidToken, получено %v", err)
			}
		})
	}
}
