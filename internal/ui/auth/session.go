// Пакет auth — сессии портала и чтение claims токена backend.
// Сессия (токен, логин, полное имя) хранится в cookie, зашифрованном AES-256-GCM.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/hkdf"
)

// SessionCookieName — cookie зашифрованной сессии.
const SessionCookieName = "portal_session"

// maxCookieSize — предел значения cookie, который браузеры сохраняют без усечения.
const maxCookieSize = 4000

// hkdfInfo — контекст вывода ключа из PORTAL_SESSION_SECRET.
const hkdfInfo = "portal-session-v1"

var (
	// ErrSessionCorrupted — cookie не расшифровывается этим ключом или повреждён.
	ErrSessionCorrupted = errors.New("сессия повреждена")
	// ErrSessionTooLarge — зашифрованная сессия не помещается в cookie.
	ErrSessionTooLarge = errors.New("сессия превышает допустимый размер cookie")
)

// SessionData — содержимое сессии. Роль не хранится: её читают из токена на каждом запросе.
type SessionData struct {
	// Token — access token backend.
	Token string `json:"token"`
	// UserName — логин.
	UserName string `json:"user_name"`
	// UserFullName — полное имя для приветствия, может быть пустым.
	UserFullName string `json:"user_full_name,omitempty"`
	// ExpiresAt — exp токена (Unix), 0 — неизвестно.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// IsExpired сообщает, истёк ли токен. Без известного срока решает backend.
func (s *SessionData) IsExpired() bool {
	return s.ExpiresAt != 0 && time.Now().Unix() >= s.ExpiresAt
}

// DisplayName — имя для приветствия: полное имя → логин → "Usuário".
func (s *SessionData) DisplayName() string {
	switch {
	case s.UserFullName != "":
		return s.UserFullName
	case s.UserName != "":
		return s.UserName
	default:
		return "Usuário"
	}
}

// SessionManager сохраняет SessionData в cookie и читает её обратно.
type SessionManager struct {
	aead   cipher.AEAD
	secure bool
	maxAge time.Duration
}

// NewSessionManager создаёт менеджер сессий.
//
// key: 32 байта в base64 используются как есть, любая другая строка
// проходит через HKDF-SHA256, пустая — случайный ключ на время жизни процесса.
// maxAge <= 0 — 30 минут.
func NewSessionManager(key string, secure bool, maxAge time.Duration) (*SessionManager, error) {
	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	return &SessionManager{aead: aead, secure: secure, maxAge: maxAge}, nil
}

func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, 32)

	if secret == "" {
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		return key, nil
	}

	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == len(key) {
		return raw, nil
	}

	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("ошибка вывода ключа сессии: %w", err)
	}
	return key, nil
}

// Secure сообщает, выставляется ли Secure flag у cookie.
func (sm *SessionManager) Secure() bool {
	return sm.secure
}

// seal: JSON → nonce||GCM(ciphertext) → base64url. Имя cookie — associated data.
func (sm *SessionManager) seal(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, sm.aead.NonceSize(), sm.aead.NonceSize()+len(plaintext)+sm.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	sealed := sm.aead.Seal(nonce, nonce, plaintext, []byte(SessionCookieName))
	value := base64.RawURLEncoding.EncodeToString(sealed)
	if len(value) > maxCookieSize {
		return "", ErrSessionTooLarge
	}
	return value, nil
}

// open — обратная к seal операция.
func (sm *SessionManager) open(value string) (*SessionData, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(sealed) < sm.aead.NonceSize() {
		return nil, ErrSessionCorrupted
	}

	nonce, ciphertext := sealed[:sm.aead.NonceSize()], sealed[sm.aead.NonceSize():]
	plaintext, err := sm.aead.Open(nil, nonce, ciphertext, []byte(SessionCookieName))
	if err != nil {
		return nil, ErrSessionCorrupted
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
	}
	return &data, nil
}

// Save записывает сессию в cookie ответа.
func (sm *SessionManager) Save(w http.ResponseWriter, data *SessionData) error {
	value, err := sm.seal(data)
	if err != nil {
		return err
	}
	http.SetCookie(w, sm.cookie(value, int(sm.maxAge.Seconds())))
	return nil
}

// Load читает сессию из cookie запроса. Нет cookie — nil, nil.
func (sm *SessionManager) Load(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sm.open(cookie.Value)
}

// Clear удаляет cookie сессии.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
