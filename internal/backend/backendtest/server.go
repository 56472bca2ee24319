// Пакет backendtest — имитация REST API портала для тестов.
// Хранит пользователей в памяти (пароли — bcrypt), выдаёт HS256 JWT
// с claims sub/role/exp и реализует все endpoints, которые вызывает портал.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/segurancaeletronicabrasfort/projeto-stf/internal/domain/model"
)

// TokenTTL — срок жизни выдаваемых токенов.
const TokenTTL = 30 * time.Minute

// DefaultEmbedURL — адрес отчёта, возвращаемый /bi-config по умолчанию.
const DefaultEmbedURL = "https://app.powerbi.com/view?r=test-report"

// storedUser — пользователь во внутреннем хранилище.
type storedUser struct {
	model.User
	hash []byte
}

// Server — имитация backend поверх httptest.Server.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[int64]*storedUser
	nextID   int64
	embedURL string
	// failures — принудительные ответы с ошибкой по "METHOD path".
	failures map[string]failure
}

type failure struct {
	status int
	detail string
}

// New запускает имитацию backend. Сервер закрывается в t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("backendtest-secret"),
		users:    make(map[int64]*storedUser),
		nextID:   1,
		embedURL: DefaultEmbedURL,
		failures: make(map[string]failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("GET /users/me", s.authorized(s.handleMe))
	mux.HandleFunc("POST /users/me/password", s.authorized(s.handleChangePassword))
	mux.HandleFunc("GET /users", s.adminOnly(s.handleList))
	mux.HandleFunc("POST /users/create", s.adminOnly(s.handleCreate))
	mux.HandleFunc("PUT /users/{id}", s.adminOnly(s.handleUpdate))
	mux.HandleFunc("DELETE /users/{id}", s.adminOnly(s.handleDelete))
	mux.HandleFunc("GET /bi-config", s.authorized(s.handleBIConfig))
	mux.HandleFunc("GET /docs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.Server = httptest.NewServer(s.withFailures(mux))
	t.Cleanup(s.Close)

	return s
}

// AddUser добавляет пользователя и возвращает его ID.
func (s *Server) AddUser(username, password, fullName, role string) int64 {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.users[id] = &storedUser{
		User: model.User{ID: id, Username: username, FullName: fullName, Role: role},
		hash: hash,
	}
	return id
}

// Token выдаёт токен для существующего пользователя (минуя /token).
func (s *Server) Token(username string) string {
	s.mu.Lock()
	u := s.findByUsername(username)
	s.mu.Unlock()

	role := ""
	if u != nil {
		role = u.Role
	}
	return s.issue(username, role, time.Now().Add(TokenTTL))
}

// Users возвращает снимок хранилища, отсортированный по ID.
func (s *Server) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// CheckPassword сообщает, совпадает ли пароль пользователя.
func (s *Server) CheckPassword(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByUsername(username)
	if u == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(u.hash, []byte(password)) == nil
}

// SetEmbedURL задаёт ответ /bi-config.
func (s *Server) SetEmbedURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedURL = u
}

// Fail заставляет endpoint "METHOD path" отвечать ошибкой с detail.
// Пустой detail — ответ без тела.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

// --- middleware ---

func (s *Server) withFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if ok {
			if f.detail == "" {
				w.WriteHeader(f.status)
				return
			}
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxHandler func(w http.ResponseWriter, r *http.Request, current *storedUser)

// authorized проверяет Bearer-токен и передаёт текущего пользователя.
func (s *Server) authorized(next ctxHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.mu.Lock()
		current := s.findByUsername(sub)
		s.mu.Unlock()
		if current == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next(w, r, current)
	}
}

// adminOnly дополнительно требует роль admin.
func (s *Server) adminOnly(next ctxHandler) http.HandlerFunc {
	return s.authorized(func(w http.ResponseWriter, r *http.Request, current *storedUser) {
		if current.Role != "admin" {
			writeDetail(w, http.StatusForbidden, "Acesso negado")
			return
		}
		next(w, r, current)
	})
}

// --- handlers ---

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Formulário inválido")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	u := s.findByUsername(username)
	s.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Credenciais incorretas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.issue(u.Username, u.Role, time.Now().Add(TokenTTL)),
		"token_type":   "bearer",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, current *storedUser) {
	writeJSON(w, http.StatusOK, map[string]string{
		"username":  current.Username,
		"full_name": current.FullName,
		"role":      current.Role,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, current *storedUser) {
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON inválido")
		return
	}

	if bcrypt.CompareHashAndPassword(current.hash, []byte(body.OldPassword)) != nil {
		writeDetail(w, http.StatusBadRequest, "Senha atual incorreta.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	current.hash = hash
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Senha alterada com sucesso"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request, _ *storedUser) {
	s.mu.Lock()
	users := s.snapshot()
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, _ *storedUser) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON inválido")
		return
	}
	if body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return
	}

	s.mu.Lock()
	exists := s.findByUsername(body.Username) != nil
	s.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Usuário já existe")
		return
	}

	id := s.AddUser(body.Username, body.Password, body.FullName, body.Role)

	s.mu.Lock()
	created := s.users[id].User
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, userJSON(created))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, _ *storedUser) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "ID inválido")
		return
	}

	var body struct {
		FullName string  `json:"full_name"`
		Role     string  `json:"role"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "JSON inválido")
		return
	}

	var hash []byte
	if body.Password != nil && *body.Password != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.MinCost)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.mu.Lock()
	u, ok := s.users[id]
	if ok {
		u.FullName = body.FullName
		u.Role = body.Role
		if hash != nil {
			u.hash = hash
		}
	}
	var updated model.User
	if ok {
		updated = u.User
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(updated))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, _ *storedUser) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "ID inválido")
		return
	}

	s.mu.Lock()
	_, ok := s.users[id]
	delete(s.users, id)
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Usuário excluído"})
}

func (s *Server) handleBIConfig(w http.ResponseWriter, _ *http.Request, current *storedUser) {
	if current.Role != "admin" && current.Role != "supervisor" {
		writeDetail(w, http.StatusForbidden, "Acesso negado")
		return
	}

	s.mu.Lock()
	embed := s.embedURL
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"embed_url": embed})
}

// --- helpers ---

// issue подписывает HS256 токен.
func (s *Server) issue(sub, role string, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// findByUsername ищет пользователя по логину. Вызывать под s.mu.
func (s *Server) findByUsername(username string) *storedUser {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// snapshot копирует пользователей, отсортированных по ID. Вызывать под s.mu.
func (s *Server) snapshot() []model.User {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func userJSON(u model.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"username":  u.Username,
		"full_name": u.FullName,
		"role":      u.Role,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
