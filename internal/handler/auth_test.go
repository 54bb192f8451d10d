package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jwtapi/backend/internal/model"
	"github.com/jwtapi/backend/internal/service"
	"github.com/jwtapi/backend/internal/token"
)

type memStore struct {
	users  map[int64]*model.User
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*model.User{}, nextID: 1}
}

func (m *memStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	for _, u := range m.users {
		if u.LoginID == user.LoginID {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	stored := *user
	stored.ID = m.nextID
	m.nextID++
	m.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	for _, u := range m.users {
		if u.LoginID == loginID {
			out := *u
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *u
	return &out, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *memStore) SetRefreshToken(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.RefreshToken = &refreshToken
	u.RefreshTokenExpiry = &expiresAt
	return nil
}

func (m *memStore) RotateRefreshToken(ctx context.Context, userID int64, currentToken, newToken string, expiresAt time.Time) (bool, error) {
	u, ok := m.users[userID]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != currentToken {
		return false, nil
	}
	u.RefreshToken = &newToken
	u.RefreshTokenExpiry = &expiresAt
	return true, nil
}

func (m *memStore) ClearRefreshToken(ctx context.Context, userID int64) error {
	if u, ok := m.users[userID]; ok {
		u.RefreshToken = nil
		u.RefreshTokenExpiry = nil
	}
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := token.NewSigner(token.Config{
		Secret:    "test-secret",
		Issuer:    "jwt-api",
		Audience:  "jwt-api-clients",
		AccessTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewSigner error: %v", err)
	}

	svc := service.NewAuthService(newMemStore(), service.NewBcryptHasher(), signer)
	authHandler := NewAuthHandler(svc)

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh", authHandler.Refresh)

	protected := auth.Group("")
	protected.Use(AuthMiddleware(signer))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/all", RequireRole("Admin"), authHandler.ListUsers)

	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeLogin(t *testing.T, w *httptest.ResponseRecorder) model.LoginResponse {
	t.Helper()
	var res model.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return res
}

func TestAuthFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		`{"loginId":"alice","password":"pw123","username":"Alice"}`, ""); w.Code != http.StatusOK {
		t.Fatalf("register: got %d, body %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login",
		`{"loginId":"alice","password":"pw123"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", w.Code, w.Body.String())
	}
	login := decodeLogin(t, w)
	if login.AccessToken == "" || login.RefreshToken == "" || login.Role != "User" {
		t.Fatalf("login response incomplete: %+v", login)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", login.AccessToken); w.Code != http.StatusOK {
		t.Fatalf("me: got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+login.RefreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: got %d, body %s", w.Code, w.Body.String())
	}
	rotated := decodeLogin(t, w)
	if rotated.RefreshToken == login.RefreshToken {
		t.Fatalf("refresh must return a different refresh token")
	}

	// Replaying the superseded token fails.
	if w := doJSON(t, r, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+login.RefreshToken+`"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/auth/logout", "", rotated.AccessToken); w.Code != http.StatusOK {
		t.Fatalf("logout: got %d, body %s", w.Code, w.Body.String())
	}

	// Logout killed the rotated refresh token too.
	if w := doJSON(t, r, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+rotated.RefreshToken+`"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout refresh: got %d", w.Code)
	}

	// Logout again: idempotent.
	if w := doJSON(t, r, http.MethodPost, "/api/auth/logout", "", rotated.AccessToken); w.Code != http.StatusOK {
		t.Fatalf("second logout: got %d", w.Code)
	}
}

func TestRegisterDuplicateHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"loginId":"alice","password":"pw123"}`
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, ""); w.Code != http.StatusOK {
		t.Fatalf("first register: got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, ""); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: got %d", w.Code)
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	r, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/api/auth/register", `{"loginId":"alice","password":"pw123"}`, "")

	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"loginId":"nobody","password":"pw123"}`, "")
	wrong := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"loginId":"alice","password":"nope"}`, "")

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Fatalf("failure bodies must be identical: %s vs %s", unknown.Body.String(), wrong.Body.String())
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/auth/me", "", "not-a-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage bearer: got %d", w.Code)
	}
}

func TestAdminGate(t *testing.T) {
	r, svc := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/auth/register", `{"loginId":"alice","password":"pw123"}`, "")
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"loginId":"alice","password":"pw123"}`, "")
	user := decodeLogin(t, w)

	if w := doJSON(t, r, http.MethodGet, "/api/auth/all", "", user.AccessToken); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin list: got %d", w.Code)
	}

	if err := svc.EnsureAdmin(context.Background(), "root", "rootpw12"); err != nil {
		t.Fatalf("EnsureAdmin error: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", `{"loginId":"root","password":"rootpw12"}`, "")
	admin := decodeLogin(t, w)

	w = doJSON(t, r, http.MethodGet, "/api/auth/all", "", admin.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list: got %d, body %s", w.Code, w.Body.String())
	}
	var users []model.UserInfo
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode user list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestMalformedRequestBody(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := doJSON(t, r, http.MethodPost, "/api/auth/login", `{"loginId":`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed login: got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/refresh", `{}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing refresh token: got %d", w.Code)
	}
}
