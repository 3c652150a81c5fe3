package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/config"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		JWTSecret:        "handler-test-secret",
		JWTTTLMin:        15,
		BcryptCost:       bcrypt.MinCost,
		ResetTokenTTLMin: 10,
	}
}

// fakeUserStore is an in-memory UserStore covering the paths the auth
// handlers exercise.
type fakeUserStore struct {
	users  map[uint64]model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}, nextID: 1}
}

func (s *fakeUserStore) Create(_ context.Context, name, email, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := s.nextID
	s.nextID++
	s.users[id] = model.User{
		ID: id, Name: name, Email: email, PasswordHash: hash,
		Role: model.RoleUser, Active: true,
	}
	return id, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok || !u.Active {
		return model.User{}, sql.ErrNoRows
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := s.GetByEmailWithPassword(ctx, email)
	u.PasswordHash = ""
	return u, err
}

func (s *fakeUserStore) GetByEmailWithPassword(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) GetByIDWithPassword(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok || !u.Active {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range s.users {
		if u.Active {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id uint64, name, email string) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = email
	}
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) UpdateRole(_ context.Context, id uint64, role string) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id uint64, password string, cost int) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) SetResetToken(_ context.Context, id uint64, tokenHash string, expires time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordResetToken = &tokenHash
	u.PasswordResetExpires = &expires
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) ClearResetToken(_ context.Context, id uint64) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) GetByResetToken(_ context.Context, tokenHash string) (model.User, error) {
	for _, u := range s.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(time.Now().UTC()) {
			u.PasswordHash = ""
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) RedeemResetToken(ctx context.Context, id uint64, password string, cost int) error {
	if err := s.UpdatePassword(ctx, id, password, cost); err != nil {
		return err
	}
	return s.ClearResetToken(ctx, id)
}

func (s *fakeUserStore) Deactivate(_ context.Context, id uint64) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = false
	s.users[id] = u
	return nil
}

func jsonRequest(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	return rec, h(c)
}

func seedUser(t *testing.T, store *fakeUserStore, email, password string) uint64 {
	t.Helper()
	id, err := store.Create(context.Background(), "Ada", email, password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func TestSignup(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUserStore())

	rec, err := jsonRequest(t, h.Signup, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"secret123","passwordConfirm":"secret123"}`)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Data   struct {
			User map[string]any `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	if body.Status != "success" || body.Token == "" {
		t.Fatalf("expected success envelope with token, got %s", rec.Body.String())
	}
	if body.Data.User["email"] != "ada@example.com" || body.Data.User["role"] != model.RoleUser {
		t.Fatalf("unexpected user payload %v", body.Data.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("credential material must never be serialized: %s", rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "ada@example.com", "secret123")
	h := NewAuthHandler(testConfig(), store)

	t.Run("wrong password", func(t *testing.T) {
		_, err := jsonRequest(t, h.Login, http.MethodPost, "/api/v1/users/login",
			`{"email":"ada@example.com","password":"secret124"}`)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if appErr.Message != "Incorrect email or password!!" {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("unknown email uses the same message", func(t *testing.T) {
		_, err := jsonRequest(t, h.Login, http.MethodPost, "/api/v1/users/login",
			`{"email":"nobody@example.com","password":"secret123"}`)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Message != "Incorrect email or password!!" {
			t.Fatalf("unknown email must not be distinguishable, got %v", err)
		}
	})

	t.Run("correct credentials", func(t *testing.T) {
		rec, err := jsonRequest(t, h.Login, http.MethodPost, "/api/v1/users/login",
			`{"email":"ada@example.com","password":"secret123"}`)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"token"`) {
			t.Fatalf("expected token envelope, got %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestResetPassword(t *testing.T) {
	body := `{"password":"newsecret1","passwordConfirm":"newsecret1"}`

	t.Run("unknown token", func(t *testing.T) {
		h := NewAuthHandler(testConfig(), newFakeUserStore())
		_, err := jsonRequest(t, h.ResetPassword, http.MethodPatch,
			"/api/v1/users/resetPassword/bogus", body, "token", "bogus")
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %v", err)
		}
		if appErr.Message != "Token is invalid or has expired" {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		store := newFakeUserStore()
		id := seedUser(t, store, "ada@example.com", "secret123")
		raw, err := utils.NewResetToken()
		if err != nil {
			t.Fatalf("NewResetToken returned error: %v", err)
		}
		expired := time.Now().UTC().Add(-time.Minute)
		if err := store.SetResetToken(context.Background(), id, utils.HashResetToken(raw), expired); err != nil {
			t.Fatalf("SetResetToken returned error: %v", err)
		}
		h := NewAuthHandler(testConfig(), store)

		_, err = jsonRequest(t, h.ResetPassword, http.MethodPatch,
			"/api/v1/users/resetPassword/"+raw, body, "token", raw)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Message != "Token is invalid or has expired" {
			t.Fatalf("expired token must be indistinguishable from a bad one, got %v", err)
		}
	})

	t.Run("live token rotates the credential", func(t *testing.T) {
		store := newFakeUserStore()
		id := seedUser(t, store, "ada@example.com", "secret123")
		raw, err := utils.NewResetToken()
		if err != nil {
			t.Fatalf("NewResetToken returned error: %v", err)
		}
		expires := time.Now().UTC().Add(10 * time.Minute)
		if err := store.SetResetToken(context.Background(), id, utils.HashResetToken(raw), expires); err != nil {
			t.Fatalf("SetResetToken returned error: %v", err)
		}
		h := NewAuthHandler(testConfig(), store)

		rec, err := jsonRequest(t, h.ResetPassword, http.MethodPatch,
			"/api/v1/users/resetPassword/"+raw, body, "token", raw)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"token"`) {
			t.Fatalf("expected token envelope, got %d %s", rec.Code, rec.Body.String())
		}
		u, err := store.GetByIDWithPassword(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByIDWithPassword returned error: %v", err)
		}
		if !utils.VerifyPassword(u.PasswordHash, "newsecret1") {
			t.Fatal("new credential must verify after redeem")
		}
		if u.PasswordResetToken != nil {
			t.Fatal("reset token must be cleared on redeem")
		}
	})
}
