package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/utils"
)

const testSecret = "middleware-test-secret"

type fakeUserLoader struct {
	user model.User
	err  error
}

func (f *fakeUserLoader) GetByID(_ context.Context, _ uint64) (model.User, error) {
	return f.user, f.err
}

func newAuthContext(t *testing.T, authHeader string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func runProtect(t *testing.T, loader UserLoader, authHeader string) (echo.Context, error) {
	t.Helper()
	called := false
	h := Protect(testSecret, loader)(func(c echo.Context) error {
		called = true
		return nil
	})
	c := newAuthContext(t, authHeader)
	err := h(c)
	if err != nil && called {
		t.Fatal("next handler must not run when the guard rejects")
	}
	return c, err
}

func TestProtect(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		_, err := runProtect(t, &fakeUserLoader{}, "")
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if appErr.Message != "Please login to get access!!" {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("valid token attaches user", func(t *testing.T) {
		raw, err := utils.NewAuthToken(testSecret, 42, 15)
		if err != nil {
			t.Fatalf("NewAuthToken returned error: %v", err)
		}
		loader := &fakeUserLoader{user: model.User{ID: 42, Name: "Ada", Role: model.RoleUser}}
		c, err := runProtect(t, loader, "Bearer "+raw)
		if err != nil {
			t.Fatalf("expected request to pass, got %v", err)
		}
		u, ok := CurrentUser(c)
		if !ok || u.ID != 42 {
			t.Fatalf("expected user 42 on context, got %+v ok=%v", u, ok)
		}
	})

	t.Run("expired token classified by sentinel", func(t *testing.T) {
		raw, err := utils.NewAuthToken(testSecret, 42, -1)
		if err != nil {
			t.Fatalf("NewAuthToken returned error: %v", err)
		}
		_, err = runProtect(t, &fakeUserLoader{}, "Bearer "+raw)
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Fatalf("expected expired sentinel, got %v", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		raw, err := utils.NewAuthToken(testSecret, 42, 15)
		if err != nil {
			t.Fatalf("NewAuthToken returned error: %v", err)
		}
		_, err = runProtect(t, &fakeUserLoader{err: sql.ErrNoRows}, "Bearer "+raw)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if appErr.Message != "The user belonging to this token does no longer exist." {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("token issued before rotation", func(t *testing.T) {
		raw, err := utils.NewAuthToken(testSecret, 42, 15)
		if err != nil {
			t.Fatalf("NewAuthToken returned error: %v", err)
		}
		changed := time.Now().Add(time.Hour)
		loader := &fakeUserLoader{user: model.User{ID: 42, PasswordChangedAt: &changed}}
		_, err = runProtect(t, loader, "Bearer "+raw)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if appErr.Message != "User recently changed password! Please log in again." {
			t.Fatalf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("storage failure passes through", func(t *testing.T) {
		raw, err := utils.NewAuthToken(testSecret, 42, 15)
		if err != nil {
			t.Fatalf("NewAuthToken returned error: %v", err)
		}
		cause := errors.New("connection refused")
		_, err = runProtect(t, &fakeUserLoader{err: cause}, "Bearer "+raw)
		if !errors.Is(err, cause) {
			t.Fatalf("expected storage error to surface, got %v", err)
		}
	})
}
