package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/utils"
)

// UserLoader resolves a token subject back to a live user record. It is an
// interface so tests can drive Protect without a database.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Protect returns the middleware guarding authenticated routes. For every
// request it: extracts the bearer token, verifies signature and expiry,
// re-resolves the user from storage, rejects tokens issued before the last
// credential rotation, and finally attaches the user to the request context
// under "user". Token parse failures are returned raw so the central error
// handler can classify expired vs malformed distinctly.
func Protect(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperror.New(http.StatusUnauthorized, "Please login to get access!!")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, issuedAt, err := utils.ParseAuthToken(secret, raw)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperror.New(http.StatusUnauthorized,
						"The user belonging to this token does no longer exist.")
				}
				return err
			}

			if u.ChangedPasswordAfter(issuedAt) {
				return apperror.New(http.StatusUnauthorized,
					"User recently changed password! Please log in again.")
			}

			c.Set("user", u)
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by Protect. The boolean is false on
// routes that never ran the middleware.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}
