package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
)

// RoleAllowed reports whether a role is a member of the allow-list. It is a
// pure predicate so the authorization rule can be tested without any HTTP
// machinery.
func RoleAllowed(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// RestrictTo gates a route group to the given roles. It must run after
// Protect, which attaches the resolved user; a request without one is
// rejected outright.
func RestrictTo(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !RoleAllowed(u.Role, roles...) {
				return apperror.New(http.StatusForbidden,
					"You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
