package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bhushangy/natours-api/internal/logger"
)

// RequestID tags every request with an X-Request-ID (honoring one supplied
// by the client) and stores a request-scoped logger carrying it, so every
// log line of a request can be correlated.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.New().String()
			}
			c.Response().Header().Set("X-Request-ID", id)
			c.Set("logger", logger.L().With(zap.String("request_id", id)))
			return next(c)
		}
	}
}
