package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bhushangy/natours-api/internal/apperror"
	"github.com/bhushangy/natours-api/internal/logger"
)

// ErrorHandler is the single formatting boundary for every failure surfaced
// from request processing. It classifies well-known failure shapes into
// operational errors, then formats by environment: development echoes the
// full failure detail, production shows operational messages only and
// reduces everything else to a generic 500 after logging it internally.
func ErrorHandler(env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		classified := apperror.Classify(err)

		var appErr *apperror.Error
		if !errors.As(classified, &appErr) {
			var httpErr *echo.HTTPError
			switch {
			case errors.Is(classified, echo.ErrNotFound):
				appErr = apperror.Newf(http.StatusNotFound,
					"Can't find %s on this server!", c.Request().URL.Path)
			case errors.As(classified, &httpErr):
				// Echo-internal rejections (method not allowed, oversized
				// body and friends) are predictable and safe to show.
				appErr = apperror.Wrap(httpErr.Code, fmt.Sprint(httpErr.Message), classified)
			}
		}

		if env != "production" {
			body := echo.Map{"status": "error", "message": "Something went very wrong!!"}
			if appErr != nil {
				body["status"] = appErr.Status()
				body["message"] = appErr.Message
			}
			body["error"] = classified.Error()
			code := http.StatusInternalServerError
			if appErr != nil {
				code = appErr.StatusCode()
			}
			writeError(c, code, body)
			return
		}

		if appErr != nil {
			writeError(c, appErr.StatusCode(), echo.Map{
				"status":  appErr.Status(),
				"message": appErr.Message,
			})
			return
		}

		// Programming or infrastructure failure: full detail stays internal.
		logger.FromEcho(c).Error("unexpected error",
			zap.Error(classified),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
		)
		writeError(c, http.StatusInternalServerError, echo.Map{
			"status":  "error",
			"message": "Something went very wrong!!",
		})
	}
}

func writeError(c echo.Context, code int, body echo.Map) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		logger.FromEcho(c).Error("error response write failed", zap.Error(err))
	}
}
