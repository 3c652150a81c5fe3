package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMiddlewareRecordsErrorStatus(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cause := echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	h := Middleware()(func(c echo.Context) error { return cause })

	err := h(c)
	if !errors.Is(err, cause) {
		t.Fatalf("handler error must propagate, got %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("error response must be written before recording, got %d", rec.Code)
	}
	if c.Response().Status != http.StatusServiceUnavailable {
		t.Fatalf("recorded status must be the error status, got %d", c.Response().Status)
	}
}
