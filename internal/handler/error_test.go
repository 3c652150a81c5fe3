package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bhushangy/natours-api/internal/apperror"
)

func render(t *testing.T, env string, err error, path string) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(env)(err, c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestErrorHandlerProduction(t *testing.T) {
	t.Run("operational error shows its message", func(t *testing.T) {
		code, body := render(t, "production",
			apperror.New(http.StatusNotFound, "No record found with that id"), "/api/v1/tours/999")
		if code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", code)
		}
		if body["status"] != "fail" || body["message"] != "No record found with that id" {
			t.Fatalf("unexpected body %v", body)
		}
		if _, leaked := body["error"]; leaked {
			t.Fatal("production body must not carry failure detail")
		}
	})

	t.Run("unexpected error reduced to generic 500", func(t *testing.T) {
		code, body := render(t, "production", errors.New("dial tcp: connection refused"), "/api/v1/tours")
		if code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", code)
		}
		if body["status"] != "error" || body["message"] != "Something went very wrong!!" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("classification runs before formatting", func(t *testing.T) {
		code, body := render(t, "production", sql.ErrNoRows, "/api/v1/tours/999")
		if code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", code)
		}
		if body["message"] != "No record found with that id" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		code, body := render(t, "production", echo.ErrNotFound, "/api/v1/nope")
		if code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", code)
		}
		if body["message"] != "Can't find /api/v1/nope on this server!" {
			t.Fatalf("unexpected body %v", body)
		}
	})
}

func TestErrorHandlerDevelopment(t *testing.T) {
	t.Run("operational error includes detail", func(t *testing.T) {
		cause := errors.New("row scan failed")
		code, body := render(t, "development",
			apperror.Wrap(http.StatusBadRequest, "Invalid input data. bad value", cause), "/api/v1/tours")
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
		if body["status"] != "fail" || body["message"] != "Invalid input data. bad value" {
			t.Fatalf("unexpected body %v", body)
		}
		if _, ok := body["error"]; !ok {
			t.Fatal("development body must carry failure detail")
		}
	})

	t.Run("unexpected error keeps detail and 500", func(t *testing.T) {
		code, body := render(t, "development", errors.New("dial tcp: connection refused"), "/api/v1/tours")
		if code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", code)
		}
		if body["error"] != "dial tcp: connection refused" {
			t.Fatalf("unexpected detail %v", body)
		}
	})
}
