// Package metrics exposes prometheus instrumentation for the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	statusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration, statusCategoryCounter)
}

// Middleware records a counter and duration observation for every request,
// labeled by method, registered route path and status.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Write the error response now so the recorded status is the
				// one the client sees, not the pre-error 200.
				c.Error(err)
			}

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			requestCounter.WithLabelValues(method, path, statusStr).Inc()
			requestDuration.WithLabelValues(method, path, statusStr).
				Observe(time.Since(start).Seconds())

			switch {
			case status >= 200 && status < 300:
				statusCategoryCounter.WithLabelValues("2xx").Inc()
			case status >= 400 && status < 500:
				statusCategoryCounter.WithLabelValues("4xx").Inc()
			case status >= 500:
				statusCategoryCounter.WithLabelValues("5xx").Inc()
			}
			return err
		}
	}
}

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
