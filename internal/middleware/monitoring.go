package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/syrena/backend/internal/metrics"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// MonitorMiddleware records request counts and latency by route template.
func MonitorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.HTTPRequestsTotal.WithLabelValues(path, c.Request().Method, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(path, c.Request().Method).Observe(time.Since(start).Seconds())
			if status == http.StatusForbidden {
				metrics.AuthRejections.WithLabelValues("403_forbidden").Inc()
			}
			return err
		}
	}
}

// MetricsBasicAuth protects /metrics. With an empty user the endpoint is open.
func MetricsBasicAuth(user, pass string) echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Skipper: func(echo.Context) bool { return user == "" },
		Realm:   "Metrics",
		Validator: func(u, p string, _ echo.Context) (bool, error) {
			okUser := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			okPass := subtle.ConstantTimeCompare([]byte(p), []byte(pass)) == 1
			return okUser && okPass, nil
		},
	})
}
