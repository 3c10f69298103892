package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware records request count, latency and in-flight gauge. Paths are
// labelled with the route template so ids never explode label cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

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
			statusClass := fmt.Sprintf("%dxx", status/100)

			HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, statusClass).Inc()
			HTTPRequestDurationSeconds.WithLabelValues(c.Request().Method, path, statusClass).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry in Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
