package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/metrics"
)

// Metrics records request counts and latencies labelled by route template.
// It must run inside RequestLogger so that the status is final.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            method := c.Request().Method
            metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
            metrics.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}
