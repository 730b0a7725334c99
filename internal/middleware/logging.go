package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request.  Server errors are
// logged at error level, client errors at warn, the rest at info.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo write the response so the status below is final
                c.Error(err)
            }

            status := c.Response().Status
            entry := log.WithFields(logrus.Fields{
                "method":     c.Request().Method,
                "path":       c.Request().URL.Path,
                "route":      c.Path(),
                "status":     status,
                "latency_ms": time.Since(start).Milliseconds(),
                "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
                "remote_ip":  c.RealIP(),
            })
            switch {
            case status >= 500:
                entry.Error("request")
            case status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
