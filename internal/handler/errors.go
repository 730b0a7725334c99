package handler

import (
    "errors"
    "math"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/repository"
    "github.com/iliyamo/theatre-reservation/internal/service"
    "github.com/iliyamo/theatre-reservation/internal/throttle"
)

// badRequest answers 400 for malformed input detected in the handler.
func badRequest(c echo.Context, field, msg string) error {
    body := echo.Map{"error": "validation_error", "message": msg}
    if field != "" {
        body["field"] = field
    }
    return c.JSON(http.StatusBadRequest, body)
}

// respondError translates service and repository errors into responses.
// Anything unrecognised is logged and answered with 500 without exposing
// the error text.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
    var (
        ve     *service.ValidationError
        te     *service.TicketError
        taken  *service.SeatTakenError
        locked *throttle.LockedError
    )
    switch {
    case errors.As(err, &ve):
        body := echo.Map{"error": "validation_error", "field": ve.Field, "message": ve.Message}
        if errors.As(err, &te) {
            body["ticket_index"] = te.Index
        }
        return c.JSON(http.StatusBadRequest, body)

    case errors.Is(err, service.ErrConflict):
        body := echo.Map{"error": "seat_unavailable", "message": "performance is sold out"}
        if errors.As(err, &taken) {
            body["message"] = taken.Error()
            body["performance"] = taken.PerformanceID
            body["row"] = taken.Row
            body["seat"] = taken.Seat
        }
        if errors.As(err, &te) {
            body["ticket_index"] = te.Index
        }
        return c.JSON(http.StatusConflict, body)

    case errors.As(err, &locked):
        secs := int(math.Ceil(locked.RetryAfter.Seconds()))
        if secs < 1 {
            secs = 1
        }
        c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
        return c.JSON(http.StatusTooManyRequests, echo.Map{
            "error":       "login_locked",
            "message":     "too many failed login attempts, try again later",
            "retry_after": secs,
        })

    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials", "message": "invalid credentials"})

    case errors.Is(err, service.ErrPermission):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "permission denied"})

    case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "not found"})
    }

    log.WithError(err).WithFields(logrus.Fields{
        "request_id": c.Response().Header().Get(echo.HeaderXRequestID),
        "method":     c.Request().Method,
        "path":       c.Path(),
    }).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "internal server error"})
}
