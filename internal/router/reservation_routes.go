package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/handler"
)

// RegisterPerformances registers the schedule.  Responses carry live seat
// counts and are never cached.
func RegisterPerformances(v1 *echo.Group, h *handler.PerformanceHandler) {
    admin := adminOnly()
    v1.GET("/performances", h.List)
    v1.POST("/performances", h.Create, admin)
    v1.GET("/performances/:id", h.Get)
    v1.PUT("/performances/:id", h.Update, admin)
    v1.DELETE("/performances/:id", h.Delete, admin)
}

// RegisterReservations registers the caller's own reservations.
func RegisterReservations(v1 *echo.Group, h *handler.ReservationHandler) {
    v1.GET("/reservations", h.List)
    v1.POST("/reservations", h.Create)
    v1.GET("/reservations/:id", h.Get)
}
