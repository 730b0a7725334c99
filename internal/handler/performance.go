package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/service"
)

// PerformanceHandler serves /v1/performances.  Listings are never cached
// since available_tickets changes with every reservation.
type PerformanceHandler struct {
    Performances *service.PerformanceService
    Log          logrus.FieldLogger
}

func NewPerformanceHandler(p *service.PerformanceService, log logrus.FieldLogger) *PerformanceHandler {
    return &PerformanceHandler{Performances: p, Log: log}
}

type performanceReq struct {
    Play        uint64    `json:"play"`
    TheatreHall uint64    `json:"theatre_hall"`
    ShowTime    time.Time `json:"show_time"`
}

type performanceResp struct {
    ID          uint64    `json:"id"`
    Play        uint64    `json:"play"`
    TheatreHall uint64    `json:"theatre_hall"`
    ShowTime    time.Time `json:"show_time"`
}

type performanceDetailResp struct {
    ID          uint64               `json:"id"`
    ShowTime    time.Time            `json:"show_time"`
    Play        playDetailResp       `json:"play"`
    TheatreHall hallResp             `json:"theatre_hall"`
    Available   int                  `json:"available_tickets"`
    TakenPlaces []model.SeatPosition `json:"taken_places"`
}

func toPerformanceResp(p *model.Performance) performanceResp {
    return performanceResp{ID: p.ID, Play: p.PlayID, TheatreHall: p.TheatreHallID, ShowTime: p.ShowTime}
}

// List handles GET /v1/performances?date_range=N&play=title.
func (h *PerformanceHandler) List(c echo.Context) error {
    days, present, ok := queryInt(c, "date_range")
    if !ok {
        return badRequest(c, "date_range", "date_range must be an integer number of days")
    }
    var dateRange *int
    if present {
        dateRange = &days
    }
    list, err := h.Performances.List(c.Request().Context(), dateRange, c.QueryParam("play"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/performances/:id.
func (h *PerformanceHandler) Get(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    d, err := h.Performances.Get(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, performanceDetailResp{
        ID:          d.Performance.ID,
        ShowTime:    d.Performance.ShowTime,
        Play:        toPlayDetail(d.Play),
        TheatreHall: toHallResp(d.Hall),
        Available:   d.Available,
        TakenPlaces: d.TakenSeats,
    })
}

func (h *PerformanceHandler) bind(c echo.Context) (service.PerformanceInput, error) {
    var req performanceReq
    if err := c.Bind(&req); err != nil {
        return service.PerformanceInput{}, err
    }
    return service.PerformanceInput{PlayID: req.Play, TheatreHallID: req.TheatreHall, ShowTime: req.ShowTime}, nil
}

// Create handles POST /v1/performances.
func (h *PerformanceHandler) Create(c echo.Context) error {
    in, err := h.bind(c)
    if err != nil {
        return badRequest(c, "", "invalid body")
    }
    p, err := h.Performances.Create(c.Request().Context(), in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toPerformanceResp(p))
}

// Update handles PUT /v1/performances/:id.
func (h *PerformanceHandler) Update(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    in, err := h.bind(c)
    if err != nil {
        return badRequest(c, "", "invalid body")
    }
    p, err := h.Performances.Update(c.Request().Context(), id, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toPerformanceResp(p))
}

// Delete handles DELETE /v1/performances/:id.
func (h *PerformanceHandler) Delete(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    if err := h.Performances.Delete(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
