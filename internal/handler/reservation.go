package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/service"
)

// ReservationHandler serves the caller's reservations.  All methods assume
// JWT authentication has already run.
type ReservationHandler struct {
    Reservations *service.ReservationService
    Log          logrus.FieldLogger
}

func NewReservationHandler(r *service.ReservationService, log logrus.FieldLogger) *ReservationHandler {
    return &ReservationHandler{Reservations: r, Log: log}
}

type ticketReq struct {
    Performance uint64 `json:"performance"`
    Row         int    `json:"row"`
    Seat        int    `json:"seat"`
}

type reservationReq struct {
    Tickets []ticketReq `json:"tickets"`
}

type ticketPerformance struct {
    ID              uint64    `json:"id"`
    PlayTitle       string    `json:"play_title"`
    TheatreHallName string    `json:"theatre_hall_name"`
    ShowTime        time.Time `json:"show_time"`
}

type ticketResp struct {
    ID          uint64             `json:"id"`
    Row         int                `json:"row"`
    Seat        int                `json:"seat"`
    Performance *ticketPerformance `json:"performance"`
}

type reservationResp struct {
    ID        uint64       `json:"id"`
    CreatedAt time.Time    `json:"created_at"`
    Tickets   []ticketResp `json:"tickets"`
}

func toReservationResp(r model.Reservation) reservationResp {
    out := reservationResp{ID: r.ID, CreatedAt: r.CreatedAt, Tickets: make([]ticketResp, 0, len(r.Tickets))}
    for _, t := range r.Tickets {
        tr := ticketResp{ID: t.ID, Row: t.Row, Seat: t.Seat}
        if p := t.Performance; p != nil {
            tp := &ticketPerformance{ID: p.ID, ShowTime: p.ShowTime}
            if p.Play != nil {
                tp.PlayTitle = p.Play.Title
            }
            if p.Hall != nil {
                tp.TheatreHallName = p.Hall.Name
            }
            tr.Performance = tp
        }
        out.Tickets = append(out.Tickets, tr)
    }
    return out
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body reservationReq
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "", "invalid request body")
    }
    reqs := make([]service.TicketRequest, 0, len(body.Tickets))
    for _, t := range body.Tickets {
        reqs = append(reqs, service.TicketRequest{PerformanceID: t.Performance, Row: t.Row, Seat: t.Seat})
    }
    res, err := h.Reservations.Create(c.Request().Context(), userID, reqs)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toReservationResp(*res))
}

// List handles GET /v1/reservations?page=&page_size=.
func (h *ReservationHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    page, _, ok := queryInt(c, "page")
    if !ok {
        return badRequest(c, "page", "page must be an integer")
    }
    size, _, ok := queryInt(c, "page_size")
    if !ok {
        return badRequest(c, "page_size", "page_size must be an integer")
    }
    p, err := h.Reservations.List(c.Request().Context(), userID, page, size)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    results := make([]reservationResp, 0, len(p.Items))
    for _, r := range p.Items {
        results = append(results, toReservationResp(r))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "count":     p.Total,
        "page":      p.Page,
        "page_size": p.PageSize,
        "results":   results,
    })
}

// Get handles GET /v1/reservations/:id.  Other users' reservations are 404.
func (h *ReservationHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    res, err := h.Reservations.Get(c.Request().Context(), userID, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toReservationResp(*res))
}
