package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/repository"
    "github.com/iliyamo/theatre-reservation/internal/service"
)

// CatalogHandler serves genres, actors, plays and theatre halls.  Reads are
// open to any authenticated user; writes are mounted behind the ADMIN role.
type CatalogHandler struct {
    Catalog *service.CatalogService
    Log     logrus.FieldLogger
}

func NewCatalogHandler(catalog *service.CatalogService, log logrus.FieldLogger) *CatalogHandler {
    return &CatalogHandler{Catalog: catalog, Log: log}
}

// ----- DTOs -----

type actorResp struct {
    ID        uint64 `json:"id"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    FullName  string `json:"full_name"`
}

func toActorResp(a model.Actor) actorResp {
    return actorResp{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()}
}

type hallReq struct {
    Name       string `json:"name"`
    Rows       int    `json:"rows"`
    SeatsInRow int    `json:"seats_in_row"`
}

type hallResp struct {
    ID         uint64 `json:"id"`
    Name       string `json:"name"`
    Rows       int    `json:"rows"`
    SeatsInRow int    `json:"seats_in_row"`
    Capacity   int    `json:"capacity"`
}

func toHallResp(h model.TheatreHall) hallResp {
    return hallResp{ID: h.ID, Name: h.Name, Rows: h.Rows, SeatsInRow: h.SeatsInRow, Capacity: h.Capacity()}
}

type playReq struct {
    Title       string   `json:"title"`
    Description *string  `json:"description"`
    Genres      []uint64 `json:"genres"`
    Actors      []uint64 `json:"actors"`
}

// playListResp flattens relations to names.
type playListResp struct {
    ID          uint64   `json:"id"`
    Title       string   `json:"title"`
    Description *string  `json:"description"`
    Genres      []string `json:"genres"`
    Actors      []string `json:"actors"`
}

type playDetailResp struct {
    ID          uint64        `json:"id"`
    Title       string        `json:"title"`
    Description *string       `json:"description"`
    Genres      []model.Genre `json:"genres"`
    Actors      []actorResp   `json:"actors"`
}

func toPlayDetail(p model.Play) playDetailResp {
    out := playDetailResp{ID: p.ID, Title: p.Title, Description: p.Description, Genres: p.Genres, Actors: []actorResp{}}
    if out.Genres == nil {
        out.Genres = []model.Genre{}
    }
    for _, a := range p.Actors {
        out.Actors = append(out.Actors, toActorResp(a))
    }
    return out
}

func toPlayList(p model.Play) playListResp {
    out := playListResp{ID: p.ID, Title: p.Title, Description: p.Description, Genres: []string{}, Actors: []string{}}
    for _, g := range p.Genres {
        out.Genres = append(out.Genres, g.Name)
    }
    for _, a := range p.Actors {
        out.Actors = append(out.Actors, a.FullName())
    }
    return out
}

// ----- Genres -----

func (h *CatalogHandler) ListGenres(c echo.Context) error {
    list, err := h.Catalog.ListGenres(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetGenre(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    g, err := h.Catalog.GetGenre(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, g)
}

// SaveGenre handles POST /v1/genres and PUT /v1/genres/:id.
func (h *CatalogHandler) SaveGenre(c echo.Context) error {
    var g model.Genre
    if err := c.Bind(&g); err != nil {
        return badRequest(c, "", "invalid body")
    }
    status, ok := h.targetID(c, &g.ID)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    if err := h.Catalog.SaveGenre(c.Request().Context(), &g); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(status, g)
}

func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
    return h.delete(c, h.Catalog.DeleteGenre)
}

// ----- Actors -----

func (h *CatalogHandler) ListActors(c echo.Context) error {
    list, err := h.Catalog.ListActors(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out := make([]actorResp, 0, len(list))
    for _, a := range list {
        out = append(out, toActorResp(a))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetActor(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    a, err := h.Catalog.GetActor(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toActorResp(*a))
}

func (h *CatalogHandler) SaveActor(c echo.Context) error {
    var a model.Actor
    if err := c.Bind(&a); err != nil {
        return badRequest(c, "", "invalid body")
    }
    status, ok := h.targetID(c, &a.ID)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    if err := h.Catalog.SaveActor(c.Request().Context(), &a); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(status, toActorResp(a))
}

func (h *CatalogHandler) DeleteActor(c echo.Context) error {
    return h.delete(c, h.Catalog.DeleteActor)
}

// ----- Theatre halls -----

func (h *CatalogHandler) ListHalls(c echo.Context) error {
    list, err := h.Catalog.ListHalls(c.Request().Context())
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out := make([]hallResp, 0, len(list))
    for _, hall := range list {
        out = append(out, toHallResp(hall))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetHall(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    hall, err := h.Catalog.GetHall(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toHallResp(*hall))
}

func (h *CatalogHandler) SaveHall(c echo.Context) error {
    var req hallReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    hall := model.TheatreHall{Name: req.Name, Rows: req.Rows, SeatsInRow: req.SeatsInRow}
    status, ok := h.targetID(c, &hall.ID)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    if err := h.Catalog.SaveHall(c.Request().Context(), &hall); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(status, toHallResp(hall))
}

func (h *CatalogHandler) DeleteHall(c echo.Context) error {
    return h.delete(c, h.Catalog.DeleteHall)
}

// ----- Plays -----

// ListPlays handles GET /v1/plays?title=&genres=1,2&actors=3.
func (h *CatalogHandler) ListPlays(c echo.Context) error {
    genres, ok := queryIDs(c, "genres")
    if !ok {
        return badRequest(c, "genres", "genres must be a comma separated list of ids")
    }
    actors, ok := queryIDs(c, "actors")
    if !ok {
        return badRequest(c, "actors", "actors must be a comma separated list of ids")
    }
    list, err := h.Catalog.ListPlays(c.Request().Context(), repository.PlayFilter{
        Title:    c.QueryParam("title"),
        GenreIDs: genres,
        ActorIDs: actors,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    out := make([]playListResp, 0, len(list))
    for _, p := range list {
        out = append(out, toPlayList(p))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetPlay(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    p, err := h.Catalog.GetPlay(c.Request().Context(), id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toPlayDetail(*p))
}

func (h *CatalogHandler) SavePlay(c echo.Context) error {
    var req playReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    var id uint64
    status, ok := h.targetID(c, &id)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    p, err := h.Catalog.SavePlay(c.Request().Context(), id, service.PlayInput{
        Title:       req.Title,
        Description: req.Description,
        GenreIDs:    req.Genres,
        ActorIDs:    req.Actors,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(status, toPlayDetail(*p))
}

func (h *CatalogHandler) DeletePlay(c echo.Context) error {
    return h.delete(c, h.Catalog.DeletePlay)
}

// targetID sets *id from the :id path parameter on PUT routes and returns
// the success status: 201 for create, 200 for update.
func (h *CatalogHandler) targetID(c echo.Context, id *uint64) (int, bool) {
    if c.Param("id") == "" {
        *id = 0
        return http.StatusCreated, true
    }
    v, ok := pathID(c)
    *id = v
    return http.StatusOK, ok
}

func (h *CatalogHandler) delete(c echo.Context, del func(ctx context.Context, id uint64) error) error {
    id, ok := pathID(c)
    if !ok {
        return badRequest(c, "id", "invalid id")
    }
    if err := del(c.Request().Context(), id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
