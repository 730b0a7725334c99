package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/handler"
)

// RegisterCatalog registers genres, actors, plays and theatre halls.  Any
// authenticated user may read; writes need the ADMIN role.  cache wraps
// every catalog route so that writes invalidate cached reads.
func RegisterCatalog(v1 *echo.Group, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
    admin := adminOnly()

    g := v1.Group("/genres", cache)
    g.GET("", h.ListGenres)
    g.POST("", h.SaveGenre, admin)
    g.GET("/:id", h.GetGenre)
    g.PUT("/:id", h.SaveGenre, admin)
    g.DELETE("/:id", h.DeleteGenre, admin)

    g = v1.Group("/actors", cache)
    g.GET("", h.ListActors)
    g.POST("", h.SaveActor, admin)
    g.GET("/:id", h.GetActor)
    g.PUT("/:id", h.SaveActor, admin)
    g.DELETE("/:id", h.DeleteActor, admin)

    g = v1.Group("/plays", cache)
    g.GET("", h.ListPlays)
    g.POST("", h.SavePlay, admin)
    g.GET("/:id", h.GetPlay)
    g.PUT("/:id", h.SavePlay, admin)
    g.DELETE("/:id", h.DeletePlay, admin)

    g = v1.Group("/theatre-halls", cache)
    g.GET("", h.ListHalls)
    g.POST("", h.SaveHall, admin)
    g.GET("/:id", h.GetHall)
    g.PUT("/:id", h.SaveHall, admin)
    g.DELETE("/:id", h.DeleteHall, admin)
}
