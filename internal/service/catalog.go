package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// CatalogService validates and stores genres, actors, plays and halls.
type CatalogService struct {
	genres *repository.GenreRepo
	actors *repository.ActorRepo
	plays  *repository.PlayRepo
	halls  *repository.HallRepo
}

func NewCatalogService(db *sql.DB) *CatalogService {
	return &CatalogService{
		genres: repository.NewGenreRepo(db),
		actors: repository.NewActorRepo(db),
		plays:  repository.NewPlayRepo(db),
		halls:  repository.NewHallRepo(db),
	}
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "%s is required", field)
	}
	return nil
}

// Genres

func (s *CatalogService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.genres.List(ctx)
}

func (s *CatalogService) GetGenre(ctx context.Context, id uint64) (*model.Genre, error) {
	g, err := s.genres.GetByID(ctx, id)
	return g, notFound(err)
}

func (s *CatalogService) SaveGenre(ctx context.Context, g *model.Genre) error {
	g.Name = strings.TrimSpace(g.Name)
	if err := required("name", g.Name); err != nil {
		return err
	}
	if g.ID == 0 {
		return s.genres.Create(ctx, g)
	}
	return notFound(s.genres.Update(ctx, g))
}

func (s *CatalogService) DeleteGenre(ctx context.Context, id uint64) error {
	return notFound(s.genres.Delete(ctx, id))
}

// Actors

func (s *CatalogService) ListActors(ctx context.Context) ([]model.Actor, error) {
	return s.actors.List(ctx)
}

func (s *CatalogService) GetActor(ctx context.Context, id uint64) (*model.Actor, error) {
	a, err := s.actors.GetByID(ctx, id)
	return a, notFound(err)
}

func (s *CatalogService) SaveActor(ctx context.Context, a *model.Actor) error {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	if err := required("first_name", a.FirstName); err != nil {
		return err
	}
	if err := required("last_name", a.LastName); err != nil {
		return err
	}
	if a.ID == 0 {
		return s.actors.Create(ctx, a)
	}
	return notFound(s.actors.Update(ctx, a))
}

func (s *CatalogService) DeleteActor(ctx context.Context, id uint64) error {
	return notFound(s.actors.Delete(ctx, id))
}

// Theatre halls

func (s *CatalogService) ListHalls(ctx context.Context) ([]model.TheatreHall, error) {
	return s.halls.List(ctx)
}

func (s *CatalogService) GetHall(ctx context.Context, id uint64) (*model.TheatreHall, error) {
	h, err := s.halls.GetByID(ctx, id)
	return h, notFound(err)
}

func (s *CatalogService) SaveHall(ctx context.Context, h *model.TheatreHall) error {
	h.Name = strings.TrimSpace(h.Name)
	if err := required("name", h.Name); err != nil {
		return err
	}
	if h.Rows < 1 {
		return invalid("rows", "rows must be a positive number")
	}
	if h.SeatsInRow < 1 {
		return invalid("seats_in_row", "seats_in_row must be a positive number")
	}
	if h.ID == 0 {
		return s.halls.Create(ctx, h)
	}
	return notFound(s.halls.Update(ctx, h))
}

func (s *CatalogService) DeleteHall(ctx context.Context, id uint64) error {
	return notFound(s.halls.Delete(ctx, id))
}

// Plays

// PlayInput is the writable part of a play.
type PlayInput struct {
	Title       string
	Description *string
	GenreIDs    []uint64
	ActorIDs    []uint64
}

func (s *CatalogService) ListPlays(ctx context.Context, f repository.PlayFilter) ([]model.Play, error) {
	return s.plays.List(ctx, f)
}

func (s *CatalogService) GetPlay(ctx context.Context, id uint64) (*model.Play, error) {
	p, err := s.plays.GetByID(ctx, id)
	return p, notFound(err)
}

// SavePlay creates the play when id is 0 and replaces it otherwise.  Every
// referenced genre and actor must exist.
func (s *CatalogService) SavePlay(ctx context.Context, id uint64, in PlayInput) (*model.Play, error) {
	p := &model.Play{ID: id, Title: strings.TrimSpace(in.Title), Description: in.Description}
	if err := required("title", p.Title); err != nil {
		return nil, err
	}
	for _, gid := range dedupe(in.GenreIDs) {
		g, err := s.genres.GetByID(ctx, gid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("genres", "genre %d does not exist", gid)
			}
			return nil, err
		}
		p.Genres = append(p.Genres, *g)
	}
	for _, aid := range dedupe(in.ActorIDs) {
		a, err := s.actors.GetByID(ctx, aid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("actors", "actor %d does not exist", aid)
			}
			return nil, err
		}
		p.Actors = append(p.Actors, *a)
	}
	if p.Genres == nil {
		p.Genres = []model.Genre{}
	}
	if p.Actors == nil {
		p.Actors = []model.Actor{}
	}

	var err error
	if id == 0 {
		err = s.plays.Create(ctx, p)
	} else {
		err = s.plays.Update(ctx, p)
	}
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *CatalogService) DeletePlay(ctx context.Context, id uint64) error {
	return notFound(s.plays.Delete(ctx, id))
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
