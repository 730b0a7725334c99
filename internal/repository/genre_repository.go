package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// GenreRepo encapsulates all database queries related to genres.
type GenreRepo struct {
	db *sql.DB
}

func NewGenreRepo(db *sql.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// Create inserts a genre and populates its ID.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", g.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound if no row is found.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (*model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM genres WHERE id = ?", id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// List returns all genres ordered by id.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update renames a genre.  It returns ErrNotFound when no row is affected.
func (r *GenreRepo) Update(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, "UPDATE genres SET name = ? WHERE id = ?", g.Name, g.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM genres WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
