package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// PlayFilter narrows List.  Zero values disable the filter.  A play matches
// GenreIDs (ActorIDs) when it has at least one of the listed genres (actors).
type PlayFilter struct {
	Title    string
	GenreIDs []uint64
	ActorIDs []uint64
}

// PlayRepo persists plays and their genre/actor links.
type PlayRepo struct {
	db *sql.DB
}

func NewPlayRepo(db *sql.DB) *PlayRepo {
	return &PlayRepo{db: db}
}

// Create inserts the play and its links in one transaction.  Only the IDs
// of p.Genres and p.Actors are used.
func (r *PlayRepo) Create(ctx context.Context, p *model.Play) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO plays (title, description) VALUES (?, ?)", p.Title, p.Description)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		return replaceLinksTx(ctx, tx, p)
	})
}

// Update overwrites title and description and replaces all links.
func (r *PlayRepo) Update(ctx context.Context, p *model.Play) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE plays SET title = ?, description = ? WHERE id = ?", p.Title, p.Description, p.ID)
		if err != nil {
			return err
		}
		if err := affectedOrNotFound(res); err != nil {
			return err
		}
		return replaceLinksTx(ctx, tx, p)
	})
}

func replaceLinksTx(ctx context.Context, tx *sql.Tx, p *model.Play) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM play_genres WHERE play_id = ?", p.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM play_actors WHERE play_id = ?", p.ID); err != nil {
		return err
	}
	for _, g := range p.Genres {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_genres (play_id, genre_id) VALUES (?, ?)", p.ID, g.ID); err != nil {
			return err
		}
	}
	for _, a := range p.Actors {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_actors (play_id, actor_id) VALUES (?, ?)", p.ID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads a play with its genres and actors.
func (r *PlayRepo) GetByID(ctx context.Context, id uint64) (*model.Play, error) {
	var p model.Play
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT id, title, description FROM plays WHERE id = ?", id).Scan(&p.ID, &p.Title, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	plays := []model.Play{p}
	if err := r.loadRelations(ctx, plays); err != nil {
		return nil, err
	}
	return &plays[0], nil
}

// List returns plays matching f ordered by id, with relations loaded.
func (r *PlayRepo) List(ctx context.Context, f PlayFilter) ([]model.Play, error) {
	where := []string{}
	args := []any{}
	if t := strings.TrimSpace(f.Title); t != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if len(f.GenreIDs) > 0 {
		where = append(where, "p.id IN (SELECT play_id FROM play_genres WHERE genre_id IN ("+placeholders(len(f.GenreIDs))+"))")
		args = appendIDs(args, f.GenreIDs)
	}
	if len(f.ActorIDs) > 0 {
		where = append(where, "p.id IN (SELECT play_id FROM play_actors WHERE actor_id IN ("+placeholders(len(f.ActorIDs))+"))")
		args = appendIDs(args, f.ActorIDs)
	}
	q := "SELECT p.id, p.title, p.description FROM plays p"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY p.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Play{}
	for rows.Next() {
		var p model.Play
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &desc); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			p.Description = &d
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a play; links and performances cascade.
func (r *PlayRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// loadRelations fills Genres and Actors for every play with two queries.
func (r *PlayRepo) loadRelations(ctx context.Context, plays []model.Play) error {
	if len(plays) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(plays))
	ids := make([]uint64, 0, len(plays))
	for i := range plays {
		index[plays[i].ID] = i
		ids = append(ids, plays[i].ID)
		plays[i].Genres = []model.Genre{}
		plays[i].Actors = []model.Actor{}
	}
	in := placeholders(len(ids))

	grows, err := r.db.QueryContext(ctx, `SELECT pg.play_id, g.id, g.name
		FROM play_genres pg JOIN genres g ON g.id = pg.genre_id
		WHERE pg.play_id IN (`+in+`) ORDER BY g.id`, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	defer grows.Close()
	for grows.Next() {
		var playID uint64
		var g model.Genre
		if err := grows.Scan(&playID, &g.ID, &g.Name); err != nil {
			return err
		}
		p := &plays[index[playID]]
		p.Genres = append(p.Genres, g)
	}
	if err := grows.Err(); err != nil {
		return err
	}

	arows, err := r.db.QueryContext(ctx, `SELECT pa.play_id, a.id, a.first_name, a.last_name
		FROM play_actors pa JOIN actors a ON a.id = pa.actor_id
		WHERE pa.play_id IN (`+in+`) ORDER BY a.id`, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	defer arows.Close()
	for arows.Next() {
		var playID uint64
		var a model.Actor
		if err := arows.Scan(&playID, &a.ID, &a.FirstName, &a.LastName); err != nil {
			return err
		}
		p := &plays[index[playID]]
		p.Actors = append(p.Actors, a)
	}
	return arows.Err()
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendIDs(args []any, ids []uint64) []any {
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
