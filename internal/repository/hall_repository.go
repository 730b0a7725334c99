package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// HallRepo provides methods to create and retrieve theatre halls.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = "id, name, total_rows, seats_in_row"

func scanHall(row interface{ Scan(...any) error }, h *model.TheatreHall) error {
	return row.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
}

// Create inserts a new hall.  After insert the ID field of the hall is set.
func (r *HallRepo) Create(ctx context.Context, h *model.TheatreHall) error {
	const q = `INSERT INTO theatre_halls (name, total_rows, seats_in_row) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID retrieves a hall by its ID.  It returns ErrNotFound when no row
// is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.TheatreHall, error) {
	var h model.TheatreHall
	err := scanHall(r.db.QueryRowContext(ctx, "SELECT "+hallColumns+" FROM theatre_halls WHERE id = ?", id), &h)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns all halls ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]model.TheatreHall, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+hallColumns+" FROM theatre_halls ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TheatreHall{}
	for rows.Next() {
		var h model.TheatreHall
		if err := scanHall(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes name and seating layout.  Existing tickets are not
// re-validated against a smaller grid.  Returns ErrNotFound when the hall
// does not exist.
func (r *HallRepo) Update(ctx context.Context, h *model.TheatreHall) error {
	const q = `UPDATE theatre_halls SET name = ?, total_rows = ?, seats_in_row = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsInRow, h.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes a hall together with its performances and their tickets.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM theatre_halls WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}
