package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// ReservationRepo provides access to reservations and the tickets they own.
// All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx inserts a reservation within the scope of an existing
// transaction and sets its ID.  The caller must commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, created_at) VALUES (?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// ListByUser returns one page of the user's reservations, newest first,
// together with the total number of reservations the user has.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Reservation, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM reservations WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
			return nil, 0, err
		}
		res.CreatedAt = res.CreatedAt.UTC()
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadTickets(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByIDForUser returns a reservation only if it belongs to userID.
// Other users' reservations are reported as ErrNotFound.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM reservations WHERE id = ? AND user_id = ?",
		reservationID, userID).Scan(&res.ID, &res.UserID, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res.CreatedAt = res.CreatedAt.UTC()
	list := []model.Reservation{res}
	if err := r.loadTickets(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// loadTickets attaches tickets, each with its performance, play title and
// hall name, to the given reservations.
func (r *ReservationRepo) loadTickets(ctx context.Context, list []model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	ids := make([]uint64, 0, len(list))
	for i := range list {
		index[list[i].ID] = i
		ids = append(ids, list[i].ID)
		list[i].Tickets = []model.Ticket{}
	}
	q := `SELECT t.id, t.seat_row, t.seat_number, t.performance_id, t.reservation_id,
			pf.play_id, pf.theatre_hall_id, pf.show_time, p.title, h.name
		FROM tickets t
		JOIN performances pf ON pf.id = t.performance_id
		JOIN plays p ON p.id = pf.play_id
		JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		WHERE t.reservation_id IN (` + placeholders(len(ids)) + `)
		ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q, appendIDs(nil, ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Ticket
		pf := &model.Performance{Play: &model.Play{}, Hall: &model.TheatreHall{}}
		if err := rows.Scan(&t.ID, &t.Row, &t.Seat, &t.PerformanceID, &t.ReservationID,
			&pf.PlayID, &pf.TheatreHallID, &pf.ShowTime, &pf.Play.Title, &pf.Hall.Name); err != nil {
			return err
		}
		pf.ID = t.PerformanceID
		pf.ShowTime = pf.ShowTime.UTC()
		pf.Play.ID = pf.PlayID
		pf.Hall.ID = pf.TheatreHallID
		t.Performance = pf
		res := &list[index[t.ReservationID]]
		res.Tickets = append(res.Tickets, t)
	}
	return rows.Err()
}
