package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// TicketRepo stores seat claims.  All writes run inside the caller's
// transaction.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t and sets its ID.  A violation of the
// (performance, row, seat) unique constraint is reported as ErrDuplicate.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (seat_row, seat_number, performance_id, reservation_id) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.Row, t.Seat, t.PerformanceID, t.ReservationID)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// CountByPerformance returns the number of tickets issued for a performance.
func CountByPerformance(ctx context.Context, q Querier, performanceID uint64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE performance_id = ?", performanceID).Scan(&n)
	return n, err
}

// CountByPerformanceTx is CountByPerformance bound to tx.
func (r *TicketRepo) CountByPerformanceTx(ctx context.Context, tx *sql.Tx, performanceID uint64) (int, error) {
	return CountByPerformance(ctx, tx, performanceID)
}

// TakenSeats lists the claimed seats of a performance ordered by row and seat.
func (r *TicketRepo) TakenSeats(ctx context.Context, performanceID uint64) ([]model.SeatPosition, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT seat_row, seat_number FROM tickets WHERE performance_id = ? ORDER BY seat_row, seat_number",
		performanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SeatPosition{}
	for rows.Next() {
		var s model.SeatPosition
		if err := rows.Scan(&s.Row, &s.Seat); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
