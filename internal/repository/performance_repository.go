package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// PerformanceFilter narrows List.  DateRange, when non-nil, keeps
// performances whose show date falls within [today, today+DateRange] where
// today is taken from Now in UTC.  PlayTitle is a case-insensitive
// substring match on the play title.
type PerformanceFilter struct {
	DateRange *int
	PlayTitle string
	Now       time.Time
}

// PerformanceRepo manages persistence for performances.
type PerformanceRepo struct {
	db *sql.DB
}

func NewPerformanceRepo(db *sql.DB) *PerformanceRepo {
	return &PerformanceRepo{db: db}
}

// Create inserts a performance.  ShowTime is stored in UTC with second
// precision.
func (r *PerformanceRepo) Create(ctx context.Context, p *model.Performance) error {
	p.ShowTime = p.ShowTime.UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO performances (play_id, theatre_hall_id, show_time) VALUES (?, ?, ?)",
		p.PlayID, p.TheatreHallID, p.ShowTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites play, hall and show time.  Existing tickets are kept.
func (r *PerformanceRepo) Update(ctx context.Context, p *model.Performance) error {
	p.ShowTime = p.ShowTime.UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"UPDATE performances SET play_id = ?, theatre_hall_id = ?, show_time = ? WHERE id = ?",
		p.PlayID, p.TheatreHallID, p.ShowTime, p.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes a performance and, by cascade, its tickets.
func (r *PerformanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM performances WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

const performanceWithJoins = `SELECT pf.id, pf.play_id, pf.theatre_hall_id, pf.show_time,
		p.title, h.name, h.total_rows, h.seats_in_row
	FROM performances pf
	JOIN plays p ON p.id = pf.play_id
	JOIN theatre_halls h ON h.id = pf.theatre_hall_id
	WHERE pf.id = ?`

// GetWithHall loads a performance with its play title and hall.  q may be
// the database or an open transaction.
func GetWithHall(ctx context.Context, q Querier, id uint64) (*model.Performance, error) {
	var p model.Performance
	play := &model.Play{}
	hall := &model.TheatreHall{}
	err := q.QueryRowContext(ctx, performanceWithJoins, id).Scan(
		&p.ID, &p.PlayID, &p.TheatreHallID, &p.ShowTime,
		&play.Title, &hall.Name, &hall.Rows, &hall.SeatsInRow,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.ShowTime = p.ShowTime.UTC()
	play.ID = p.PlayID
	hall.ID = p.TheatreHallID
	p.Play = play
	p.Hall = hall
	return &p, nil
}

// GetByID loads a performance with its play and hall.
func (r *PerformanceRepo) GetByID(ctx context.Context, id uint64) (*model.Performance, error) {
	return GetWithHall(ctx, r.db, id)
}

// GetWithHallTx is GetWithHall bound to tx.
func (r *PerformanceRepo) GetWithHallTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Performance, error) {
	return GetWithHall(ctx, tx, id)
}

// List returns summaries ordered by show time.  available_tickets is
// computed from the hall grid and the tickets present at query time.
func (r *PerformanceRepo) List(ctx context.Context, f PerformanceFilter) ([]model.PerformanceSummary, error) {
	where := []string{}
	args := []any{}
	if f.DateRange != nil {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		now = now.UTC()
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, *f.DateRange+1)
		where = append(where, "pf.show_time >= ? AND pf.show_time < ?")
		args = append(args, from, to)
	}
	if t := strings.TrimSpace(f.PlayTitle); t != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	q := `SELECT pf.id, p.title, h.name, h.total_rows * h.seats_in_row,
			h.total_rows * h.seats_in_row - COUNT(t.id), pf.show_time
		FROM performances pf
		JOIN plays p ON p.id = pf.play_id
		JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		LEFT JOIN tickets t ON t.performance_id = pf.id
		WHERE ` + cond + `
		GROUP BY pf.id, p.title, h.name, h.total_rows, h.seats_in_row, pf.show_time
		ORDER BY pf.show_time, pf.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PerformanceSummary{}
	for rows.Next() {
		var s model.PerformanceSummary
		if err := rows.Scan(&s.ID, &s.PlayTitle, &s.HallName, &s.HallCapacity, &s.Available, &s.ShowTime); err != nil {
			return nil, err
		}
		s.ShowTime = s.ShowTime.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
