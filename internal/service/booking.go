package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// ValidateSeat checks that (row, seat) lies within the hall grid.  Row is
// checked before seat.
func ValidateSeat(row, seat int, hall model.TheatreHall) error {
	if row < 1 || row > hall.Rows {
		return invalid("row", "row number must be in available range: (1, %d)", hall.Rows)
	}
	if seat < 1 || seat > hall.SeatsInRow {
		return invalid("seat", "seat number must be in available range: (1, %d)", hall.SeatsInRow)
	}
	return nil
}

// Allocator claims seats inside a caller-owned transaction.  The tickets
// unique constraint decides races between concurrent claims.
type Allocator struct {
	tickets *repository.TicketRepo
}

func NewAllocator(tickets *repository.TicketRepo) *Allocator {
	return &Allocator{tickets: tickets}
}

// ComputeAvailable returns the seats of perf not yet ticketed.  perf.Hall
// must be loaded.
func (a *Allocator) ComputeAvailable(ctx context.Context, tx *sql.Tx, perf *model.Performance) (int, error) {
	issued, err := a.tickets.CountByPerformanceTx(ctx, tx, perf.ID)
	if err != nil {
		return 0, err
	}
	return perf.Hall.Capacity() - issued, nil
}

// ClaimSeat validates and inserts one ticket for reservationID.  A seat
// already ticketed is reported as *SeatTakenError by the unique constraint.
func (a *Allocator) ClaimSeat(ctx context.Context, tx *sql.Tx, perf *model.Performance, row, seat int, reservationID uint64) (*model.Ticket, error) {
	if err := ValidateSeat(row, seat, *perf.Hall); err != nil {
		return nil, err
	}
	t := &model.Ticket{Row: row, Seat: seat, PerformanceID: perf.ID, ReservationID: reservationID}
	if err := a.tickets.CreateTx(ctx, tx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &SeatTakenError{PerformanceID: perf.ID, Row: row, Seat: seat}
		}
		return nil, err
	}
	// Only a hall shrunk below its issued tickets can overflow here.
	left, err := a.ComputeAvailable(ctx, tx, perf)
	if err != nil {
		return nil, err
	}
	if left < 0 {
		return nil, ErrSoldOut
	}
	return t, nil
}
