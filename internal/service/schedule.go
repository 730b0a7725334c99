package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// ValidateShowTime rejects show times before now.  A show time equal to
// now is accepted.
func ValidateShowTime(showTime, now time.Time) error {
	if showTime.Before(now) {
		return invalid("show_time", "show time cannot be in the past")
	}
	return nil
}

// PerformanceInput is the writable part of a performance.
type PerformanceInput struct {
	PlayID        uint64
	TheatreHallID uint64
	ShowTime      time.Time
}

// PerformanceDetail is a performance with its full play, hall, remaining
// seat count and the seats already taken.
type PerformanceDetail struct {
	Performance model.Performance
	Play        model.Play
	Hall        model.TheatreHall
	Available   int
	TakenSeats  []model.SeatPosition
}

// PerformanceService schedules performances.
type PerformanceService struct {
	performances *repository.PerformanceRepo
	plays        *repository.PlayRepo
	halls        *repository.HallRepo
	tickets      *repository.TicketRepo
	now          func() time.Time
}

func NewPerformanceService(db *sql.DB, now func() time.Time) *PerformanceService {
	if now == nil {
		now = time.Now
	}
	return &PerformanceService{
		performances: repository.NewPerformanceRepo(db),
		plays:        repository.NewPlayRepo(db),
		halls:        repository.NewHallRepo(db),
		tickets:      repository.NewTicketRepo(db),
		now:          now,
	}
}

func (s *PerformanceService) validate(ctx context.Context, in PerformanceInput) error {
	if in.ShowTime.IsZero() {
		return invalid("show_time", "show time is required")
	}
	if err := ValidateShowTime(in.ShowTime, s.now()); err != nil {
		return err
	}
	if _, err := s.plays.GetByID(ctx, in.PlayID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("play", "play %d does not exist", in.PlayID)
		}
		return err
	}
	if _, err := s.halls.GetByID(ctx, in.TheatreHallID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("theatre_hall", "theatre hall %d does not exist", in.TheatreHallID)
		}
		return err
	}
	return nil
}

// Create schedules a new performance.
func (s *PerformanceService) Create(ctx context.Context, in PerformanceInput) (*model.Performance, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := &model.Performance{PlayID: in.PlayID, TheatreHallID: in.TheatreHallID, ShowTime: in.ShowTime}
	if err := s.performances.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update reschedules performance id.  The new show time is validated
// against the current time like a create.
func (s *PerformanceService) Update(ctx context.Context, id uint64, in PerformanceInput) (*model.Performance, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := &model.Performance{ID: id, PlayID: in.PlayID, TheatreHallID: in.TheatreHallID, ShowTime: in.ShowTime}
	if err := s.performances.Update(ctx, p); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Delete removes a performance and its tickets.
func (s *PerformanceService) Delete(ctx context.Context, id uint64) error {
	return notFound(s.performances.Delete(ctx, id))
}

// Get returns the detail view of performance id.
func (s *PerformanceService) Get(ctx context.Context, id uint64) (*PerformanceDetail, error) {
	p, err := s.performances.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	play, err := s.plays.GetByID(ctx, p.PlayID)
	if err != nil {
		return nil, notFound(err)
	}
	taken, err := s.tickets.TakenSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PerformanceDetail{
		Performance: *p,
		Play:        *play,
		Hall:        *p.Hall,
		Available:   p.Hall.Capacity() - len(taken),
		TakenSeats:  taken,
	}, nil
}

// List returns performance summaries.  dateRange, when non-nil, limits the
// result to the next *dateRange days including today.
func (s *PerformanceService) List(ctx context.Context, dateRange *int, playTitle string) ([]model.PerformanceSummary, error) {
	if dateRange != nil && *dateRange < 0 {
		return nil, invalid("date_range", "date_range must not be negative")
	}
	return s.performances.List(ctx, repository.PerformanceFilter{
		DateRange: dateRange,
		PlayTitle: playTitle,
		Now:       s.now(),
	})
}

// notFound maps repository.ErrNotFound to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
