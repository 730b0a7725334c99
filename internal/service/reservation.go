package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-reservation/internal/metrics"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/queue"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// Default and maximum page sizes for reservation listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TicketRequest asks for one seat of one performance.
type TicketRequest struct {
	PerformanceID uint64
	Row           int
	Seat          int
}

// ReservationPublisher receives committed reservations.
type ReservationPublisher interface {
	ReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// ReservationService creates reservations atomically and lists them per
// user.
type ReservationService struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	performances *repository.PerformanceRepo
	allocator    *Allocator
	publisher    ReservationPublisher
	log          logrus.FieldLogger
	now          func() time.Time
}

// ReservationOption customises a ReservationService.
type ReservationOption func(*ReservationService)

// WithClock overrides the clock used for created_at.
func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) { s.now = now }
}

// WithPublisher sends a ReservationCreatedEvent after each commit.
func WithPublisher(p ReservationPublisher) ReservationOption {
	return func(s *ReservationService) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) ReservationOption {
	return func(s *ReservationService) { s.log = l }
}

func NewReservationService(db *sql.DB, opts ...ReservationOption) *ReservationService {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &ReservationService{
		db:           db,
		reservations: repository.NewReservationRepo(db),
		performances: repository.NewPerformanceRepo(db),
		allocator:    NewAllocator(repository.NewTicketRepo(db)),
		log:          discard,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a reservation for userID holding every requested seat, or
// nothing at all.  The first failing ticket aborts the transaction and is
// returned as a *TicketError.
func (s *ReservationService) Create(ctx context.Context, userID uint64, reqs []TicketRequest) (*model.Reservation, error) {
	if len(reqs) == 0 {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, invalid("tickets", "at least one ticket is required")
	}

	res := &model.Reservation{
		UserID:    userID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
		Tickets:   make([]model.Ticket, 0, len(reqs)),
	}
	err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		// Performances are loaded once per id; every statement must go
		// through tx.
		perfs := map[uint64]*model.Performance{}
		for i, r := range reqs {
			perf, ok := perfs[r.PerformanceID]
			if !ok {
				p, err := s.performances.GetWithHallTx(ctx, tx, r.PerformanceID)
				if errors.Is(err, repository.ErrNotFound) {
					return &TicketError{Index: i, Err: invalid("performance", "performance %d does not exist", r.PerformanceID)}
				}
				if err != nil {
					return err
				}
				perf = p
				perfs[r.PerformanceID] = p
			}
			t, err := s.allocator.ClaimSeat(ctx, tx, perf, r.Row, r.Seat, res.ID)
			if err != nil {
				return &TicketError{Index: i, Err: err}
			}
			t.Performance = perf
			res.Tickets = append(res.Tickets, *t)
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	metrics.TicketsIssued.Add(float64(len(res.Tickets)))
	s.log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"user_id":        userID,
		"tickets":        len(res.Tickets),
	}).Info("reservation created")
	s.publish(res)
	return res, nil
}

func (s *ReservationService) recordFailure(err error) {
	var ve *ValidationError
	var st *SeatTakenError
	switch {
	case errors.As(err, &st):
		metrics.SeatConflicts.Inc()
		metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
	case errors.Is(err, ErrConflict):
		metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
	case errors.As(err, &ve):
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.ReservationsTotal.WithLabelValues("error").Inc()
		s.log.WithError(err).Error("reservation failed")
	}
}

// publish hands the event to the publisher without blocking the request.
func (s *ReservationService) publish(res *model.Reservation) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservationCreatedEvent{
		EventID:       uuid.NewString(),
		ReservationID: res.ID,
		UserID:        res.UserID,
		CreatedAt:     res.CreatedAt,
		Tickets:       make([]queue.TicketInfo, 0, len(res.Tickets)),
	}
	for _, t := range res.Tickets {
		ev.Tickets = append(ev.Tickets, queue.TicketInfo{PerformanceID: t.PerformanceID, Row: t.Row, Seat: t.Seat})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.ReservationCreated(ctx, ev); err != nil {
			s.log.WithError(err).WithField("reservation_id", ev.ReservationID).Warn("reservation event not published")
		}
	}()
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// NormalizePage clamps page to >= 1 and pageSize to [1, MaxPageSize],
// substituting DefaultPageSize for zero or negative sizes.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// List returns the caller's reservations, newest first.
func (s *ReservationService) List(ctx context.Context, userID uint64, page, pageSize int) (Page[model.Reservation], error) {
	page, pageSize = NormalizePage(page, pageSize)
	items, total, err := s.reservations.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page[model.Reservation]{}, err
	}
	return Page[model.Reservation]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get returns reservation id if it belongs to userID.
func (s *ReservationService) Get(ctx context.Context, userID, id uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetByIDForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return res, err
}
