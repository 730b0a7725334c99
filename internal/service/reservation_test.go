package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/queue"
	"github.com/iliyamo/theatre-reservation/internal/testutil"
)

type chanPublisher chan queue.ReservationCreatedEvent

func (c chanPublisher) ReservationCreated(_ context.Context, ev queue.ReservationCreatedEvent) error {
	c <- ev
	return nil
}

func TestCreateReservationSharesTimestamp(t *testing.T) {
	f := newBookingFixture(t, 10, 10)
	fixed := time.Date(2030, 3, 4, 5, 6, 7, 890, time.UTC)
	pub := make(chanPublisher, 1)
	svc := NewReservationService(f.db, WithClock(func() time.Time { return fixed }), WithPublisher(pub))

	res, err := svc.Create(context.Background(), f.user, []TicketRequest{
		{PerformanceID: f.perf, Row: 1, Seat: 1},
		{PerformanceID: f.perf, Row: 1, Seat: 2},
		{PerformanceID: f.perf, Row: 4, Seat: 9},
	})
	require.NoError(t, err)
	require.Len(t, res.Tickets, 3)
	assert.True(t, res.CreatedAt.Equal(fixed.Truncate(time.Second)))
	assert.Equal(t, 4, res.Tickets[2].Row)
	assert.Equal(t, 9, res.Tickets[2].Seat)
	for _, tk := range res.Tickets {
		assert.NotZero(t, tk.ID)
		assert.Equal(t, res.ID, tk.ReservationID)
	}

	stored, err := svc.Get(context.Background(), f.user, res.ID)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(res.CreatedAt))
	assert.Len(t, stored.Tickets, 3)

	select {
	case ev := <-pub:
		assert.Equal(t, res.ID, ev.ReservationID)
		assert.Len(t, ev.Tickets, 3)
		assert.NotEmpty(t, ev.EventID)
	case <-time.After(2 * time.Second):
		t.Fatal("reservation event not published")
	}
}

func TestCreateReservationIsAtomic(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	svc := NewReservationService(f.db)

	_, err := svc.Create(context.Background(), f.user, []TicketRequest{
		{PerformanceID: f.perf, Row: 1, Seat: 1},
		{PerformanceID: f.perf, Row: 9, Seat: 1},
		{PerformanceID: f.perf, Row: 2, Seat: 2},
	})
	var te *TicketError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Index)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "row", ve.Field)

	assert.Equal(t, 0, testutil.Count(t, f.db, "reservations"))
	assert.Equal(t, 0, testutil.Count(t, f.db, "tickets"))
}

func TestCreateReservationRejectsTakenSeat(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	svc := NewReservationService(f.db)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.user, []TicketRequest{{PerformanceID: f.perf, Row: 2, Seat: 3}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, f.user, []TicketRequest{
		{PerformanceID: f.perf, Row: 2, Seat: 4},
		{PerformanceID: f.perf, Row: 2, Seat: 3},
	})
	var te *TicketError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Index)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, testutil.Count(t, f.db, "reservations"))
	assert.Equal(t, 1, testutil.Count(t, f.db, "tickets"))
}

func TestCreateReservationSameSeatTwiceInRequest(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	svc := NewReservationService(f.db)

	_, err := svc.Create(context.Background(), f.user, []TicketRequest{
		{PerformanceID: f.perf, Row: 1, Seat: 1},
		{PerformanceID: f.perf, Row: 1, Seat: 1},
	})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, 0, testutil.Count(t, f.db, "tickets"))
}

func TestCreateReservationValidation(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	svc := NewReservationService(f.db)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.user, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "tickets", ve.Field)

	_, err = svc.Create(ctx, f.user, []TicketRequest{{PerformanceID: f.perf + 50, Row: 1, Seat: 1}})
	var te *TicketError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.Index)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "performance", ve.Field)
	assert.Equal(t, 0, testutil.Count(t, f.db, "reservations"))
}

func TestConcurrentClaimsSameSeat(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	svc := NewReservationService(f.db)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), f.user, []TicketRequest{{PerformanceID: f.perf, Row: 3, Seat: 3}})
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, testutil.Count(t, f.db, "tickets"))
	assert.Equal(t, 1, testutil.Count(t, f.db, "reservations"))
}

func TestReservationListScoping(t *testing.T) {
	f := newBookingFixture(t, 5, 5)
	other := testutil.SeedUser(t, f.db, "other@example.com", model.RoleCustomer)
	svc := NewReservationService(f.db)
	ctx := context.Background()

	mine, err := svc.Create(ctx, f.user, []TicketRequest{{PerformanceID: f.perf, Row: 1, Seat: 1}})
	require.NoError(t, err)
	theirs, err := svc.Create(ctx, other, []TicketRequest{{PerformanceID: f.perf, Row: 1, Seat: 2}})
	require.NoError(t, err)

	page, err := svc.List(ctx, f.user, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	_, err = svc.Get(ctx, f.user, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizePage(t *testing.T) {
	p, s := NormalizePage(-1, 500)
	assert.Equal(t, 1, p)
	assert.Equal(t, MaxPageSize, s)
	p, s = NormalizePage(3, 25)
	assert.Equal(t, 3, p)
	assert.Equal(t, 25, s)
}

func TestCreateReservationFullHouseReportsTakenSeat(t *testing.T) {
	f := newBookingFixture(t, 1, 1)
	svc := NewReservationService(f.db)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.user, []TicketRequest{{PerformanceID: f.perf, Row: 1, Seat: 1}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, f.user, []TicketRequest{{PerformanceID: f.perf, Row: 1, Seat: 1}})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.False(t, errors.Is(err, ErrSoldOut))
	assert.Equal(t, 1, testutil.Count(t, f.db, "reservations"))
}
