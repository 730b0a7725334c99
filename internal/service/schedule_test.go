package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/testutil"
)

func TestValidateShowTime(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	err := ValidateShowTime(now.Add(-time.Second), now)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "show_time", ve.Field)

	assert.NoError(t, ValidateShowTime(now, now))
	assert.NoError(t, ValidateShowTime(now.Add(time.Hour), now))
}

func TestPerformanceServiceCreateAndDetail(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewPerformanceService(db, func() time.Time { return now })
	hall := testutil.SeedHall(t, db, "Main", 3, 4)
	play := testutil.SeedPlay(t, db, "Hamlet")
	user := testutil.SeedUser(t, db, "u@example.com", model.RoleCustomer)

	_, err := svc.Create(ctx, PerformanceInput{PlayID: play, TheatreHallID: hall.ID, ShowTime: now.Add(-time.Minute)})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "show_time", ve.Field)

	_, err = svc.Create(ctx, PerformanceInput{PlayID: play + 10, TheatreHallID: hall.ID, ShowTime: now})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "play", ve.Field)

	_, err = svc.Create(ctx, PerformanceInput{PlayID: play, TheatreHallID: hall.ID + 10, ShowTime: now})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "theatre_hall", ve.Field)

	p, err := svc.Create(ctx, PerformanceInput{PlayID: play, TheatreHallID: hall.ID, ShowTime: now})
	require.NoError(t, err)
	testutil.SeedTickets(t, db, user, p.ID, model.SeatPosition{Row: 2, Seat: 3}, model.SeatPosition{Row: 1, Seat: 4})

	d, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hamlet", d.Play.Title)
	assert.Equal(t, hall, d.Hall)
	assert.Equal(t, 10, d.Available)
	assert.Equal(t, []model.SeatPosition{{Row: 1, Seat: 4}, {Row: 2, Seat: 3}}, d.TakenSeats)

	list, err := svc.List(ctx, nil, "ham")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].Available)

	neg := -1
	_, err = svc.List(ctx, &neg, "")
	require.ErrorAs(t, err, &ve)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, 0, testutil.Count(t, db, "tickets"))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
}

func TestPerformanceServiceUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewPerformanceService(db, func() time.Time { return now })
	hall := testutil.SeedHall(t, db, "Main", 3, 4)
	play := testutil.SeedPlay(t, db, "Hamlet")
	id := testutil.SeedPerformance(t, db, play, hall.ID, now.Add(time.Hour))

	_, err := svc.Update(ctx, id, PerformanceInput{PlayID: play, TheatreHallID: hall.ID, ShowTime: now.Add(-time.Hour)})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	later := now.Add(48 * time.Hour)
	_, err = svc.Update(ctx, id, PerformanceInput{PlayID: play, TheatreHallID: hall.ID, ShowTime: later})
	require.NoError(t, err)
	d, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, later.Equal(d.Performance.ShowTime))

	_, err = svc.Update(ctx, id+99, PerformanceInput{PlayID: play, TheatreHallID: hall.ID, ShowTime: later})
	assert.ErrorIs(t, err, ErrNotFound)
}
