package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
	"github.com/iliyamo/theatre-reservation/internal/testutil"
)

func TestCatalogValidation(t *testing.T) {
	svc := NewCatalogService(testutil.NewDB(t))
	ctx := context.Background()
	var ve *ValidationError

	require.ErrorAs(t, svc.SaveGenre(ctx, &model.Genre{Name: "  "}), &ve)
	assert.Equal(t, "name", ve.Field)
	require.ErrorAs(t, svc.SaveActor(ctx, &model.Actor{FirstName: "A"}), &ve)
	assert.Equal(t, "last_name", ve.Field)
	require.ErrorAs(t, svc.SaveHall(ctx, &model.TheatreHall{Name: "H", Rows: 0, SeatsInRow: 3}), &ve)
	assert.Equal(t, "rows", ve.Field)
	require.ErrorAs(t, svc.SaveHall(ctx, &model.TheatreHall{Name: "H", Rows: 3, SeatsInRow: -1}), &ve)
	assert.Equal(t, "seats_in_row", ve.Field)

	_, err := svc.SavePlay(ctx, 0, PlayInput{Title: "X", GenreIDs: []uint64{42}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "genres", ve.Field)

	assert.ErrorIs(t, svc.SaveGenre(ctx, &model.Genre{ID: 77, Name: "Ghost"}), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteHall(ctx, 77), ErrNotFound)
	_, err = svc.GetActor(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogPlayLifecycle(t *testing.T) {
	svc := NewCatalogService(testutil.NewDB(t))
	ctx := context.Background()

	g := &model.Genre{Name: "Tragedy"}
	require.NoError(t, svc.SaveGenre(ctx, g))
	a := &model.Actor{FirstName: "Judi", LastName: "Dench"}
	require.NoError(t, svc.SaveActor(ctx, a))

	p, err := svc.SavePlay(ctx, 0, PlayInput{Title: " Macbeth ", GenreIDs: []uint64{g.ID, g.ID}, ActorIDs: []uint64{a.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Macbeth", p.Title)
	assert.Len(t, p.Genres, 1)

	list, err := svc.ListPlays(ctx, repository.PlayFilter{ActorIDs: []uint64{a.ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Judi Dench", list[0].Actors[0].FullName())

	_, err = svc.SavePlay(ctx, p.ID, PlayInput{Title: "Macbeth (revival)"})
	require.NoError(t, err)
	got, err := svc.GetPlay(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Genres)
	assert.Empty(t, got.Actors)

	require.NoError(t, svc.DeletePlay(ctx, p.ID))
	_, err = svc.GetPlay(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
