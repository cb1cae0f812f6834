package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yy77hello/FocusPlaces/pkg/places"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlace() places.Place {
	return places.Place{
		PlaceID:          "p1",
		Name:             "Corner Cafe",
		Address:          "1 Main St",
		Rating:           4.5,
		UserRatingsTotal: 120,
		Location:         places.LatLng{Lat: 40.0, Lng: -105.0},
		Reviews: []places.Review{
			{Author: "a", Rating: 5, Text: "quiet with wifi", Time: 1700000000},
			{Author: "b", Rating: 2, Text: "noisy and crowded", Time: 1700000100},
		},
	}
}

func TestUpsertAndGetPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlace(ctx, testPlace(), "coffee shop"))

	row, err := s.GetPlace(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", row.Name)
	assert.Equal(t, "coffee shop", row.Query)
	assert.Equal(t, 4.5, row.Rating)
	assert.False(t, row.Alerted)

	reviews, err := s.ListReviews(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	// Newest first.
	assert.Equal(t, "b", reviews[0].Author)
}

func TestUpsertPlaceIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPlace()
	require.NoError(t, s.UpsertPlace(ctx, p, "coffee shop"))
	p.Name = "Corner Cafe (renamed)"
	require.NoError(t, s.UpsertPlace(ctx, p, "coffee shop"))

	row, err := s.GetPlace(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe (renamed)", row.Name)

	reviews, err := s.ListReviews(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2, "re-upserting must not duplicate reviews")
}

func TestUpsertPreservesAlertedFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlace(ctx, testPlace(), "coffee shop"))
	require.NoError(t, s.MarkAlerted(ctx, "p1"))

	require.NoError(t, s.UpsertPlace(ctx, testPlace(), "coffee shop"))

	row, err := s.GetPlace(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, row.Alerted)
}

func TestListPlacesFilterByQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1 := testPlace()
	p2 := testPlace()
	p2.PlaceID = "p2"
	p2.Name = "City Library"
	require.NoError(t, s.UpsertPlace(ctx, p1, "coffee shop"))
	require.NoError(t, s.UpsertPlace(ctx, p2, "library"))

	all, err := s.ListPlaces(ctx, ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	libs, err := s.ListPlaces(ctx, ListOpts{Query: "library"})
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, "p2", libs[0].PlaceID)
}

func TestCountPlacesByQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1 := testPlace()
	p2 := testPlace()
	p2.PlaceID = "p2"
	require.NoError(t, s.UpsertPlaces(ctx, []places.Place{p1, p2}, "coffee shop"))

	counts, err := s.CountPlacesByQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"coffee shop": 2}, counts)
}

func TestGetPlaceMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPlace(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestFocusPlace(t *testing.T) {
	row := PlaceRow{PlaceID: "p1", Name: "Corner Cafe"}
	reviews := []ReviewRow{
		{Text: "quiet with wifi", Time: 1700000000},
		{Text: "noisy", Time: 1700000100},
	}

	fp := FocusPlace(row, reviews)
	assert.Equal(t, "p1", fp.ID)
	assert.Equal(t, "Corner Cafe", fp.Name)
	require.Len(t, fp.Reviews, 2)
	assert.Equal(t, "quiet with wifi", fp.Reviews[0].Text)
	assert.Equal(t, int64(1700000000), fp.Reviews[0].Time)
}
