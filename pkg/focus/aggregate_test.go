package focus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yy77hello/FocusPlaces/pkg/focus"
)

func newEngine(t *testing.T, opts focus.Options) *focus.Engine {
	t.Helper()
	return focus.NewEngine(newScorer(t), opts)
}

func daysAgo(n int) int64 {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour).Unix()
}

func TestProcessPlaceTwoReviewExample(t *testing.T) {
	e := newEngine(t, focus.Options{})

	res := e.ProcessPlace(focus.Place{
		ID:   "p1",
		Name: "Corner Cafe",
		Reviews: []focus.Review{
			{Text: "Quiet cafe with strong wifi and plenty of outlets.", Time: daysAgo(10)},
			{Text: "Too noisy and crowded, no outlets anywhere.", Time: daysAgo(20)},
		},
	})

	// One strongly positive and one strongly negative review land near
	// the midpoint.
	assert.Less(t, res.FocusScore, 60)
	assert.Greater(t, res.FocusScore, 40)

	assert.Equal(t, 2, res.ReviewCount)
	assert.Equal(t, 2, res.RecentReviewCount)
	require.Len(t, res.PerReview, 2)
	assert.Greater(t, res.PerReview[0].Score, 85.0)
	assert.Less(t, res.PerReview[1].Score, 15.0)

	// "outlets" in the good review and "no outlets" in the bad one both
	// bucket under outlet.
	assert.Equal(t, 2, res.KeywordCounts["outlet"])
	assert.Equal(t, 1, res.KeywordCounts["quiet"])
	assert.Equal(t, 1, res.KeywordCounts["wifi"])

	negatives := make(map[string]focus.Factor)
	for _, f := range res.NegativeFactors {
		negatives[f.Keyword] = f
	}
	assert.Contains(t, negatives, "noise")
	assert.Contains(t, negatives, "crowded")
	// The negated phrase outweighs the positive mention, so outlet nets
	// out negative for this place.
	assert.Contains(t, negatives, "outlet")

	positives := make(map[string]focus.Factor)
	for _, f := range res.PositiveFactors {
		positives[f.Keyword] = f
	}
	assert.Contains(t, positives, "quiet")
	assert.Contains(t, positives, "wifi")

	// Two reviews is below the default minimum of three.
	assert.True(t, res.LowSample)
	assert.NotEmpty(t, res.LowSampleReason)
}

func TestProcessPlaceRecencyWindow(t *testing.T) {
	e := newEngine(t, focus.Options{WindowDays: 30, MinRecentReviews: 1})

	res := e.ProcessPlace(focus.Place{
		ID:   "p1",
		Name: "Stale Reviews",
		Reviews: []focus.Review{
			{Text: "quiet and peaceful", Time: daysAgo(5)},
			{Text: "noisy loud crowded packed", Time: daysAgo(90)},
		},
	})

	// The old negative review is reported but does not feed the score.
	assert.Equal(t, 2, res.ReviewCount)
	assert.Equal(t, 1, res.RecentReviewCount)
	require.Len(t, res.PerReview, 2)
	assert.True(t, res.PerReview[0].IsRecent)
	assert.False(t, res.PerReview[1].IsRecent)

	assert.Greater(t, res.FocusScore, 50)
	assert.Zero(t, res.KeywordCounts["noise"])
	assert.Empty(t, res.NegativeFactors)
	assert.False(t, res.LowSample)
}

func TestProcessPlaceUnknownTimestampCountsAsRecent(t *testing.T) {
	e := newEngine(t, focus.Options{WindowDays: 30, MinRecentReviews: 1})

	res := e.ProcessPlace(focus.Place{
		ID:      "p1",
		Reviews: []focus.Review{{Text: "quiet", Time: 0}},
	})

	assert.Equal(t, 1, res.RecentReviewCount)
	assert.True(t, res.PerReview[0].IsRecent)
}

func TestProcessPlaceNoReviews(t *testing.T) {
	e := newEngine(t, focus.Options{})

	res := e.ProcessPlace(focus.Place{ID: "p1", Name: "Empty"})

	assert.Equal(t, 0, res.ReviewCount)
	assert.Equal(t, 0, res.FocusScore)
	assert.True(t, res.LowSample)
}

func TestProcessPlaceLowSampleThreshold(t *testing.T) {
	e := newEngine(t, focus.Options{MinRecentReviews: 3})

	reviews := []focus.Review{
		{Text: "quiet", Time: daysAgo(1)},
		{Text: "quiet", Time: daysAgo(2)},
	}
	res := e.ProcessPlace(focus.Place{ID: "p1", Reviews: reviews})
	assert.True(t, res.LowSample)

	reviews = append(reviews, focus.Review{Text: "quiet", Time: daysAgo(3)})
	res = e.ProcessPlace(focus.Place{ID: "p1", Reviews: reviews})
	assert.False(t, res.LowSample)
	assert.Empty(t, res.LowSampleReason)
}

func TestProcessPlacesSortsByScoreDescending(t *testing.T) {
	e := newEngine(t, focus.Options{MinRecentReviews: 1})

	results := e.ProcessPlaces([]focus.Place{
		{ID: "bad", Reviews: []focus.Review{{Text: "noisy and crowded"}}},
		{ID: "good", Reviews: []focus.Review{{Text: "quiet with wifi"}}},
		{ID: "plain", Reviews: []focus.Review{{Text: "it exists"}}},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "good", results[0].PlaceID)
	assert.Equal(t, "plain", results[1].PlaceID)
	assert.Equal(t, "bad", results[2].PlaceID)
}

func TestProcessPlacesStableOnTies(t *testing.T) {
	e := newEngine(t, focus.Options{MinRecentReviews: 1})

	same := []focus.Review{{Text: "quiet with wifi"}}
	results := e.ProcessPlaces([]focus.Place{
		{ID: "first", Reviews: same},
		{ID: "second", Reviews: same},
		{ID: "third", Reviews: same},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].PlaceID)
	assert.Equal(t, "second", results[1].PlaceID)
	assert.Equal(t, "third", results[2].PlaceID)
}
