package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yy77hello/FocusPlaces/internal/store"
	"github.com/yy77hello/FocusPlaces/pkg/alert"
	"github.com/yy77hello/FocusPlaces/pkg/focus"
	"github.com/yy77hello/FocusPlaces/pkg/places"
)

// Scheduler periodically refreshes the configured searches, rescores
// the fetched venues and announces high scorers.
type Scheduler struct {
	store      store.Store
	client     *places.Client
	engine     *focus.Engine
	alertMgr   *alert.Manager
	searchOpts places.SearchOpts
	interval   time.Duration
	minScore   int
}

// New creates a new scheduler.
func New(
	s store.Store,
	client *places.Client,
	engine *focus.Engine,
	alertMgr *alert.Manager,
	searchOpts places.SearchOpts,
	interval time.Duration,
	minScore int,
) *Scheduler {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	if minScore == 0 {
		minScore = 75
	}
	return &Scheduler{
		store:      s,
		client:     client,
		engine:     engine,
		alertMgr:   alertMgr,
		searchOpts: searchOpts,
		interval:   interval,
		minScore:   minScore,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial refresh...")
	s.refresh(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (refresh every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(os.Stderr, "scheduler: refreshing...")
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	var fetched []places.Place

	// One query at a time so the cache records which search found
	// each venue.
	for _, query := range s.searchOpts.Queries {
		opts := s.searchOpts
		opts.Queries = []string{query}

		pls, err := s.client.SearchPlaces(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %q error: %v\n", query, err)
			continue
		}

		if err := s.store.UpsertPlaces(ctx, pls, query); err != nil {
			fmt.Fprintf(os.Stderr, "  %q store error: %v\n", query, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "  %q: %d places\n", query, len(pls))
		fetched = append(fetched, pls...)
	}

	s.scoreAndAlert(ctx, fetched)
}

func (s *Scheduler) scoreAndAlert(ctx context.Context, fetched []places.Place) {
	if !s.alertMgr.HasNotifiers() || len(fetched) == 0 {
		return
	}

	byID := make(map[string]places.Place, len(fetched))
	inputs := make([]focus.Place, 0, len(fetched))
	for _, p := range fetched {
		byID[p.PlaceID] = p
		inputs = append(inputs, p.FocusPlace())
	}

	for _, result := range s.engine.ProcessPlaces(inputs) {
		if result.FocusScore < s.minScore || result.LowSample {
			continue
		}

		row, err := s.store.GetPlace(ctx, result.PlaceID)
		if err == nil && row != nil && row.Alerted {
			continue
		}

		var factors []string
		for i, f := range result.PositiveFactors {
			if i == 3 {
				break
			}
			factors = append(factors, f.Keyword)
		}

		notification := &alert.Notification{
			PlaceID:       result.PlaceID,
			Name:          result.Name,
			Address:       byID[result.PlaceID].Address,
			FocusScore:    result.FocusScore,
			RecentReviews: result.RecentReviewCount,
			TopFactors:    factors,
			MapsURL:       alert.MapsURL(result.PlaceID),
		}

		if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for %q: %v\n", result.Name, err)
			continue
		}

		_ = s.store.MarkAlerted(ctx, result.PlaceID)
		fmt.Fprintf(os.Stderr, "  alerted: %s (score: %d)\n", result.Name, result.FocusScore)
	}
}
