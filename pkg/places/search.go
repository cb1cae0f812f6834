package places

import (
	"context"
	"errors"
	"fmt"
)

// SearchOpts controls a multi-query venue search.
type SearchOpts struct {
	Queries            []string
	Location           *LatLng
	RadiusMeters       int
	MaxCandidates      int
	MaxReviewsPerPlace int
}

// SearchPlaces runs every query, deduplicates candidates across
// queries by place id, and fetches details (with reviews) for each. A
// failing query or detail fetch does not abort the whole search;
// errors are joined and returned alongside whatever was fetched, and
// only reported as fatal when nothing at all succeeded.
func (c *Client) SearchPlaces(ctx context.Context, opts SearchOpts) ([]Place, error) {
	queries := opts.Queries
	if len(queries) == 0 {
		queries = []string{"coffee shop", "library", "co-working space"}
	}

	seen := make(map[string]bool)
	var out []Place
	var errs []error

	for _, query := range queries {
		candidates, err := c.TextSearch(ctx, query, opts.Location, opts.RadiusMeters, opts.MaxCandidates)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("query %q: %w", query, err))
			continue
		}

		for _, cand := range candidates {
			if cand.PlaceID == "" || seen[cand.PlaceID] {
				continue
			}
			seen[cand.PlaceID] = true

			place, err := c.Details(ctx, cand.PlaceID, opts.MaxReviewsPerPlace)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				errs = append(errs, err)
				continue
			}
			out = append(out, *place)
		}
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
