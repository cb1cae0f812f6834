package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Endpoint bases and delays are vars so tests can substitute an
// httptest server and skip the real sleeps.
var (
	placesBaseURL  = "https://maps.googleapis.com/maps/api/place"
	geocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	// pageTokenDelay is how long a next_page_token needs before the
	// API accepts it.
	pageTokenDelay = 2 * time.Second
	// rateLimitDelay is the base backoff after OVER_QUERY_LIMIT; it
	// doubles per attempt.
	rateLimitDelay = 2 * time.Second
)

const maxRateLimitRetries = 3

// Client talks to the Places and Geocoding APIs.
type Client struct {
	client *http.Client
	apiKey string
}

// NewClient creates a places client.
func NewClient(apiKey string) *Client {
	return &Client{
		client: &http.Client{Timeout: 30 * time.Second},
		apiKey: apiKey,
	}
}

type searchResult struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	Geometry         struct {
		Location LatLng `json:"location"`
	} `json:"geometry"`
}

type textSearchResponse struct {
	Results       []searchResult `json:"results"`
	Status        string         `json:"status"`
	NextPageToken string         `json:"next_page_token"`
	ErrorMessage  string         `json:"error_message"`
}

// TextSearch finds candidate venues for a free-text query, optionally
// biased around a location. It follows next_page_token pagination
// (each token needs a settle delay before it becomes valid) until
// maxResults candidates are collected or pages run out.
func (c *Client) TextSearch(ctx context.Context, query string, loc *LatLng, radiusMeters, maxResults int) ([]Candidate, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if loc != nil {
		params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
		if radiusMeters > 0 {
			params.Set("radius", strconv.Itoa(radiusMeters))
		}
	}

	var candidates []Candidate
	for {
		var page textSearchResponse
		if err := c.getJSON(ctx, placesBaseURL+"/textsearch/json?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("text search %q: %w", query, err)
		}

		switch page.Status {
		case "OK":
		case "ZERO_RESULTS":
			return candidates, nil
		default:
			return nil, fmt.Errorf("text search %q: status %s %s", query, page.Status, page.ErrorMessage)
		}

		for _, r := range page.Results {
			candidates = append(candidates, Candidate{
				PlaceID:  r.PlaceID,
				Name:     r.Name,
				Address:  r.FormattedAddress,
				Rating:   r.Rating,
				Location: r.Geometry.Location,
			})
			if len(candidates) >= maxResults {
				return candidates, nil
			}
		}

		if page.NextPageToken == "" {
			return candidates, nil
		}

		// The token is not valid immediately after it is issued.
		select {
		case <-ctx.Done():
			return candidates, ctx.Err()
		case <-time.After(pageTokenDelay):
		}

		params = url.Values{}
		params.Set("pagetoken", page.NextPageToken)
		params.Set("key", c.apiKey)
	}
}

type detailsResponse struct {
	Result struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		Geometry         struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
		Reviews []Review `json:"reviews"`
	} `json:"result"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Details fetches a venue's details including up to maxReviews of its
// most relevant reviews.
func (c *Client) Details(ctx context.Context, placeID string, maxReviews int) (*Place, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,rating,user_ratings_total,geometry/location,reviews")
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.getJSON(ctx, placesBaseURL+"/details/json?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("place details %s: status %s %s", placeID, resp.Status, resp.ErrorMessage)
	}

	r := resp.Result
	reviews := r.Reviews
	if maxReviews > 0 && len(reviews) > maxReviews {
		reviews = reviews[:maxReviews]
	}
	return &Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Address:          r.FormattedAddress,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		Location:         r.Geometry.Location,
		Reviews:          reviews,
	}, nil
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a street address to coordinates. A nil result with
// nil error means the address produced no matches.
func (c *Client) Geocode(ctx context.Context, address string) (*LatLng, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.getJSON(ctx, geocodeBaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocode %q: status %s %s", address, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	loc := resp.Results[0].Geometry.Location
	return &loc, nil
}

// getJSON fetches a URL and decodes the response, retrying with
// exponential backoff when the API reports OVER_QUERY_LIMIT.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}

		var probe struct {
			Status string `json:"status"`
		}
		raw := json.NewDecoder(resp.Body)
		var payload json.RawMessage
		if err := raw.Decode(&payload); err != nil {
			resp.Body.Close()
			return fmt.Errorf("decode response: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}

		if probe.Status == "OVER_QUERY_LIMIT" && attempt < maxRateLimitRetries {
			backoff := rateLimitDelay << attempt
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		return json.Unmarshal(payload, out)
	}
}
