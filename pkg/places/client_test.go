package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestServer points the package at an httptest server and disables
// the real-world delays for the duration of a test.
func withTestServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	origPlaces, origGeocode := placesBaseURL, geocodeBaseURL
	origPage, origRate := pageTokenDelay, rateLimitDelay
	placesBaseURL = srv.URL
	geocodeBaseURL = srv.URL + "/geocode/json"
	pageTokenDelay = 0
	rateLimitDelay = time.Millisecond
	t.Cleanup(func() {
		placesBaseURL, geocodeBaseURL = origPlaces, origGeocode
		pageTokenDelay, rateLimitDelay = origPage, origRate
	})

	return NewClient("test-key")
}

func TestTextSearchPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pagetoken") == "tok-2" {
			fmt.Fprint(w, `{"status":"OK","results":[
				{"place_id":"p3","name":"Third","formatted_address":"3 St","rating":4.0,
				 "geometry":{"location":{"lat":3,"lng":3}}}
			]}`)
			return
		}
		require.Equal(t, "coffee shop", r.URL.Query().Get("query"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"status":"OK","next_page_token":"tok-2","results":[
			{"place_id":"p1","name":"First","formatted_address":"1 St","rating":4.5,
			 "geometry":{"location":{"lat":1,"lng":1}}},
			{"place_id":"p2","name":"Second","formatted_address":"2 St","rating":4.2,
			 "geometry":{"location":{"lat":2,"lng":2}}}
		]}`)
	})

	c := withTestServer(t, mux)
	candidates, err := c.TextSearch(context.Background(), "coffee shop", nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "p1", candidates[0].PlaceID)
	assert.Equal(t, "Third", candidates[2].Name)
	assert.Equal(t, 3.0, candidates[2].Location.Lat)
}

func TestTextSearchStopsAtMaxResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","next_page_token":"never-used","results":[
			{"place_id":"p1","name":"First"},
			{"place_id":"p2","name":"Second"}
		]}`)
	})

	c := withTestServer(t, mux)
	candidates, err := c.TextSearch(context.Background(), "library", nil, 0, 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestTextSearchZeroResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})

	c := withTestServer(t, mux)
	candidates, err := c.TextSearch(context.Background(), "nothing here", nil, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestTextSearchErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"bad key"}`)
	})

	c := withTestServer(t, mux)
	_, err := c.TextSearch(context.Background(), "coffee shop", nil, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "bad key")
}

func TestTextSearchSendsLocationBias(t *testing.T) {
	var gotLocation, gotRadius string
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		gotLocation = r.URL.Query().Get("location")
		gotRadius = r.URL.Query().Get("radius")
		fmt.Fprint(w, `{"status":"ZERO_RESULTS"}`)
	})

	c := withTestServer(t, mux)
	_, err := c.TextSearch(context.Background(), "cafe", &LatLng{Lat: 40.0, Lng: -105.0}, 5000, 10)
	require.NoError(t, err)
	assert.Contains(t, gotLocation, "40.0")
	assert.Equal(t, "5000", gotRadius)
}

func TestDetailsTruncatesReviews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "p1", r.URL.Query().Get("place_id"))
		fmt.Fprint(w, `{"status":"OK","result":{
			"place_id":"p1","name":"Corner Cafe","formatted_address":"1 St",
			"rating":4.5,"user_ratings_total":120,
			"geometry":{"location":{"lat":1,"lng":2}},
			"reviews":[
				{"author_name":"a","rating":5,"text":"quiet","time":1700000000},
				{"author_name":"b","rating":4,"text":"wifi","time":1700000001},
				{"author_name":"c","rating":3,"text":"ok","time":1700000002}
			]}}`)
	})

	c := withTestServer(t, mux)
	place, err := c.Details(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", place.Name)
	assert.Equal(t, 120, place.UserRatingsTotal)
	require.Len(t, place.Reviews, 2)
	assert.Equal(t, "quiet", place.Reviews[0].Text)
	assert.Equal(t, int64(1700000000), place.Reviews[0].Time)
}

func TestDetailsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"NOT_FOUND"}`)
	})

	c := withTestServer(t, mux)
	_, err := c.Details(context.Background(), "gone", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestGeocode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Boulder, CO", r.URL.Query().Get("address"))
		fmt.Fprint(w, `{"status":"OK","results":[
			{"geometry":{"location":{"lat":40.015,"lng":-105.2705}}}
		]}`)
	})

	c := withTestServer(t, mux)
	loc, err := c.Geocode(context.Background(), "Boulder, CO")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 40.015, loc.Lat)
}

func TestGeocodeZeroResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS"}`)
	})

	c := withTestServer(t, mux)
	loc, err := c.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"status":"OVER_QUERY_LIMIT"}`)
			return
		}
		fmt.Fprint(w, `{"status":"OK","results":[{"place_id":"p1","name":"First"}]}`)
	})

	c := withTestServer(t, mux)
	candidates, err := c.TextSearch(context.Background(), "cafe", nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchPlacesDedupsAcrossQueries(t *testing.T) {
	var detailCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		// Both queries surface the same venue.
		fmt.Fprint(w, `{"status":"OK","results":[{"place_id":"shared","name":"Same Place"}]}`)
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		detailCalls.Add(1)
		fmt.Fprint(w, `{"status":"OK","result":{"place_id":"shared","name":"Same Place"}}`)
	})

	c := withTestServer(t, mux)
	out, err := c.SearchPlaces(context.Background(), SearchOpts{
		Queries: []string{"coffee shop", "library"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(1), detailCalls.Load())
}

func TestSearchPlacesPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "broken" {
			fmt.Fprint(w, `{"status":"INVALID_REQUEST"}`)
			return
		}
		fmt.Fprint(w, `{"status":"OK","results":[{"place_id":"p1","name":"First"}]}`)
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","result":{"place_id":"p1","name":"First"}}`)
	})

	c := withTestServer(t, mux)
	out, err := c.SearchPlaces(context.Background(), SearchOpts{
		Queries: []string{"broken", "coffee shop"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSearchPlacesAllFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"bad key"}`)
	})

	c := withTestServer(t, mux)
	_, err := c.SearchPlaces(context.Background(), SearchOpts{Queries: []string{"a", "b"}})
	require.Error(t, err)
}
