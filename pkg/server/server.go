// Package server provides the HTTP API: cached rankings, on-demand
// searches and ad-hoc review scoring.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/yy77hello/FocusPlaces/internal/store"
	"github.com/yy77hello/FocusPlaces/pkg/focus"
	"github.com/yy77hello/FocusPlaces/pkg/places"
)

// Server provides the HTTP API.
type Server struct {
	store      store.Store
	engine     *focus.Engine
	client     *places.Client
	searchOpts places.SearchOpts
	port       int
}

// New creates a new HTTP server.
func New(s store.Store, engine *focus.Engine, client *places.Client, searchOpts places.SearchOpts, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:      s,
		engine:     engine,
		client:     client,
		searchOpts: searchOpts,
		port:       port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/places", s.handlePlaces)
	mux.HandleFunc("/api/v1/queries", s.handleQueries)
	mux.HandleFunc("/api/v1/search", s.handleSearch)
	mux.HandleFunc("/api/v1/score", s.handleScore)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Fprintf(os.Stderr, "focusplaces server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

// placeView is a PlaceResult enriched with the cached venue metadata
// the scoring engine does not carry.
type placeView struct {
	focus.PlaceResult
	Address          string  `json:"address,omitempty"`
	Rating           float64 `json:"rating,omitempty"`
	UserRatingsTotal int     `json:"user_ratings_total,omitempty"`
	Query            string  `json:"query,omitempty"`
	MapsURL          string  `json:"maps_url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePlaces rescores the cached venues and returns them ranked.
// Scores are always recomputed from the cached reviews, never stored.
func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	rows, err := s.store.ListPlaces(ctx, store.ListOpts{
		Query: r.URL.Query().Get("query"),
		Limit: 200,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	meta := make(map[string]store.PlaceRow, len(rows))
	inputs := make([]focus.Place, 0, len(rows))
	for _, row := range rows {
		reviews, err := s.store.ListReviews(ctx, row.PlaceID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		meta[row.PlaceID] = row
		inputs = append(inputs, store.FocusPlace(row, reviews))
	}

	views := make([]placeView, 0, len(inputs))
	for _, result := range s.engine.ProcessPlaces(inputs) {
		row := meta[result.PlaceID]
		views = append(views, placeView{
			PlaceResult:      result,
			Address:          row.Address,
			Rating:           row.Rating,
			UserRatingsTotal: row.UserRatingsTotal,
			Query:            row.Query,
			MapsURL:          mapsURL(result.PlaceID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  views,
		"count": len(views),
	})
}

// handleQueries reports how many cached venues each configured search
// query has produced.
func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.CountPlacesByQuery(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type queryInfo struct {
		Query  string `json:"query"`
		Places int    `json:"places"`
	}

	var infos []queryInfo
	seen := make(map[string]bool)
	for _, q := range s.searchOpts.Queries {
		seen[q] = true
		infos = append(infos, queryInfo{Query: q, Places: counts[q]})
	}
	// Ad-hoc searches cache under queries the config never names.
	for q, n := range counts {
		if !seen[q] {
			infos = append(infos, queryInfo{Query: q, Places: n})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Query < infos[j].Query })

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

type searchRequest struct {
	Queries            []string `json:"queries"`
	Location           string   `json:"location"`
	RadiusMeters       int      `json:"radius_meters"`
	MaxCandidates      int      `json:"max_candidates"`
	MaxReviewsPerPlace int      `json:"max_reviews_per_place"`
}

// handleSearch runs a live search against the Places API, caches the
// fetched venues and returns them ranked by focus score.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ctx := r.Context()
	opts := s.searchOpts
	if len(req.Queries) > 0 {
		opts.Queries = req.Queries
	}
	if req.RadiusMeters > 0 {
		opts.RadiusMeters = req.RadiusMeters
	}
	if req.MaxCandidates > 0 {
		opts.MaxCandidates = req.MaxCandidates
	}
	if req.MaxReviewsPerPlace > 0 {
		opts.MaxReviewsPerPlace = req.MaxReviewsPerPlace
	}
	if req.Location != "" {
		loc, err := s.client.Geocode(ctx, req.Location)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		if loc == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("location %q not found", req.Location)})
			return
		}
		opts.Location = loc
	}

	fetched, err := s.client.SearchPlaces(ctx, opts)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	label := ""
	if len(opts.Queries) > 0 {
		label = opts.Queries[0]
	}
	if err := s.store.UpsertPlaces(ctx, fetched, label); err != nil {
		fmt.Fprintf(os.Stderr, "server: cache write failed: %v\n", err)
	}

	byID := make(map[string]places.Place, len(fetched))
	inputs := make([]focus.Place, 0, len(fetched))
	for _, p := range fetched {
		byID[p.PlaceID] = p
		inputs = append(inputs, p.FocusPlace())
	}

	views := make([]placeView, 0, len(inputs))
	for _, result := range s.engine.ProcessPlaces(inputs) {
		p := byID[result.PlaceID]
		views = append(views, placeView{
			PlaceResult:      result,
			Address:          p.Address,
			Rating:           p.Rating,
			UserRatingsTotal: p.UserRatingsTotal,
			MapsURL:          mapsURL(result.PlaceID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  views,
		"count": len(views),
	})
}

type scoreRequest struct {
	Text string `json:"text"`
}

// handleScore scores a single review text without touching the cache.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, s.engine.Scorer().ScoreReview(req.Text))
}

func mapsURL(placeID string) string {
	return "https://www.google.com/maps/place/?q=place_id:" + placeID
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
