// Package store caches fetched venues and their raw reviews in SQLite
// so places can be rescored without refetching. Derived scores are
// never persisted; they are recomputed from cached reviews on demand.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/yy77hello/FocusPlaces/pkg/focus"
	"github.com/yy77hello/FocusPlaces/pkg/places"
)

// PlaceRow is a cached venue.
type PlaceRow struct {
	PlaceID          string    `db:"place_id"`
	Name             string    `db:"name"`
	Address          string    `db:"address"`
	Rating           float64   `db:"rating"`
	UserRatingsTotal int       `db:"user_ratings_total"`
	Lat              float64   `db:"lat"`
	Lng              float64   `db:"lng"`
	Query            string    `db:"query"`
	CollectedAt      time.Time `db:"collected_at"`
	Alerted          bool      `db:"alerted"`
}

// ReviewRow is a cached review.
type ReviewRow struct {
	ID          int64     `db:"id"`
	PlaceID     string    `db:"place_id"`
	Author      string    `db:"author"`
	Rating      int       `db:"rating"`
	Text        string    `db:"text"`
	Time        int64     `db:"time"`
	CollectedAt time.Time `db:"collected_at"`
}

// ListOpts controls place listing.
type ListOpts struct {
	Query string
	Limit int
}

// Store is the persistence interface.
type Store interface {
	UpsertPlace(ctx context.Context, p places.Place, query string) error
	UpsertPlaces(ctx context.Context, ps []places.Place, query string) error
	GetPlace(ctx context.Context, placeID string) (*PlaceRow, error)
	ListPlaces(ctx context.Context, opts ListOpts) ([]PlaceRow, error)
	ListReviews(ctx context.Context, placeID string) ([]ReviewRow, error)
	CountPlacesByQuery(ctx context.Context) (map[string]int, error)
	MarkAlerted(ctx context.Context, placeID string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertPlace writes a place and its reviews. The alerted flag is
// preserved on update so a venue is not re-alerted on every refresh.
func (s *SQLiteStore) UpsertPlace(ctx context.Context, p places.Place, query string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO places (place_id, name, address, rating, user_ratings_total, lat, lng, query, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			rating = excluded.rating,
			user_ratings_total = excluded.user_ratings_total,
			lat = excluded.lat,
			lng = excluded.lng,
			query = excluded.query,
			collected_at = excluded.collected_at
	`, p.PlaceID, p.Name, p.Address, p.Rating, p.UserRatingsTotal,
		p.Location.Lat, p.Location.Lng, query, now)
	if err != nil {
		return fmt.Errorf("upsert place %s: %w", p.PlaceID, err)
	}

	for _, r := range p.Reviews {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO reviews (place_id, author, rating, text, time, collected_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(place_id, author, time) DO UPDATE SET
				rating = excluded.rating,
				text = excluded.text,
				collected_at = excluded.collected_at
		`, p.PlaceID, r.Author, r.Rating, r.Text, r.Time, now)
		if err != nil {
			return fmt.Errorf("upsert review for %s: %w", p.PlaceID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertPlaces(ctx context.Context, ps []places.Place, query string) error {
	for i := range ps {
		if err := s.UpsertPlace(ctx, ps[i], query); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetPlace(ctx context.Context, placeID string) (*PlaceRow, error) {
	var row PlaceRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM places WHERE place_id = ?", placeID)
	if err != nil {
		return nil, fmt.Errorf("get place %s: %w", placeID, err)
	}
	return &row, nil
}

func (s *SQLiteStore) ListPlaces(ctx context.Context, opts ListOpts) ([]PlaceRow, error) {
	query := "SELECT * FROM places WHERE 1=1"
	var args []any

	if opts.Query != "" {
		query += " AND query = ?"
		args = append(args, opts.Query)
	}

	query += " ORDER BY collected_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []PlaceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) ListReviews(ctx context.Context, placeID string) ([]ReviewRow, error) {
	var rows []ReviewRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM reviews WHERE place_id = ? ORDER BY time DESC, id", placeID)
	if err != nil {
		return nil, fmt.Errorf("list reviews %s: %w", placeID, err)
	}
	return rows, nil
}

func (s *SQLiteStore) CountPlacesByQuery(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT query, COUNT(*) as cnt FROM places GROUP BY query")
	if err != nil {
		return nil, fmt.Errorf("count places by query: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var q string
		var cnt int
		if err := rows.Scan(&q, &cnt); err != nil {
			return nil, err
		}
		counts[q] = cnt
	}
	return counts, nil
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, placeID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE places SET alerted = 1 WHERE place_id = ?", placeID)
	if err != nil {
		return fmt.Errorf("mark alerted %s: %w", placeID, err)
	}
	return nil
}

// FocusPlace assembles the scoring engine's input from cached rows.
func FocusPlace(p PlaceRow, reviews []ReviewRow) focus.Place {
	fp := focus.Place{ID: p.PlaceID, Name: p.Name}
	for _, r := range reviews {
		fp.Reviews = append(fp.Reviews, focus.Review{Text: r.Text, Time: r.Time})
	}
	return fp
}
