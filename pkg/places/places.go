// Package places is the data-acquisition layer: a client for the
// Google Places and Geocoding web services. It fetches candidate
// venues and their reviews; scoring happens elsewhere.
package places

import (
	"github.com/yy77hello/FocusPlaces/pkg/focus"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is one customer review as returned by the details endpoint.
// Time is Unix epoch seconds; zero means the API sent no usable
// timestamp.
type Review struct {
	Author string `json:"author_name"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
	Time   int64  `json:"time"`
}

// Candidate is a summary row from text search, enough to decide
// whether to fetch details.
type Candidate struct {
	PlaceID  string
	Name     string
	Address  string
	Rating   float64
	Location LatLng
}

// Place is a venue with its fetched reviews.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Address          string   `json:"formatted_address"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Location         LatLng   `json:"location"`
	Reviews          []Review `json:"reviews"`
}

// FocusPlace converts the fetched record into the scoring engine's
// input shape.
func (p Place) FocusPlace() focus.Place {
	reviews := make([]focus.Review, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, focus.Review{Text: r.Text, Time: r.Time})
	}
	return focus.Place{ID: p.PlaceID, Name: p.Name, Reviews: reviews}
}
