package focus

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Review is one raw customer review. Time is Unix epoch seconds; zero
// means the timestamp is unknown, which conservatively counts as
// recent.
type Review struct {
	Text string `json:"text"`
	Time int64  `json:"time,omitempty"`
}

// Place is the minimal input record the engine consumes.
type Place struct {
	ID      string   `json:"place_id"`
	Name    string   `json:"name"`
	Reviews []Review `json:"reviews"`
}

// Factor is one canonical keyword's aggregate contribution to a
// place's score, with the occurrence count behind it.
type Factor struct {
	Keyword      string  `json:"keyword"`
	Count        int     `json:"count"`
	Contribution float64 `json:"contribution"`
}

// ReviewDetail is a scored review annotated with its position and
// recency inside a place.
type ReviewDetail struct {
	Index int `json:"index"`
	ReviewScore
	RawText  string `json:"raw_text"`
	Time     int64  `json:"time,omitempty"`
	IsRecent bool   `json:"is_recent"`
}

// PlaceResult is a place's aggregate study-suitability result.
type PlaceResult struct {
	PlaceID           string         `json:"place_id"`
	Name              string         `json:"name"`
	FocusRawScore     float64        `json:"focus_raw_score"`
	FocusAverage      float64        `json:"focus_average"`
	FocusScore        int            `json:"focus_score_0_100"`
	KeywordCounts     map[string]int `json:"keyword_counts"`
	PositiveFactors   []Factor       `json:"positive_factors"`
	NegativeFactors   []Factor       `json:"negative_factors"`
	PerReview         []ReviewDetail `json:"per_review"`
	ReviewCount       int            `json:"review_count"`
	RecentReviewCount int            `json:"recent_review_count"`
	LowSample         bool           `json:"recent_reviews_warning"`
	LowSampleReason   string         `json:"recent_reviews_warning_text,omitempty"`
}

// Options configures place aggregation.
type Options struct {
	// WindowDays is the recency window; reviews older than this many
	// days do not feed the place score. Default 365.
	WindowDays int
	// MinRecentReviews is the threshold below which a place is
	// flagged as unreliable. Default 3.
	MinRecentReviews int
}

// Engine aggregates per-review scores into place-level results. It is
// pure and stateless per call; independent places may be processed
// concurrently.
type Engine struct {
	scorer     *Scorer
	windowDays int
	minRecent  int
}

// NewEngine creates an aggregation engine.
func NewEngine(scorer *Scorer, opts Options) *Engine {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 365
	}
	if opts.MinRecentReviews <= 0 {
		opts.MinRecentReviews = 3
	}
	return &Engine{
		scorer:     scorer,
		windowDays: opts.WindowDays,
		minRecent:  opts.MinRecentReviews,
	}
}

// Scorer returns the engine's review scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// ProcessPlace scores every review of a place and aggregates the
// recent ones into a single result. Every review appears in PerReview
// regardless of recency; only recent reviews feed the totals, counts
// and factors.
func (e *Engine) ProcessPlace(p Place) PlaceResult {
	cutoff := time.Now().Add(-time.Duration(e.windowDays) * 24 * time.Hour).Unix()

	res := PlaceResult{
		PlaceID:       p.ID,
		Name:          p.Name,
		KeywordCounts: map[string]int{},
		ReviewCount:   len(p.Reviews),
	}

	contributions := map[string]float64{}
	total := 0.0
	recent := 0

	for i, rev := range p.Reviews {
		rs := e.scorer.ScoreReview(rev.Text)
		isRecent := rev.Time == 0 || rev.Time >= cutoff
		res.PerReview = append(res.PerReview, ReviewDetail{
			Index:       i,
			ReviewScore: rs,
			RawText:     rev.Text,
			Time:        rev.Time,
			IsRecent:    isRecent,
		})
		if !isRecent {
			continue
		}
		recent++
		total += rs.Score
		for k, c := range rs.Counts {
			res.KeywordCounts[k] += c
		}
		for _, ex := range rs.Explanations {
			contributions[ex.Keyword] += ex.Weight
		}
	}

	res.RecentReviewCount = recent
	res.FocusRawScore = total
	divisor := recent
	if divisor < 1 {
		divisor = 1
	}
	res.FocusAverage = total / float64(divisor)
	res.FocusScore = int(math.Round(clamp(res.FocusAverage, 0, 100)))
	res.PositiveFactors, res.NegativeFactors = rankFactors(contributions, res.KeywordCounts)

	if recent < e.minRecent {
		res.LowSample = true
		res.LowSampleReason = fmt.Sprintf(
			"only %d of %d reviews fall within the last %d days (minimum %d); the focus score may be unreliable",
			recent, len(p.Reviews), e.windowDays, e.minRecent)
	}
	return res
}

// ProcessPlaces scores each place independently and returns results
// sorted by focus score descending. The sort is stable: ties keep
// input order.
func (e *Engine) ProcessPlaces(places []Place) []PlaceResult {
	results := make([]PlaceResult, 0, len(places))
	for _, p := range places {
		results = append(results, e.ProcessPlace(p))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FocusScore > results[j].FocusScore
	})
	return results
}

// rankFactors partitions keywords by the sign of their aggregate
// contribution: positive factors sorted by descending contribution,
// negative by ascending (most damaging first). Keyword name breaks
// ties so output is deterministic.
func rankFactors(contributions map[string]float64, counts map[string]int) (positive, negative []Factor) {
	for keyword, contribution := range contributions {
		f := Factor{Keyword: keyword, Count: counts[keyword], Contribution: contribution}
		if contribution >= 0 {
			positive = append(positive, f)
		} else {
			negative = append(negative, f)
		}
	}
	sort.Slice(positive, func(i, j int) bool {
		if positive[i].Contribution != positive[j].Contribution {
			return positive[i].Contribution > positive[j].Contribution
		}
		return positive[i].Keyword < positive[j].Keyword
	})
	sort.Slice(negative, func(i, j int) bool {
		if negative[i].Contribution != negative[j].Contribution {
			return negative[i].Contribution < negative[j].Contribution
		}
		return negative[i].Keyword < negative[j].Keyword
	})
	return positive, negative
}
