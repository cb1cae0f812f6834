package focus

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// neutralScore is returned for reviews with no detected signal.
	neutralScore = 50.0
	// sigmoidSlope scales the logistic mapping from weighted keyword
	// density to the 0-100 range.
	sigmoidSlope = 0.6
	// excerptRadius is how many bytes of surrounding context an
	// explanation carries on each side of a match.
	excerptRadius = 80
)

// KeywordCount pairs a canonical keyword with its occurrence count.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Explanation is one piece of scoring evidence: which keyword matched,
// with what weight, and where in the review.
type Explanation struct {
	Keyword string  `json:"keyword"`
	Text    string  `json:"matched_text"`
	Weight  float64 `json:"weight"`
	Excerpt string  `json:"excerpt"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
}

// ReviewScore is the result of scoring a single review. Keywords are
// listed in first-occurrence order.
type ReviewScore struct {
	Score        float64        `json:"score"`
	Counts       map[string]int `json:"counts"`
	Keywords     []KeywordCount `json:"keywords,omitempty"`
	Explanations []Explanation  `json:"explanations,omitempty"`
}

// Scorer turns review text into a 0-100 study-suitability score with
// keyword counts and evidence. It is stateless and safe for concurrent
// use.
type Scorer struct {
	lexicon *Lexicon
	matcher *Matcher
}

// NewScorer creates a scorer over the given lexicon and tokenizer.
func NewScorer(lex *Lexicon, tok Tokenizer) *Scorer {
	return &Scorer{lexicon: lex, matcher: NewMatcher(lex, tok)}
}

// Lexicon returns the scorer's lexicon.
func (s *Scorer) Lexicon() *Lexicon {
	return s.lexicon
}

// ScoreReview scores one review. Empty text or a review with no
// lexicon matches returns the neutral midpoint of 50: absence of
// signal is not penalized. The function is total over strings and
// never fails.
func (s *Scorer) ScoreReview(text string) ReviewScore {
	res := ReviewScore{Score: neutralScore, Counts: map[string]int{}}
	if Normalize(text) == "" {
		return res
	}

	matches := s.matcher.Find(text)
	if len(matches) == 0 {
		return res
	}

	raw := 0.0
	var order []string
	for _, m := range matches {
		weight, ok := s.resolveWeight(m)
		if !ok {
			// No weight resolvable for this canonical keyword;
			// skip the match rather than abort the review.
			continue
		}
		if res.Counts[m.Canonical] == 0 {
			order = append(order, m.Canonical)
		}
		res.Counts[m.Canonical]++
		raw += weight
		res.Explanations = append(res.Explanations, Explanation{
			Keyword: m.Canonical,
			Text:    m.Text,
			Weight:  weight,
			Excerpt: excerptAround(text, m.Start, m.End),
			Start:   m.Start,
			End:     m.End,
		})
	}

	words := s.wordCount(text)
	lengthFactor := 1.0
	if words > 0 {
		lengthFactor = math.Log1p(float64(words))
	}
	normalized := raw / lengthFactor

	score := 100.0 / (1.0 + math.Exp(-sigmoidSlope*normalized))
	res.Score = clamp(score, 0, 100)

	for _, k := range order {
		res.Keywords = append(res.Keywords, KeywordCount{Keyword: k, Count: res.Counts[k]})
	}
	return res
}

// resolveWeight prefers the exact weight of the surface key that
// produced the match and falls back to the canonical keyword's
// representative weight.
func (s *Scorer) resolveWeight(m Match) (float64, bool) {
	if e, ok := s.lexicon.Lookup(m.Surface); ok {
		return e.Weight, true
	}
	return s.lexicon.CanonicalWeight(m.Canonical)
}

// wordCount counts tokens that are neither punctuation nor whitespace.
func (s *Scorer) wordCount(text string) int {
	n := 0
	for _, t := range s.matcher.tokenizer.Tokenize(text) {
		if !t.Punct && !t.Space {
			n++
		}
	}
	return n
}

// excerptAround returns up to excerptRadius bytes of context on each
// side of [start, end), adjusted to rune boundaries, with ellipses
// marking truncation.
func excerptAround(text string, start, end int) string {
	s := start - excerptRadius
	if s < 0 {
		s = 0
	}
	e := end + excerptRadius
	if e > len(text) {
		e = len(text)
	}
	for s > 0 && s < len(text) && !utf8.RuneStart(text[s]) {
		s--
	}
	for e < len(text) && !utf8.RuneStart(text[e]) {
		e++
	}
	excerpt := strings.TrimSpace(text[s:e])
	if s > 0 {
		excerpt = "…" + excerpt
	}
	if e < len(text) {
		excerpt += "…"
	}
	return excerpt
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
