package focus

import (
	"strings"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Match is one keyword occurrence in a review. Start and End are byte
// offsets into the original text; Surface is the lexicon key that
// produced the match.
type Match struct {
	Canonical string
	Text      string
	Start     int
	End       int
	Surface   string
}

// Matcher finds lexicon occurrences in review text. The phrase pass
// runs an Aho-Corasick automaton over the normalized text
// (leftmost-longest, whole words only, so "power outlet" wins over
// "outlet" at the same position); the token pass checks each token's
// lemma and case-folded surface against the lexicon.
type Matcher struct {
	lexicon   *Lexicon
	tokenizer Tokenizer
	automaton aho.AhoCorasick
	surfaces  []string
}

// NewMatcher builds a matcher over the given lexicon. The automaton is
// compiled once; the matcher is immutable afterwards.
func NewMatcher(lex *Lexicon, tok Tokenizer) *Matcher {
	surfaces := lex.Surfaces()
	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		MatchOnlyWholeWords: true,
		MatchKind:           aho.LeftMostLongestMatch,
		DFA:                 true,
	})
	return &Matcher{
		lexicon:   lex,
		tokenizer: tok,
		automaton: builder.Build(surfaces),
		surfaces:  surfaces,
	}
}

type matchKey struct {
	canonical  string
	start, end int
}

// Find returns every deduplicated keyword occurrence in text, phrase
// matches first in position order, then surviving token matches. An
// empty result is valid: the review carries no detected signal.
func (m *Matcher) Find(text string) []Match {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var out []Match
	seen := make(map[matchKey]bool)
	add := func(mt Match) {
		k := matchKey{mt.Canonical, mt.Start, mt.End}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, mt)
	}

	// Phrase pass over the normalized text. The automaton reports
	// contained sub-matches alongside the longest hit ("outlets"
	// inside "no outlets"); hits arrive in position order, so any hit
	// whose span sits inside an already-accepted one is discarded and
	// the longest phrase owns the region. Surviving spans are
	// relocated into the original text with a forward cursor; a failed
	// relocation degrades to a zero-length span at 0 instead of
	// dropping the hit.
	var phrases []Match
	var normSpans [][2]int
	cursor := 0
	for _, hit := range m.automaton.FindAll(norm) {
		if containedInSpans(normSpans, hit.Start(), hit.End()) {
			continue
		}
		normSpans = append(normSpans, [2]int{hit.Start(), hit.End()})
		surface := m.surfaces[hit.Pattern()]
		entry, ok := m.lexicon.Lookup(surface)
		if !ok {
			continue
		}
		start, end := relocate(text, lower, norm[hit.Start():hit.End()], &cursor)
		mt := Match{
			Canonical: entry.Canonical,
			Text:      text[start:end],
			Start:     start,
			End:       end,
			Surface:   surface,
		}
		add(mt)
		if end > start {
			phrases = append(phrases, mt)
		}
	}

	// Token pass over the original text. A token inside an already
	// matched phrase span adds nothing: the phrase owns that region.
	for _, t := range m.tokenizer.Tokenize(text) {
		if t.Punct || t.Space {
			continue
		}
		if coveredByPhrase(phrases, t.Start, t.End) {
			continue
		}
		if entry, ok := m.lexicon.Lookup(strings.ToLower(t.Lemma)); ok {
			add(Match{entry.Canonical, t.Text, t.Start, t.End, entry.Surface})
		}
		if entry, ok := m.lexicon.Lookup(strings.ToLower(t.Text)); ok {
			add(Match{entry.Canonical, t.Text, t.Start, t.End, entry.Surface})
		}
	}

	return out
}

// relocate finds the matched surface string in the lowercased original
// text, searching forward from the cursor first so repeated words map
// onto distinct spans. Returns (0, 0) when the substring cannot be
// located, which happens when normalization rewrote punctuation inside
// a phrase.
func relocate(text, lower, surface string, cursor *int) (int, int) {
	if surface == "" {
		return 0, 0
	}
	start := -1
	if *cursor <= len(lower) {
		if idx := strings.Index(lower[*cursor:], surface); idx >= 0 {
			start = *cursor + idx
		}
	}
	if start < 0 {
		start = strings.Index(lower, surface)
	}
	if start < 0 || start+len(surface) > len(text) {
		return 0, 0
	}
	end := start + len(surface)
	if end > *cursor {
		*cursor = end
	}
	return start, end
}

func containedInSpans(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if s[0] <= start && end <= s[1] {
			return true
		}
	}
	return false
}

func coveredByPhrase(phrases []Match, start, end int) bool {
	for _, p := range phrases {
		if p.Start <= start && end <= p.End {
			return true
		}
	}
	return false
}
