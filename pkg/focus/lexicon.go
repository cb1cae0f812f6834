package focus

// Entry maps one surface key (a word or short phrase as it appears in
// review text) to a canonical keyword bucket and a signed weight.
// Positive weights favor study suitability, negative weights count
// against it.
type Entry struct {
	Surface   string  `yaml:"surface" json:"surface"`
	Canonical string  `yaml:"canonical" json:"canonical"`
	Weight    float64 `yaml:"weight" json:"weight"`
}

// Lexicon is the keyword-weight table. It is built once and never
// mutated afterwards; matchers and scorers share it freely across
// goroutines.
type Lexicon struct {
	surfaces  []string
	bySurface map[string]Entry
	// canonWeight holds one representative weight per canonical
	// keyword (the first entry in table order), used when a match
	// arrives without a usable surface key.
	canonWeight map[string]float64
}

// NewLexicon builds an immutable lexicon from entries. Surface keys are
// normalized the same way review text is; entries whose surface
// normalizes to the empty string are skipped, and the first entry wins
// when two surfaces collide after normalization.
func NewLexicon(entries []Entry) *Lexicon {
	lex := &Lexicon{
		bySurface:   make(map[string]Entry, len(entries)),
		canonWeight: make(map[string]float64),
	}
	for _, e := range entries {
		key := Normalize(e.Surface)
		if key == "" || e.Canonical == "" {
			continue
		}
		if _, ok := lex.bySurface[key]; !ok {
			lex.bySurface[key] = Entry{Surface: key, Canonical: e.Canonical, Weight: e.Weight}
			lex.surfaces = append(lex.surfaces, key)
		}
		if _, ok := lex.canonWeight[e.Canonical]; !ok {
			lex.canonWeight[e.Canonical] = e.Weight
		}
	}
	return lex
}

// Lookup returns the entry for a normalized surface key.
func (l *Lexicon) Lookup(surface string) (Entry, bool) {
	e, ok := l.bySurface[surface]
	return e, ok
}

// CanonicalWeight returns the representative weight for a canonical
// keyword.
func (l *Lexicon) CanonicalWeight(canonical string) (float64, bool) {
	w, ok := l.canonWeight[canonical]
	return w, ok
}

// Surfaces returns the normalized surface keys in table order. The
// returned slice is shared; callers must not modify it.
func (l *Lexicon) Surfaces() []string {
	return l.surfaces
}

// Len returns the number of surface keys in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.surfaces)
}

// DefaultLexicon builds the lexicon from DefaultEntries.
func DefaultLexicon() *Lexicon {
	return NewLexicon(DefaultEntries())
}

// DefaultEntries returns the built-in keyword table. Table order
// matters: the first entry per canonical keyword supplies the
// representative weight. The set is a tunable starting point, not a
// contract; config may append further entries.
func DefaultEntries() []Entry {
	return []Entry{
		{"quiet", "quiet", 3.0},
		{"quietly", "quiet", 3.0},
		{"noise", "noise", -2.5},
		{"noisy", "noise", -3.0},
		{"loud", "noise", -3.0},
		{"calm", "quiet", 2.0},
		{"peaceful", "quiet", 2.5},
		{"wifi", "wifi", 3.0},
		{"wi-fi", "wifi", 3.0},
		{"internet", "wifi", 2.5},
		{"connection", "wifi", 1.5},
		{"outlet", "outlet", 3.0},
		{"outlets", "outlet", 3.0},
		{"plug", "outlet", 2.5},
		{"power", "outlet", 1.5},
		{"comfortable", "comfort", 2.5},
		{"comfort", "comfort", 2.0},
		{"seat", "comfort", 1.5},
		{"seating", "comfort", 1.5},
		{"chairs", "comfort", 1.5},
		{"chair", "comfort", 1.5},
		{"ergonomic", "comfort", 2.5},
		{"cozy", "comfort", 1.5},
		{"lighting", "lighting", 2.0},
		{"bright", "lighting", 1.5},
		{"dim", "lighting", -1.0},
		{"well-lit", "lighting", 2.0},
		{"dark", "lighting", -1.5},
		{"study", "study", 3.0},
		{"focused", "study", 2.5},
		{"focus", "study", 2.5},
		{"productive", "study", 2.5},
		{"productivity", "study", 2.0},
		{"laptop", "laptop", 2.5},
		{"laptops", "laptop", 2.5},
		{"work", "work", 2.0},
		{"workspace", "work", 2.5},
		{"desk", "work", 2.0},
		{"tables", "tables", 1.5},
		{"table", "tables", 1.5},
		{"restroom", "amenities", 0.5},
		{"bathroom", "amenities", 0.5},
		{"outdoor", "outdoor", 0.5},
		{"friendly", "staff", 1.0},
		{"helpful", "staff", 1.0},
		{"rude", "staff", -1.5},
		{"crowded", "crowded", -2.5},
		{"busy", "crowded", -1.5},
		{"packed", "crowded", -2.0},
		{"empty", "crowded", 1.0},
		{"coffee", "coffee", 0.5},
		{"food", "food", 0.0},
		{"noisy-kids", "family", -2.0},
		{"kids", "family", -1.5},
		{"children", "family", -1.5},
		{"cold", "temperature", -0.5},
		{"hot", "temperature", -0.5},
		{"open-late", "hours", 0.5},
		{"open late", "hours", 0.5},
		{"24/7", "hours", 1.0},
		{"hours", "hours", 0.2},
		{"reservations", "reservations", 0.5},
		{"parking", "parking", 0.2},
		{"plugged", "outlet", 2.5},
		{"power outlet", "outlet", 3.0},
		// Negated amenity phrases: the absence of a core amenity
		// counts against a venue even though the bare word is
		// positive.
		{"no outlet", "outlet", -3.0},
		{"no outlets", "outlet", -3.0},
		{"no wifi", "wifi", -3.0},
	}
}
