// Package nlp provides the default tokenizer/lemmatizer used by the
// focus matcher. Tokenization is a simple offset-preserving rune scan;
// lemmas come from the golem English dictionary.
package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"

	"github.com/yy77hello/FocusPlaces/pkg/focus"
)

// Tokenizer implements focus.Tokenizer. The underlying lemmatizer is
// read-only after construction and safe for concurrent use.
type Tokenizer struct {
	lemmatizer *golem.Lemmatizer
}

// New loads the English dictionary and returns a ready tokenizer.
func New() (*Tokenizer, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return &Tokenizer{lemmatizer: lem}, nil
}

// Tokenize splits text into word, whitespace and punctuation tokens
// with byte offsets into text. Word tokens carry a lowercased lemma;
// unknown words lemmatize to themselves.
func (t *Tokenizer) Tokenize(text string) []focus.Token {
	var tokens []focus.Token

	flushWord := func(start, end int) {
		word := text[start:end]
		tokens = append(tokens, focus.Token{
			Text:  word,
			Lemma: t.lemmatizer.LemmaLower(word),
			Start: start,
			End:   end,
		})
	}
	flushSpace := func(start, end int) {
		tokens = append(tokens, focus.Token{
			Text:  text[start:end],
			Lemma: text[start:end],
			Start: start,
			End:   end,
			Space: true,
		})
	}

	wordStart, spaceStart := -1, -1
	for i, r := range text {
		switch {
		case isWordRune(r):
			if spaceStart >= 0 {
				flushSpace(spaceStart, i)
				spaceStart = -1
			}
			if wordStart < 0 {
				wordStart = i
			}
		case unicode.IsSpace(r):
			if wordStart >= 0 {
				flushWord(wordStart, i)
				wordStart = -1
			}
			if spaceStart < 0 {
				spaceStart = i
			}
		default:
			if wordStart >= 0 {
				flushWord(wordStart, i)
				wordStart = -1
			}
			if spaceStart >= 0 {
				flushSpace(spaceStart, i)
				spaceStart = -1
			}
			end := i + len(string(r))
			tokens = append(tokens, focus.Token{
				Text:  text[i:end],
				Lemma: strings.ToLower(text[i:end]),
				Start: i,
				End:   end,
				Punct: true,
			})
		}
	}
	if wordStart >= 0 {
		flushWord(wordStart, len(text))
	}
	if spaceStart >= 0 {
		flushSpace(spaceStart, len(text))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
