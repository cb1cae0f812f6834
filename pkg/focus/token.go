package focus

// Token is one unit of text produced by a Tokenizer. Start and End are
// byte offsets into the original (non-normalized) text.
type Token struct {
	Text  string
	Lemma string
	Start int
	End   int
	Punct bool
	Space bool
}

// Tokenizer splits text into tokens with lemmas and offsets. The
// matcher only reads from it, so implementations must be safe for
// concurrent use.
type Tokenizer interface {
	Tokenize(text string) []Token
}
