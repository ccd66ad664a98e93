package index

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// instituteTerms are registered with the segmenter so that campus and
// program names survive segmentation as single tokens instead of being
// split character by character.
var instituteTerms = []string{
	"工研院",
	"工業技術研究院",
	"ITRI",
	"人才培育",
	"產業升級",
	"創新技術",
	"中興院區",
	"光復院區",
	"南分院",
	"六甲院區",
}

// Tokenizer segments mixed Chinese and English text into terms for the
// sparse index. The same tokenizer must be used at build and query time
// so that both sides produce comparable features.
type Tokenizer struct {
	seg gse.Segmenter
}

// NewTokenizer loads the embedded Chinese dictionary and registers the
// institute vocabulary on top of it.
func NewTokenizer() (*Tokenizer, error) {
	seg, err := gse.NewEmbed("zh")
	if err != nil {
		return nil, fmt.Errorf("loading segmenter dictionary: %w", err)
	}
	for _, term := range instituteTerms {
		if err := seg.AddToken(term, 100); err != nil {
			return nil, fmt.Errorf("registering term %q: %w", term, err)
		}
	}
	return &Tokenizer{seg: seg}, nil
}

// Tokenize lowercases the input, segments it, and drops whitespace and
// punctuation-only fragments.
func (t *Tokenizer) Tokenize(text string) []string {
	segments := t.seg.Cut(strings.ToLower(text), true)
	tokens := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" || !hasWordRune(s) {
			continue
		}
		tokens = append(tokens, s)
	}
	return tokens
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
