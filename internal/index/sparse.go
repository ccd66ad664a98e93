package index

import (
	"math"
	"sort"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

const (
	// DefaultMaxFeatures caps the vocabulary at the terms with the
	// highest corpus frequency.
	DefaultMaxFeatures = 1000
	// DefaultMaxDocFreq drops terms that appear in more than this
	// fraction of the corpus. Such terms carry no discriminative
	// signal for retrieval.
	DefaultMaxDocFreq = 0.95
)

// SparseConfig tunes vocabulary selection for a sparse index build.
type SparseConfig struct {
	MaxFeatures int
	MaxDocFreq  float64
}

func (c SparseConfig) withDefaults() SparseConfig {
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = DefaultMaxFeatures
	}
	if c.MaxDocFreq <= 0 || c.MaxDocFreq > 1 {
		c.MaxDocFreq = DefaultMaxDocFreq
	}
	return c
}

// SparseMatch is one scored document from a sparse query. Doc is the
// ordinal of the chunk in the slice the index was built from.
type SparseMatch struct {
	Doc   int
	Score float64
}

type posting struct {
	doc    int
	weight float64
}

// SparseIndex is a TF-IDF index over unigrams and bigrams with cosine
// scoring. Document vectors are L2-normalized at build time, so a query
// reduces to walking the posting lists of its own terms.
//
// The index is immutable once built; a corpus change requires a full
// rebuild.
type SparseIndex struct {
	tok      *Tokenizer
	vocab    map[string]int
	idf      []float64
	postings [][]posting
	docs     int
}

// BuildSparse constructs a sparse index over the chunk texts. Terms are
// selected by corpus frequency after the document-frequency cutoff, with
// alphabetical order breaking ties.
func BuildSparse(chunks []models.Chunk, tok *Tokenizer, cfg SparseConfig) *SparseIndex {
	cfg = cfg.withDefaults()

	docTerms := make([]map[string]int, len(chunks))
	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)

	for i, chunk := range chunks {
		tf := make(map[string]int)
		for _, term := range ngrams(tok.Tokenize(chunk.Text)) {
			tf[term]++
			corpusFreq[term]++
		}
		for term := range tf {
			docFreq[term]++
		}
		docTerms[i] = tf
	}

	kept := make([]string, 0, len(docFreq))
	// A fractional cutoff below one document would empty the
	// vocabulary on tiny corpora, so it only applies once the
	// threshold covers at least one document.
	cutoff := cfg.MaxDocFreq * float64(len(chunks))
	for term, df := range docFreq {
		if cutoff >= 1 && float64(df) > cutoff {
			continue
		}
		kept = append(kept, term)
	}

	sort.Slice(kept, func(a, b int) bool {
		if corpusFreq[kept[a]] != corpusFreq[kept[b]] {
			return corpusFreq[kept[a]] > corpusFreq[kept[b]]
		}
		return kept[a] < kept[b]
	})
	if len(kept) > cfg.MaxFeatures {
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	idx := &SparseIndex{
		tok:      tok,
		vocab:    make(map[string]int, len(kept)),
		idf:      make([]float64, len(kept)),
		postings: make([][]posting, len(kept)),
		docs:     len(chunks),
	}
	for f, term := range kept {
		idx.vocab[term] = f
		idx.idf[f] = math.Log(float64(1+len(chunks))/float64(1+docFreq[term])) + 1
	}

	for doc, tf := range docTerms {
		weights := make(map[int]float64, len(tf))
		var norm float64
		for term, count := range tf {
			f, ok := idx.vocab[term]
			if !ok {
				continue
			}
			w := float64(count) * idx.idf[f]
			weights[f] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for f, w := range weights {
			idx.postings[f] = append(idx.postings[f], posting{doc: doc, weight: w / norm})
		}
	}

	return idx
}

// Features reports the vocabulary size.
func (s *SparseIndex) Features() int {
	return len(s.vocab)
}

// Query scores every document sharing at least one term with the query
// and returns strictly positive matches in descending score order, with
// document order breaking ties.
func (s *SparseIndex) Query(text string) []SparseMatch {
	tf := make(map[int]float64)
	for _, term := range ngrams(s.tok.Tokenize(text)) {
		if f, ok := s.vocab[term]; ok {
			tf[f]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	var norm float64
	for f, count := range tf {
		w := count * s.idf[f]
		tf[f] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)

	scores := make(map[int]float64)
	for f, w := range tf {
		qw := w / norm
		for _, p := range s.postings[f] {
			scores[p.doc] += qw * p.weight
		}
	}

	matches := make([]SparseMatch, 0, len(scores))
	for doc, score := range scores {
		if score <= 0 {
			continue
		}
		matches = append(matches, SparseMatch{Doc: doc, Score: score})
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Doc < matches[b].Doc
	})
	return matches
}

// ngrams expands a token stream into unigrams plus adjacent bigrams.
func ngrams(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
