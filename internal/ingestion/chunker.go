package ingestion

import (
	"fmt"
	"strings"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

const (
	DefaultChunkSize = 300
	DefaultOverlap   = 50
)

// Sentence terminators across CJK and Latin text.
var sentenceTerminators = map[rune]bool{
	'。': true, '！': true, '？': true,
	'.': true, '!': true, '?': true,
}

// Chunker splits document text into sentence-respecting chunks with a
// character overlap carried between consecutive chunks. Sizes are counted
// in runes so CJK and Latin text budget the same way.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 2
		}
	}
	return &Chunker{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Chunk accumulates whole sentences until adding the next one would exceed
// ChunkSize, then emits and starts the next chunk Overlap characters back
// from the emission boundary. A single sentence longer than ChunkSize
// becomes its own chunk unmodified. Output is deterministic for identical
// input.
func (c *Chunker) Chunk(text, sourceFile string) []models.Chunk {
	sentences := splitSentences(text)

	var chunks []models.Chunk
	var current []rune

	emit := func() {
		content := strings.TrimSpace(string(current))
		if content == "" {
			return
		}
		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s_%d", sourceFile, len(chunks)),
			Text:       content,
			SourceFile: sourceFile,
			Index:      len(chunks),
			Language:   models.LanguageTag(content),
		})
	}

	for _, sentence := range sentences {
		s := []rune(sentence)

		// A sentence longer than the chunk size is emitted whole as its
		// own chunk; the accumulator restarts after it.
		if len(s) > c.ChunkSize {
			emit()
			current = s
			emit()
			current = nil
			continue
		}

		if len(current)+len(s) > c.ChunkSize {
			emit()
			overlapStart := len(current) - c.Overlap
			if overlapStart < 0 {
				overlapStart = 0
			}
			next := append([]rune{}, current[overlapStart:]...)
			next = append(next, ' ')
			current = append(next, s...)
			continue
		}

		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, s...)
	}
	emit()

	return chunks
}

// splitSentences splits on the union of CJK and Latin sentence terminators,
// dropping terminators and empty fragments.
func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			sentences = append(sentences, s)
		}
		sb.Reset()
	}

	for _, r := range text {
		if sentenceTerminators[r] {
			flush()
			continue
		}
		sb.WriteRune(r)
	}
	flush()

	return sentences
}
