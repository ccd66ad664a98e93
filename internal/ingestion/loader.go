package ingestion

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/rs/zerolog"
)

// Loader walks a corpus directory and turns its JSON and plain-text files
// into chunks ready for indexing. A running counter keeps chunk ids unique
// across files, so one Loader instance covers one load pass.
type Loader struct {
	chunker *Chunker
	counter int
	logger  *zerolog.Logger
}

func NewLoader(chunker *Chunker, logger *zerolog.Logger) *Loader {
	return &Loader{
		chunker: chunker,
		logger:  logger,
	}
}

// goldenEntry is one item of a curated knowledge JSON list.
type goldenEntry struct {
	Content   string          `json:"content"`
	Title     string          `json:"title"`
	Hierarchy string          `json:"hierarchy"`
	Source    string          `json:"source"`
	Category  string          `json:"category"`
	UnitName  string          `json:"unit_name"`
	Leader    string          `json:"leader"`
	Position  string          `json:"position"`
	Year      json.RawMessage `json:"year"`
}

type qaPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Load walks dataDir (lexical order, so output is deterministic) and
// returns the chunks of every .json and .txt file. Files that fail to
// parse are logged and skipped; a missing directory is an error.
func (l *Loader) Load(dataDir string) ([]models.Chunk, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("corpus directory %s: %w", dataDir, err)
	}

	var all []models.Chunk

	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		var chunks []models.Chunk
		var loadErr error

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			chunks, loadErr = l.loadJSONFile(path)
		case ".txt":
			chunks, loadErr = l.loadTextFile(path)
		default:
			return nil
		}

		if loadErr != nil {
			l.logger.Warn().Err(loadErr).Str("file", path).Msg("Skipping corpus file")
			return nil
		}

		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus directory: %w", err)
	}

	l.logger.Info().Int("chunks", len(all)).Str("dir", dataDir).Msg("Corpus loaded")
	return all, nil
}

func (l *Loader) loadJSONFile(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fileName := filepath.Base(path)

	// Curated list entries first: a JSON array whose objects carry content.
	var entries []goldenEntry
	if err := json.Unmarshal(data, &entries); err == nil && len(entries) > 0 && strings.TrimSpace(entries[0].Content) != "" {
		return l.processGoldenEntries(entries, fileName), nil
	}

	if strings.Contains(fileName, "qa_pairs") {
		var pairs []qaPair
		if err := json.Unmarshal(data, &pairs); err != nil {
			return nil, fmt.Errorf("parsing qa pairs: %w", err)
		}
		return l.processQAPairs(pairs, fileName), nil
	}

	// Generic JSON: gather string leaves in key order and chunk the result.
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	text := strings.Join(gatherStrings(value), "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	chunks := l.chunker.Chunk(text, fileName)
	return l.assign(chunks, fileName, map[string]string{models.MetadataType: "generic"}), nil
}

func (l *Loader) loadTextFile(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fileName := filepath.Base(path)
	chunks := l.chunker.Chunk(string(data), fileName)
	return l.assign(chunks, fileName, map[string]string{models.MetadataType: "text"}), nil
}

func (l *Loader) processGoldenEntries(entries []goldenEntry, fileName string) []models.Chunk {
	var chunks []models.Chunk
	for _, entry := range entries {
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}

		meta := map[string]string{
			models.MetadataType: "golden",
		}
		addMeta(meta, models.MetadataTitle, entry.Title)
		addMeta(meta, "hierarchy", entry.Hierarchy)
		addMeta(meta, "source", entry.Source)
		addMeta(meta, "category", entry.Category)
		addMeta(meta, "unit_name", entry.UnitName)
		addMeta(meta, "leader", entry.Leader)
		addMeta(meta, "position", entry.Position)
		if len(entry.Year) > 0 && string(entry.Year) != "null" {
			addMeta(meta, "year", strings.Trim(string(entry.Year), `"`))
		}

		entryChunks := l.chunker.Chunk(entry.Content, fileName)
		chunks = append(chunks, l.assign(entryChunks, "golden", meta)...)
	}
	return chunks
}

func (l *Loader) processQAPairs(pairs []qaPair, fileName string) []models.Chunk {
	var chunks []models.Chunk
	for _, qa := range pairs {
		if qa.Question == "" && qa.Answer == "" {
			continue
		}
		text := fmt.Sprintf("問題: %s 答案: %s", qa.Question, qa.Answer)
		chunk := models.Chunk{
			Text:       text,
			SourceFile: fileName,
			Language:   models.LanguageTag(text),
			Metadata: map[string]string{
				models.MetadataType: models.ChunkTypeQA,
				"question":          qa.Question,
				"answer":            qa.Answer,
			},
		}
		chunks = append(chunks, l.assign([]models.Chunk{chunk}, "qa_pair", nil)...)
	}
	return chunks
}

// assign rewrites ids and indexes from the loader-wide counter and merges
// extra metadata into each chunk.
func (l *Loader) assign(chunks []models.Chunk, idPrefix string, meta map[string]string) []models.Chunk {
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s_%d", idPrefix, l.counter)
		chunks[i].Index = l.counter
		l.counter++

		if len(meta) == 0 {
			continue
		}
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]string, len(meta))
		}
		for k, v := range meta {
			chunks[i].Metadata[k] = v
		}
	}
	return chunks
}

func addMeta(meta map[string]string, key, value string) {
	if strings.TrimSpace(value) != "" {
		meta[key] = value
	}
}

// gatherStrings collects string leaves from decoded JSON, walking object
// keys in sorted order so the result is deterministic.
func gatherStrings(value any) []string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, gatherStrings(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, gatherStrings(v[k])...)
		}
		return out
	default:
		return nil
	}
}
