package knowledge

import "time"

// Metadata keys shared by the indexer, the store and the retriever.
// Filters are exact-match AND across whichever keys are supplied.
const (
	MetaContentID  = "content_id"
	MetaChunkIndex = "chunk_index"
	MetaCourseID   = "course_id"
	MetaModuleID   = "module_id"
	MetaLessonID   = "lesson_id"
	MetaType       = "type"
	MetaTitle      = "title"
)

// Chunk is one indexed unit of course content.
// Chunks are identified by "{contentID}-{chunkIndex}" and destroyed only by
// an explicit delete on their content_id filter.
type Chunk struct {
	ID        string            // "{contentID}-{chunkIndex}"
	Content   string            // Chunk text
	Metadata  map[string]string // Scoping and provenance metadata
	CreatedAt time.Time
}

// Result is a single search hit. It is an ephemeral read value, never
// persisted.
type Result struct {
	Chunk      Chunk
	Similarity float32 // Cosine similarity (1 - distance)
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK   int
	filter map[string]string
}

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithFilter adds a metadata filter restricting search results.
// Multiple calls add additional filters (AND logic). Unset keys are omitted
// from the filter, never matched against the empty string.
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ResolveSearchOptions applies opts and reports the effective topK and
// filter. Lets SearchStore fakes assert the query shape they received.
func ResolveSearchOptions(opts ...SearchOption) (topK int, filter map[string]string) {
	cfg := buildSearchConfig(opts)
	return cfg.topK, cfg.filter
}
