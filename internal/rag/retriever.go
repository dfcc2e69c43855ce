package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pathwise/pathwise/internal/knowledge"
)

// Externally observable literals. The two fallback strings differ on purpose
// and must be preserved verbatim.
const (
	// Separator joins retrieved chunks inside a context block.
	Separator = "\n\n---\n\n"

	// Heading prefixes a non-empty scoped retrieval result.
	Heading = "## Relevant Course Content\n\n"

	// NoContentFound is RetrieveContext's empty-result literal.
	NoContentFound = "No relevant course content found."

	// NoContextFound is RetrieveForLesson's empty-result literal.
	NoContextFound = "No relevant context found."
)

// Per-tier retrieval depth for RetrieveForLesson.
const (
	lessonTierTopK = 3
	courseTierTopK = 2
)

// SearchStore is the slice of the knowledge store the retriever depends on.
type SearchStore interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Scope restricts a retrieval to a course, module, or lesson.
// Unset fields are omitted from the metadata filter.
type Scope struct {
	CourseID  string
	ModuleID  string
	LessonID  string
	MaxChunks int // Defaults to 5 when zero
}

// Retriever composes RAG context blocks from the vector store.
type Retriever struct {
	store  SearchStore
	logger *slog.Logger
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(store SearchStore, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, logger: logger}
}

// RetrieveContext performs one scoped top-K query and formats the hits as a
// single text block under Heading. Empty results map to NoContentFound.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, scope Scope) (string, error) {
	maxChunks := scope.MaxChunks
	if maxChunks <= 0 {
		maxChunks = 5
	}

	opts := []knowledge.SearchOption{knowledge.WithTopK(maxChunks)}
	if scope.CourseID != "" {
		opts = append(opts, knowledge.WithFilter(knowledge.MetaCourseID, scope.CourseID))
	}
	if scope.ModuleID != "" {
		opts = append(opts, knowledge.WithFilter(knowledge.MetaModuleID, scope.ModuleID))
	}
	if scope.LessonID != "" {
		opts = append(opts, knowledge.WithFilter(knowledge.MetaLessonID, scope.LessonID))
	}

	results, err := r.store.Search(ctx, query, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}
	if len(results) == 0 {
		return NoContentFound, nil
	}

	return Heading + joinResults(results), nil
}

// RetrieveForLesson performs the two-tier lookup used by in-lesson chat:
// first scoped to the lesson (topK=3), then course-wide (topK=2), and
// concatenates lesson-then-course results without deduplication. When both
// tiers are empty it returns NoContextFound.
func (r *Retriever) RetrieveForLesson(ctx context.Context, lessonID, userQuestion string) (string, error) {
	lessonResults, err := r.store.Search(ctx, userQuestion,
		knowledge.WithTopK(lessonTierTopK),
		knowledge.WithFilter(knowledge.MetaLessonID, lessonID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve lesson context: %w", err)
	}

	courseResults, err := r.store.Search(ctx, userQuestion,
		knowledge.WithTopK(courseTierTopK),
	)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve course context: %w", err)
	}

	combined := make([]knowledge.Result, 0, len(lessonResults)+len(courseResults))
	combined = append(combined, lessonResults...)
	combined = append(combined, courseResults...)
	if len(combined) == 0 {
		return NoContextFound, nil
	}

	r.logger.Debug("retrieved lesson context",
		"lesson_id", lessonID,
		"lesson_hits", len(lessonResults),
		"course_hits", len(courseResults))
	return joinResults(combined), nil
}

// joinResults joins chunk contents with the fixed separator.
func joinResults(results []knowledge.Result) string {
	parts := make([]string, len(results))
	for i, result := range results {
		parts[i] = result.Chunk.Content
	}
	return strings.Join(parts, Separator)
}
