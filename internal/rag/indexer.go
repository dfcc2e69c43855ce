// Package rag implements the two-tier retrieval-augmented-generation
// pipeline: chunked indexing of course content into the vector store, and
// scoped nearest-neighbor retrieval composing the context blocks that agent
// prompts consume.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pathwise/pathwise/internal/knowledge"
)

// ContentStore is the slice of the knowledge store the indexer depends on.
type ContentStore interface {
	Upsert(ctx context.Context, chunk knowledge.Chunk) error
	DeleteByContentID(ctx context.Context, contentID string) error
}

// CourseSource supplies course material from the persistence collaborator.
// This core only reads from it.
type CourseSource interface {
	// Course returns one course with its modules and lessons.
	Course(ctx context.Context, courseID string) (Course, error)

	// Courses returns all courses.
	Courses(ctx context.Context) ([]Course, error)
}

// Course is the course shape the indexer consumes.
type Course struct {
	ID          string
	Title       string
	Description string
	Modules     []Module
}

// Module groups lessons under a course.
type Module struct {
	ID          string
	Title       string
	Description string
	Lessons     []Lesson
}

// Lesson is a single lesson with its text body.
type Lesson struct {
	ID    string
	Title string
	Body  string
}

// Content unit types written into chunk metadata.
const (
	TypeCourse = "course"
	TypeModule = "module"
	TypeLesson = "lesson"
)

// Metadata scopes a content unit during indexing. Unset fields are omitted
// from chunk metadata entirely, never written as empty strings.
type Metadata struct {
	CourseID string
	ModuleID string
	LessonID string
	Type     string
	Title    string
}

// Indexer chunks course content and upserts it into the vector store.
type Indexer struct {
	store        ContentStore
	source       CourseSource
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewIndexer creates an Indexer with a fixed chunking configuration.
func NewIndexer(store ContentStore, source CourseSource, chunkSize, chunkOverlap int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:        store,
		source:       source,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// IndexContent splits text into overlapping chunks and upserts each one,
// tagged with its chunk index and the supplied metadata.
// Returns the number of chunks written.
func (idx *Indexer) IndexContent(ctx context.Context, contentID, text string, meta Metadata) (int, error) {
	chunks := splitText(text, idx.chunkSize, idx.chunkOverlap)

	for i, chunk := range chunks {
		metadata := map[string]string{
			knowledge.MetaContentID:  contentID,
			knowledge.MetaChunkIndex: strconv.Itoa(i),
			knowledge.MetaType:       meta.Type,
			knowledge.MetaTitle:      meta.Title,
		}
		if meta.CourseID != "" {
			metadata[knowledge.MetaCourseID] = meta.CourseID
		}
		if meta.ModuleID != "" {
			metadata[knowledge.MetaModuleID] = meta.ModuleID
		}
		if meta.LessonID != "" {
			metadata[knowledge.MetaLessonID] = meta.LessonID
		}

		err := idx.store.Upsert(ctx, knowledge.Chunk{
			ID:       fmt.Sprintf("%s-%d", contentID, i),
			Content:  chunk,
			Metadata: metadata,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to index content %q: %w", contentID, err)
		}
	}

	idx.logger.Debug("indexed content", "content_id", contentID, "chunks", len(chunks))
	return len(chunks), nil
}

// IndexCourse indexes one course: its description, every module description,
// and every lesson body. Units without text are skipped. Returns the total
// chunk count summed across all indexed units.
func (idx *Indexer) IndexCourse(ctx context.Context, courseID string) (int, error) {
	course, err := idx.source.Course(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to load course %q: %w", courseID, err)
	}

	total := 0

	if course.Description != "" {
		n, err := idx.IndexContent(ctx, "course-"+course.ID, course.Description, Metadata{
			CourseID: course.ID,
			Type:     TypeCourse,
			Title:    course.Title,
		})
		if err != nil {
			return 0, err
		}
		total += n
	}

	for _, module := range course.Modules {
		if module.Description != "" {
			n, err := idx.IndexContent(ctx, "module-"+module.ID, module.Description, Metadata{
				CourseID: course.ID,
				ModuleID: module.ID,
				Type:     TypeModule,
				Title:    module.Title,
			})
			if err != nil {
				return 0, err
			}
			total += n
		}

		for _, lesson := range module.Lessons {
			if lesson.Body == "" {
				continue
			}
			n, err := idx.IndexContent(ctx, "lesson-"+lesson.ID, lesson.Body, Metadata{
				CourseID: course.ID,
				ModuleID: module.ID,
				LessonID: lesson.ID,
				Type:     TypeLesson,
				Title:    lesson.Title,
			})
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	idx.logger.Info("indexed course", "course_id", courseID, "total_chunks", total)
	return total, nil
}

// ReindexAll applies IndexCourse to every course sequentially and returns
// per-course chunk counts. Fail-fast: the first error aborts the remaining
// sequence; there is no partial-skip.
func (idx *Indexer) ReindexAll(ctx context.Context) (map[string]int, error) {
	courses, err := idx.source.Courses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	counts := make(map[string]int, len(courses))
	for _, course := range courses {
		n, err := idx.IndexCourse(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		counts[course.ID] = n
	}
	return counts, nil
}

// DeleteContent removes every chunk belonging to the given content unit.
func (idx *Indexer) DeleteContent(ctx context.Context, contentID string) error {
	return idx.store.DeleteByContentID(ctx, contentID)
}
