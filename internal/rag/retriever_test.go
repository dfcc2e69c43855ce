package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pathwise/pathwise/internal/knowledge"
	"github.com/pathwise/pathwise/internal/log"
)

// searchCall records one Search invocation's effective configuration.
type searchCall struct {
	query  string
	topK   int
	filter map[string]string
}

// mockSearchStore returns canned results per call, in order.
type mockSearchStore struct {
	calls   []searchCall
	results [][]knowledge.Result
	err     error
}

func (m *mockSearchStore) Search(_ context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error) {
	topK, filter := knowledge.ResolveSearchOptions(opts...)
	m.calls = append(m.calls, searchCall{query: query, topK: topK, filter: filter})
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.calls) - 1
	if i >= len(m.results) {
		return nil, nil
	}
	return m.results[i], nil
}

func hits(contents ...string) []knowledge.Result {
	out := make([]knowledge.Result, len(contents))
	for i, c := range contents {
		out[i] = knowledge.Result{Chunk: knowledge.Chunk{Content: c}}
	}
	return out
}

func TestRetrieveContext(t *testing.T) {
	store := &mockSearchStore{results: [][]knowledge.Result{hits("chunk one", "chunk two")}}
	r := NewRetriever(store, log.NewNop())

	got, err := r.RetrieveContext(context.Background(), "pointers", Scope{
		CourseID: "go-101",
		LessonID: "l1",
	})
	if err != nil {
		t.Fatalf("RetrieveContext() error = %v", err)
	}

	want := Heading + "chunk one" + Separator + "chunk two"
	if got != want {
		t.Errorf("RetrieveContext() = %q, want %q", got, want)
	}

	call := store.calls[0]
	if call.topK != 5 {
		t.Errorf("topK = %d, want default 5", call.topK)
	}
	if call.filter[knowledge.MetaCourseID] != "go-101" || call.filter[knowledge.MetaLessonID] != "l1" {
		t.Errorf("filter = %v", call.filter)
	}
	if _, present := call.filter[knowledge.MetaModuleID]; present {
		t.Error("unset moduleId must be omitted from the filter")
	}
}

func TestRetrieveContextEmpty(t *testing.T) {
	store := &mockSearchStore{}
	r := NewRetriever(store, log.NewNop())

	got, err := r.RetrieveContext(context.Background(), "anything", Scope{})
	if err != nil {
		t.Fatalf("RetrieveContext() error = %v", err)
	}
	if got != NoContentFound {
		t.Errorf("RetrieveContext() = %q, want the exact no-content literal", got)
	}
}

func TestRetrieveContextMaxChunks(t *testing.T) {
	store := &mockSearchStore{}
	r := NewRetriever(store, log.NewNop())

	if _, err := r.RetrieveContext(context.Background(), "q", Scope{MaxChunks: 7}); err != nil {
		t.Fatalf("RetrieveContext() error = %v", err)
	}
	if store.calls[0].topK != 7 {
		t.Errorf("topK = %d, want 7", store.calls[0].topK)
	}
}

func TestRetrieveForLesson(t *testing.T) {
	store := &mockSearchStore{results: [][]knowledge.Result{
		hits("lesson chunk"),
		hits("course chunk", "lesson chunk"), // duplicate on purpose
	}}
	r := NewRetriever(store, log.NewNop())

	got, err := r.RetrieveForLesson(context.Background(), "lesson-1", "what is a slice?")
	if err != nil {
		t.Fatalf("RetrieveForLesson() error = %v", err)
	}

	if len(store.calls) != 2 {
		t.Fatalf("Search called %d times, want 2", len(store.calls))
	}

	lessonCall := store.calls[0]
	if lessonCall.topK != 3 {
		t.Errorf("lesson tier topK = %d, want 3", lessonCall.topK)
	}
	if lessonCall.filter[knowledge.MetaLessonID] != "lesson-1" {
		t.Errorf("lesson tier filter = %v", lessonCall.filter)
	}

	courseCall := store.calls[1]
	if courseCall.topK != 2 {
		t.Errorf("course tier topK = %d, want 2", courseCall.topK)
	}
	if len(courseCall.filter) != 0 {
		t.Errorf("course tier must be unscoped, got filter %v", courseCall.filter)
	}

	// Lesson results first, then course results, duplicates kept.
	want := "lesson chunk" + Separator + "course chunk" + Separator + "lesson chunk"
	if got != want {
		t.Errorf("RetrieveForLesson() = %q, want %q", got, want)
	}
	if strings.Count(got, "lesson chunk") != 2 {
		t.Error("duplicate chunks must not be deduplicated")
	}
}

func TestRetrieveForLessonBothTiersEmpty(t *testing.T) {
	store := &mockSearchStore{}
	r := NewRetriever(store, log.NewNop())

	got, err := r.RetrieveForLesson(context.Background(), "lesson-1", "x")
	if err != nil {
		t.Fatalf("RetrieveForLesson() error = %v", err)
	}
	if got != "No relevant context found." {
		t.Errorf("RetrieveForLesson() = %q, want the exact no-context literal", got)
	}
}

func TestRetrieveErrorsPropagate(t *testing.T) {
	store := &mockSearchStore{err: errors.New("store down")}
	r := NewRetriever(store, log.NewNop())

	if _, err := r.RetrieveContext(context.Background(), "q", Scope{}); err == nil {
		t.Error("RetrieveContext() should propagate store errors")
	}
	if _, err := r.RetrieveForLesson(context.Background(), "l", "q"); err == nil {
		t.Error("RetrieveForLesson() should propagate store errors")
	}
}

// The two empty-result literals are distinct externally observable strings.
func TestFallbackLiteralsDiffer(t *testing.T) {
	if NoContentFound == NoContextFound {
		t.Error("the two fallback literals must differ")
	}
	if NoContentFound != "No relevant course content found." {
		t.Errorf("NoContentFound = %q", NoContentFound)
	}
	if NoContextFound != "No relevant context found." {
		t.Errorf("NoContextFound = %q", NoContextFound)
	}
}
