package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/rag"
	"github.com/pathwise/pathwise/internal/state"
)

// stubRetriever records lookups and returns a fixed context block.
type stubRetriever struct {
	context  string
	err      error
	lessonID string
	question string
	calls    int
}

func (r *stubRetriever) RetrieveForLesson(_ context.Context, lessonID, question string) (string, error) {
	r.calls++
	r.lessonID = lessonID
	r.question = question
	return r.context, r.err
}

func newTestService(t *testing.T, retriever LessonRetriever) (*Service, map[state.AgentID]*stubAgent) {
	t.Helper()
	byID, list := fullAgentSet()
	g, err := NewGraph(log.NewNop(), list...)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	svc, err := NewService(g, retriever, log.NewNop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, byID
}

func TestChat(t *testing.T) {
	retriever := &stubRetriever{context: "## Relevant Course Content\n\nslices grow by doubling"}
	svc, byID := newTestService(t, retriever)

	result, err := svc.Chat(context.Background(), "how do slices grow?", ChatOptions{
		LessonID:    "lesson-1",
		UserProfile: state.UserProfile{ID: "u1", Level: 2},
		LessonContext: state.LessonContext{
			LessonID: "lesson-1",
			Topic:    "slices",
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if result.AgentType != string(state.AgentTutor) {
		t.Errorf("AgentType = %q, want tutor", result.AgentType)
	}
	if result.Response != "reply from tutor" {
		t.Errorf("Response = %q", result.Response)
	}
	if result.Metadata["agentType"] != string(state.AgentTutor) {
		t.Errorf("metadata = %v", result.Metadata)
	}

	if retriever.calls != 1 || retriever.lessonID != "lesson-1" || retriever.question != "how do slices grow?" {
		t.Errorf("retriever saw (%q, %q) across %d calls", retriever.lessonID, retriever.question, retriever.calls)
	}

	seen := byID[state.AgentTutor].seen
	if seen == nil {
		t.Fatal("tutor was not invoked")
	}
	if seen.RAGContext != retriever.context {
		t.Errorf("agent saw RAGContext = %q", seen.RAGContext)
	}
}

// Without a lesson in scope no retrieval runs and the agents see an empty
// context.
func TestChatWithoutLesson(t *testing.T) {
	retriever := &stubRetriever{context: "should not be used"}
	svc, byID := newTestService(t, retriever)

	if _, err := svc.Chat(context.Background(), "hello", ChatOptions{}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if retriever.calls != 0 {
		t.Error("retriever should not be consulted without a lesson ID")
	}
	if byID[state.AgentTutor].seen.RAGContext != "" {
		t.Error("agents should see an empty retrieved context")
	}
}

func TestChatNilRetriever(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.Chat(context.Background(), "hello", ChatOptions{LessonID: "lesson-1"}); err != nil {
		t.Errorf("Chat() with nil retriever should still work, got %v", err)
	}
}

func TestChatPreviousMessages(t *testing.T) {
	svc, byID := newTestService(t, nil)

	previous := []state.Message{
		{Role: state.RoleUser, Content: "earlier"},
		{Role: state.RoleAssistant, Content: "answer"},
	}
	if _, err := svc.Chat(context.Background(), "review my code", ChatOptions{PreviousMessages: previous}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	seen := byID[state.AgentCodeReview].seen
	if seen == nil {
		t.Fatal("codeReview was not invoked")
	}
	if len(seen.Messages) != 3 {
		t.Fatalf("agent saw %d messages, want history plus the new turn", len(seen.Messages))
	}
	last, _ := seen.LastMessage()
	if last.Content != "review my code" {
		t.Errorf("last message = %q", last.Content)
	}
}

// Each call builds a fresh state: history from one call must not leak into
// the next.
func TestChatFreshStatePerCall(t *testing.T) {
	svc, byID := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Chat(ctx, "first question", ChatOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Chat(ctx, "second question", ChatOptions{}); err != nil {
		t.Fatal(err)
	}

	seen := byID[state.AgentTutor].seen
	if len(seen.Messages) != 1 {
		t.Errorf("second call saw %d messages, want 1", len(seen.Messages))
	}
}

func TestChatEmptyMessage(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.Chat(context.Background(), "   ", ChatOptions{}); err == nil {
		t.Error("Chat() should reject an empty message")
	}
}

func TestChatRetrieverError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("store down")}
	svc, _ := newTestService(t, retriever)

	if _, err := svc.Chat(context.Background(), "hi", ChatOptions{LessonID: "l1"}); err == nil {
		t.Error("Chat() should propagate retrieval failures")
	}
}

// The service accepts the concrete rag retriever through its consumer-side
// interface.
var _ LessonRetriever = (*rag.Retriever)(nil)
