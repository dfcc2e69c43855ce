package agents

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/pathwise/pathwise/internal/state"
)

// mockModel implements ModelClient. When responses is set, calls consume it
// in order (the last entry repeats); otherwise response is returned for every
// call. Safe for concurrent use.
type mockModel struct {
	mu        sync.Mutex
	response  string
	responses []string
	err       error

	calls        int
	lastMessages []*ai.Message
}

func (m *mockModel) Generate(_ context.Context, messages []*ai.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastMessages = messages
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) > 0 {
		i := m.calls - 1
		if i >= len(m.responses) {
			i = len(m.responses) - 1
		}
		return m.responses[i], nil
	}
	return m.response, nil
}

func (m *mockModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testState(messages ...string) state.ConversationState {
	s := state.ConversationState{
		LessonContext: state.LessonContext{
			LessonID:     "l1",
			Topic:        "slices",
			CourseID:     "go-101",
			Objectives:   []string{"append to a slice", "understand capacity"},
			TeachingMode: state.ModeSocratic,
			Language:     "go",
		},
		UserProfile: state.UserProfile{
			ID:            "u1",
			Level:         3,
			LearningStyle: "visual",
		},
		ShouldContinue: true,
	}
	for i, content := range messages {
		role := state.RoleUser
		if i%2 == 1 {
			role = state.RoleAssistant
		}
		s.Messages = append(s.Messages, state.Message{Role: role, Content: content})
	}
	return s
}

// Every agent passes the system prompt first, followed by the full ordered
// history, and never reorders messages.
func TestInvokeMessageOrdering(t *testing.T) {
	model := &mockModel{response: "reply"}
	agents := []Agent{
		NewTutor(model),
		NewAssessor(model),
		NewCodeReviewer(model),
		NewMentor(model),
		NewProjectGuide(model),
		NewQuizGenerator(model),
	}
	s := testState("first", "second", "third")

	for _, agent := range agents {
		t.Run(string(agent.Name()), func(t *testing.T) {
			if _, err := agent.Invoke(context.Background(), s); err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}

			msgs := model.lastMessages
			if len(msgs) != len(s.Messages)+1 {
				t.Fatalf("model got %d messages, want %d", len(msgs), len(s.Messages)+1)
			}
			if msgs[0].Role != ai.RoleSystem {
				t.Errorf("first message role = %q, want system", msgs[0].Role)
			}
			for i, orig := range s.Messages {
				if got := msgs[i+1].Content[0].Text; got != orig.Content {
					t.Errorf("message %d = %q, want %q (no reordering)", i+1, got, orig.Content)
				}
			}
		})
	}
}

// Every Invoke result carries an agentType metadata entry matching the
// agent's name, and a single assistant message.
func TestInvokeResultShape(t *testing.T) {
	model := &mockModel{response: "the reply"}
	agents := []Agent{
		NewTutor(model),
		NewAssessor(model),
		NewCodeReviewer(model),
		NewMentor(model),
		NewProjectGuide(model),
		NewQuizGenerator(model),
	}

	for _, agent := range agents {
		t.Run(string(agent.Name()), func(t *testing.T) {
			result, err := agent.Invoke(context.Background(), testState("hello"))
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			if len(result.Messages) != 1 {
				t.Fatalf("got %d messages, want 1", len(result.Messages))
			}
			if result.Messages[0].Role != state.RoleAssistant {
				t.Errorf("role = %q, want assistant", result.Messages[0].Role)
			}
			if result.Messages[0].Content != "the reply" {
				t.Errorf("content = %q", result.Messages[0].Content)
			}
			if result.Metadata["agentType"] != string(agent.Name()) {
				t.Errorf("agentType = %v, want %q", result.Metadata["agentType"], agent.Name())
			}
		})
	}
}

// An empty retrieved context substitutes the fallback literal into the
// system prompt.
func TestInvokeEmptyRAGContextFallback(t *testing.T) {
	model := &mockModel{response: "ok"}
	tutor := NewTutor(model)

	s := testState("hi")
	s.RAGContext = ""
	if _, err := tutor.Invoke(context.Background(), s); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	system := model.lastMessages[0].Content[0].Text
	if !strings.Contains(system, NoContentFallback) {
		t.Errorf("system prompt should contain %q, got:\n%s", NoContentFallback, system)
	}
}
