package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/pathwise/pathwise/internal/agents"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/state"
)

// stubAgent answers with a fixed reply and records the state it saw.
type stubAgent struct {
	id       state.AgentID
	reply    string
	err      error
	seen     *state.ConversationState
	metadata map[string]any
}

func (a *stubAgent) Name() state.AgentID { return a.id }

func (a *stubAgent) Invoke(_ context.Context, s state.ConversationState) (agents.Result, error) {
	a.seen = &s
	if a.err != nil {
		return agents.Result{}, a.err
	}
	md := map[string]any{"agentType": string(a.id)}
	for k, v := range a.metadata {
		md[k] = v
	}
	return agents.Result{
		Messages: []state.Message{{Role: state.RoleAssistant, Content: a.reply}},
		Metadata: md,
	}, nil
}

func fullAgentSet() (map[state.AgentID]*stubAgent, []agents.Agent) {
	ids := []state.AgentID{
		state.AgentTutor, state.AgentAssessor, state.AgentCodeReview,
		state.AgentMentor, state.AgentProjectGuide, state.AgentQuizGenerator,
	}
	byID := make(map[state.AgentID]*stubAgent, len(ids))
	var list []agents.Agent
	for _, id := range ids {
		a := &stubAgent{id: id, reply: "reply from " + string(id)}
		byID[id] = a
		list = append(list, a)
	}
	return byID, list
}

func TestNewGraphValidation(t *testing.T) {
	tutor := &stubAgent{id: state.AgentTutor}

	if _, err := NewGraph(log.NewNop(), tutor, &stubAgent{id: state.AgentOrchestrator}); err == nil {
		t.Error("registering the meta-identifier should fail")
	}
	if _, err := NewGraph(log.NewNop(), tutor, &stubAgent{id: state.AgentTutor}); err == nil {
		t.Error("registering a duplicate should fail")
	}
	if _, err := NewGraph(log.NewNop(), &stubAgent{id: state.AgentMentor}); err == nil {
		t.Error("a graph without the tutor default should fail")
	}
	if _, err := NewGraph(log.NewNop(), tutor); err != nil {
		t.Errorf("tutor-only graph should be valid, got %v", err)
	}
}

// Exactly one terminal agent executes per run, selected by the router, and
// CurrentAgent records the choice.
func TestGraphRunDispatch(t *testing.T) {
	tests := []struct {
		message string
		want    state.AgentID
	}{
		{"Can you review my code?", state.AgentCodeReview},
		{"I'm feeling stuck and want to give up", state.AgentMentor},
		{"quiz me on slices", state.AgentQuizGenerator},
		{"how do channels work?", state.AgentTutor},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			byID, list := fullAgentSet()
			g, err := NewGraph(log.NewNop(), list...)
			if err != nil {
				t.Fatalf("NewGraph() error = %v", err)
			}

			in := state.ConversationState{
				Messages:       []state.Message{{Role: state.RoleUser, Content: tt.message}},
				ShouldContinue: true,
			}
			out, err := g.Run(context.Background(), in)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if out.CurrentAgent != tt.want {
				t.Errorf("CurrentAgent = %q, want %q", out.CurrentAgent, tt.want)
			}
			for id, a := range byID {
				invoked := a.seen != nil
				if invoked != (id == tt.want) {
					t.Errorf("agent %q invoked = %v", id, invoked)
				}
			}

			last, _ := out.LastMessage()
			if last.Content != "reply from "+string(tt.want) {
				t.Errorf("last message = %q", last.Content)
			}
			if out.Metadata["agentType"] != string(tt.want) {
				t.Errorf("agentType metadata = %v", out.Metadata["agentType"])
			}
		})
	}
}

// The selected agent sees CurrentAgent already written by the router.
func TestGraphRunWritesCurrentAgentOnce(t *testing.T) {
	byID, list := fullAgentSet()
	g, _ := NewGraph(log.NewNop(), list...)

	in := state.ConversationState{
		Messages: []state.Message{{Role: state.RoleUser, Content: "test me on maps"}},
	}
	if _, err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	seen := byID[state.AgentAssessor].seen
	if seen == nil || seen.CurrentAgent != state.AgentAssessor {
		t.Errorf("agent saw CurrentAgent = %v, want assessor", seen)
	}
}

// Reducer semantics: the run's messages are appended to the incoming history
// and metadata is shallow-merged.
func TestGraphRunReducers(t *testing.T) {
	_, list := fullAgentSet()
	g, _ := NewGraph(log.NewNop(), list...)

	in := state.ConversationState{
		Messages: []state.Message{
			{Role: state.RoleUser, Content: "earlier question"},
			{Role: state.RoleAssistant, Content: "earlier answer"},
			{Role: state.RoleUser, Content: "how do channels work?"},
		},
		Metadata: map[string]any{"session": "s-1"},
	}
	out, err := g.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(out.Messages) != 4 {
		t.Errorf("got %d messages, want history plus one reply", len(out.Messages))
	}
	if out.Metadata["session"] != "s-1" {
		t.Error("pre-existing metadata should survive the merge")
	}
	if out.Metadata["agentType"] != string(state.AgentTutor) {
		t.Errorf("agentType = %v", out.Metadata["agentType"])
	}
}

func TestGraphRunAgentError(t *testing.T) {
	byID, list := fullAgentSet()
	byID[state.AgentTutor].err = errors.New("model down")
	g, _ := NewGraph(log.NewNop(), list...)

	in := state.ConversationState{
		Messages: []state.Message{{Role: state.RoleUser, Content: "hello"}},
	}
	if _, err := g.Run(context.Background(), in); err == nil {
		t.Fatal("Run() should propagate agent failures")
	}
}
