package router

import (
	"testing"

	"github.com/pathwise/pathwise/internal/state"
)

func stateWith(content string) state.ConversationState {
	return state.ConversationState{
		Messages:       []state.Message{{Role: state.RoleUser, Content: content}},
		ShouldContinue: true,
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    state.AgentID
	}{
		{"code review request", "Can you review my code?", state.AgentCodeReview},
		{"debug keyword", "help me debug this function", state.AgentCodeReview},
		{"refactor", "refactor this for me", state.AgentCodeReview},
		{"stuck and giving up", "I'm feeling stuck and want to give up", state.AgentMentor},
		{"career question", "what career should I aim for", state.AgentMentor},
		{"goal setting", "help me set some goals", state.AgentMentor},
		{"project idea", "got any project ideas for me?", state.AgentProjectGuide},
		{"milestone", "what's my next milestone", state.AgentProjectGuide},
		{"portfolio", "I want to grow my portfolio", state.AgentProjectGuide},
		{"assessment", "test me on slices", state.AgentAssessor},
		{"grading", "can you grade my answer", state.AgentAssessor},
		{"quiz", "give me a quiz on goroutines", state.AgentQuizGenerator},
		{"certification", "I want the certification exam", state.AgentQuizGenerator},
		{"plain question defaults to tutor", "how do channels work?", state.AgentTutor},
		{"empty-ish message defaults to tutor", "hmm", state.AgentTutor},
		{"case insensitive", "REVIEW MY CODE please", state.AgentCodeReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Route(stateWith(tt.message)); got != tt.want {
				t.Errorf("Route(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

// A message matching both codeReview and a lower-priority agent routes to
// codeReview: priority order is fixed.
func TestRoutePriority(t *testing.T) {
	s := stateWith("I'm stuck, can you review my code?")
	if got := Route(s); got != state.AgentCodeReview {
		t.Errorf("Route() = %q, want codeReview to win over mentor", got)
	}

	s = stateWith("I'm stuck on this quiz")
	if got := Route(s); got != state.AgentMentor {
		t.Errorf("Route() = %q, want mentor to win over quizGenerator", got)
	}
}

// Only the last message is inspected.
func TestRouteUsesLastMessageOnly(t *testing.T) {
	s := state.ConversationState{Messages: []state.Message{
		{Role: state.RoleUser, Content: "review my code"},
		{Role: state.RoleAssistant, Content: "sure, paste it"},
		{Role: state.RoleUser, Content: "actually, how do maps work?"},
	}}
	if got := Route(s); got != state.AgentTutor {
		t.Errorf("Route() = %q, want tutor for the last message", got)
	}
}

func TestRouteEmptyState(t *testing.T) {
	if got := Route(state.ConversationState{}); got != state.AgentTutor {
		t.Errorf("Route() on empty state = %q, want tutor", got)
	}
}

func TestShouldContinue(t *testing.T) {
	tests := []struct {
		name    string
		state   state.ConversationState
		want    Decision
	}{
		{"flag cleared", state.ConversationState{ShouldContinue: false}, End},
		{"no messages", state.ConversationState{ShouldContinue: true}, Continue},
		{"normal message", stateWith("tell me about interfaces"), Continue},
		{"goodbye", stateWith("ok goodbye"), End},
		{"bye", stateWith("bye!"), End},
		{"thanks that", stateWith("thanks, that was helpful"), End},
		{"that's all", stateWith("that's all for today"), End},
		{"done for now", stateWith("I'm done for now"), End},
		{"termination phrase is case insensitive", stateWith("GOODBYE"), End},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldContinue(tt.state); got != tt.want {
				t.Errorf("ShouldContinue() = %q, want %q", got, tt.want)
			}
		})
	}
}
