// Package agents implements the six pedagogical agents behind the
// orchestration graph.
//
// Every agent satisfies the same contract: Name plus Invoke, where Invoke is
// a pure function of the conversation state and the model backend. It builds
// a system prompt from the state's named slots, calls the model with the
// system message followed by the full ordered history, and wraps the raw
// response as a single assistant message. No agent has side effects beyond
// the model call.
//
// Agent-specific task methods follow one of two extraction policies:
//
//   - Soft (assessor, codeReview, quizGenerator): extraction or validation
//     failure yields a stable, documented fallback value and no error.
//   - Strict (mentor, projectGuide): extraction failure and upstream failure
//     both surface as "Failed to <operation>: <cause>" errors.
//
// Upstream failures (model, embedding, store) are never swallowed by either
// policy.
package agents

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/pathwise/pathwise/internal/state"
)

// ModelClient is the model backend an agent calls.
// Defined on the consumer side; the Genkit-backed implementation lives in
// backend.go and tests substitute a mock.
type ModelClient interface {
	// Generate sends the ordered message list to the model and returns the
	// raw response text. The system message is always first; the history
	// follows in chronological order, never reordered.
	Generate(ctx context.Context, messages []*ai.Message) (string, error)
}

// Result is what an agent's Invoke returns: messages to append and metadata
// to merge into the run. Metadata always includes "agentType".
type Result struct {
	Messages []state.Message
	Metadata map[string]any
}

// Agent is the contract every pedagogical agent satisfies.
type Agent interface {
	Name() state.AgentID
	Invoke(ctx context.Context, s state.ConversationState) (Result, error)
}

// toModelMessages prepends the system prompt to the conversation history in
// the model backend's message format.
func toModelMessages(system string, history []state.Message) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(history)+1)
	msgs = append(msgs, ai.NewSystemMessage(ai.NewTextPart(system)))
	for _, m := range history {
		switch m.Role {
		case state.RoleAssistant:
			msgs = append(msgs, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		case state.RoleSystem:
			msgs = append(msgs, ai.NewSystemMessage(ai.NewTextPart(m.Content)))
		default:
			msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		}
	}
	return msgs
}

// converse runs one conversational model call: system prompt first, then the
// full ordered history.
func converse(ctx context.Context, model ModelClient, system string, s state.ConversationState) (string, error) {
	return model.Generate(ctx, toModelMessages(system, s.Messages))
}

// ask runs a single-prompt task call with no conversation history.
func ask(ctx context.Context, model ModelClient, system, prompt string) (string, error) {
	return model.Generate(ctx, []*ai.Message{
		ai.NewSystemMessage(ai.NewTextPart(system)),
		ai.NewUserMessage(ai.NewTextPart(prompt)),
	})
}

// assistantMessage wraps response text as a single assistant turn.
func assistantMessage(content string) state.Message {
	return state.Message{Role: state.RoleAssistant, Content: content}
}
