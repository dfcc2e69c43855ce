// Package orchestrator runs the single-hop agent graph:
// router selects exactly one terminal agent, the agent executes, and its
// output is folded back into the conversation state.
//
// Dispatch is a lookup table keyed by agent identifier. The graph depth never
// exceeds two, so there is no generic graph engine underneath: the table IS
// the topology, immutable after construction, safe for concurrent readers.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/pathwise/pathwise/internal/agents"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/router"
	"github.com/pathwise/pathwise/internal/state"
)

// Graph dispatches one conversation turn to the agent the router selects.
type Graph struct {
	agents map[state.AgentID]agents.Agent
	logger log.Logger
}

// NewGraph builds the dispatch table from the given agents.
// Every agent must carry a distinct terminal identifier; registration of the
// meta-identifier or a duplicate is a construction error.
func NewGraph(logger log.Logger, list ...agents.Agent) (*Graph, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	table := make(map[state.AgentID]agents.Agent, len(list))
	for _, a := range list {
		id := a.Name()
		if !id.Terminal() {
			return nil, fmt.Errorf("agent %q is not a terminal identifier", id)
		}
		if _, dup := table[id]; dup {
			return nil, fmt.Errorf("agent %q registered twice", id)
		}
		table[id] = a
	}
	if _, ok := table[state.AgentTutor]; !ok {
		return nil, fmt.Errorf("router default %q is not registered", state.AgentTutor)
	}

	return &Graph{agents: table, logger: logger}, nil
}

// Run executes one turn: route, invoke the selected agent, fold its messages
// and metadata back in with the reducer semantics. The router's choice is the
// single write to CurrentAgent for the whole run.
func (g *Graph) Run(ctx context.Context, s state.ConversationState) (state.ConversationState, error) {
	agentID := router.Route(s)
	s.CurrentAgent = agentID

	agent, ok := g.agents[agentID]
	if !ok {
		return s, fmt.Errorf("no agent registered for %q", agentID)
	}

	g.logger.DebugContext(ctx, "dispatching turn",
		"agent", string(agentID),
		"messages", len(s.Messages))

	result, err := agent.Invoke(ctx, s)
	if err != nil {
		return s, fmt.Errorf("agent %s: %w", agentID, err)
	}

	update := s
	update.Messages = result.Messages
	update.Metadata = result.Metadata
	return state.Merge(s, update), nil
}

// ShouldContinue re-exports the router's advisory continuation signal for
// callers wrapping multiple turns.
func (g *Graph) ShouldContinue(s state.ConversationState) router.Decision {
	return router.ShouldContinue(s)
}
