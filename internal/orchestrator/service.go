package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/state"
)

// LessonRetriever composes the retrieved context block for an in-lesson
// question. Implemented by rag.Retriever; tests substitute a stub.
type LessonRetriever interface {
	RetrieveForLesson(ctx context.Context, lessonID, userQuestion string) (string, error)
}

// ChatOptions carries the per-request inputs supplied by the persistence
// collaborator.
type ChatOptions struct {
	LessonID         string
	UserProfile      state.UserProfile
	LessonContext    state.LessonContext
	PreviousMessages []state.Message
}

// ChatResult is the public outcome of one chat turn.
type ChatResult struct {
	Response  string         `json:"response"`
	AgentType string         `json:"agentType"`
	Metadata  map[string]any `json:"metadata"`
}

// Service is the public entry point of the tutoring core. It is constructed
// once at process start and passed by reference into request handlers; every
// Chat call builds a fresh state value, so concurrent calls share nothing
// mutable.
type Service struct {
	graph     *Graph
	retriever LessonRetriever
	logger    log.Logger
}

// NewService wires the graph to the retriever. retriever may be nil when the
// deployment runs without a vector store; chat turns then proceed without
// retrieved context.
func NewService(graph *Graph, retriever LessonRetriever, logger log.Logger) (*Service, error) {
	if graph == nil {
		return nil, errors.New("graph is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{graph: graph, retriever: retriever, logger: logger}, nil
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
	defaultErr  error
)

// DefaultService returns a process-wide Service, built by init on the first
// call and reused afterwards. init is ignored once a service exists. Callers
// that manage their own lifecycle should construct a Service directly.
func DefaultService(init func() (*Service, error)) (*Service, error) {
	defaultOnce.Do(func() {
		defaultSvc, defaultErr = init()
	})
	return defaultSvc, defaultErr
}

// Chat runs one full turn: compose retrieval context when a lesson is in
// scope, build a fresh conversation state, dispatch through the graph, and
// return the last assistant message.
func (s *Service) Chat(ctx context.Context, userMessage string, opts ChatOptions) (ChatResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		return ChatResult{}, errors.New("user message is empty")
	}

	invocationID := uuid.NewString()
	logger := s.logger.With("invocation_id", invocationID)

	ragContext := ""
	if s.retriever != nil && opts.LessonID != "" {
		composed, err := s.retriever.RetrieveForLesson(ctx, opts.LessonID, userMessage)
		if err != nil {
			return ChatResult{}, fmt.Errorf("retrieve lesson context: %w", err)
		}
		ragContext = composed
	}

	conv := state.ConversationState{
		Messages:       append(append([]state.Message{}, opts.PreviousMessages...), state.Message{Role: state.RoleUser, Content: userMessage}),
		LessonContext:  opts.LessonContext,
		UserProfile:    opts.UserProfile,
		RAGContext:     ragContext,
		ShouldContinue: true,
	}

	out, err := s.graph.Run(ctx, conv)
	if err != nil {
		logger.ErrorContext(ctx, "chat turn failed", "error", err)
		return ChatResult{}, err
	}

	last, ok := out.LastMessage()
	if !ok || last.Role != state.RoleAssistant {
		return ChatResult{}, errors.New("agent produced no assistant message")
	}

	logger.InfoContext(ctx, "chat turn complete",
		"agent", string(out.CurrentAgent),
		"response_len", len(last.Content))

	return ChatResult{
		Response:  last.Content,
		AgentType: string(out.CurrentAgent),
		Metadata:  out.Metadata,
	}, nil
}
