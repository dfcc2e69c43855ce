// Package state defines the conversation state threaded through every stage
// of the tutoring pipeline.
//
// ConversationState is passed by value: each orchestrator run works on its
// own copy, and updates are folded back in with Merge, which implements the
// reducer semantics the orchestrator relies on (messages concatenate,
// metadata is shallow-merged, everything else is overwritten by the latest
// value).
package state

// Role tags a conversation turn.
type Role string

// Conversation roles. Insertion order of messages is chronological and
// meaningful; no component ever reorders them.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single role-tagged conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// AgentID identifies one of the pedagogical agents.
type AgentID string

// Known agent identifiers. Orchestrator is a meta-identifier used in
// metadata only; it never executes as a terminal agent.
const (
	AgentTutor         AgentID = "tutor"
	AgentAssessor      AgentID = "assessor"
	AgentCodeReview    AgentID = "codeReview"
	AgentMentor        AgentID = "mentor"
	AgentProjectGuide  AgentID = "projectGuide"
	AgentQuizGenerator AgentID = "quizGenerator"
	AgentOrchestrator  AgentID = "orchestrator"
)

// Terminal reports whether the ID names an executable terminal agent.
func (id AgentID) Terminal() bool {
	switch id {
	case AgentTutor, AgentAssessor, AgentCodeReview, AgentMentor, AgentProjectGuide, AgentQuizGenerator:
		return true
	}
	return false
}

// TeachingMode selects the pedagogical style for tutor prompts.
type TeachingMode string

// Supported teaching modes.
const (
	ModeSocratic   TeachingMode = "socratic"
	ModeAdaptive   TeachingMode = "adaptive"
	ModeScaffolded TeachingMode = "scaffolded"
)

// LessonContext describes the lesson the learner is currently in.
// Supplied read-only by the persistence collaborator.
type LessonContext struct {
	LessonID     string       `json:"lessonId"`
	Topic        string       `json:"topic"`
	CourseID     string       `json:"courseId"`
	Objectives   []string     `json:"objectives"`
	TeachingMode TeachingMode `json:"teachingMode"`
	Language     string       `json:"language,omitempty"`
}

// UserProfile describes the learner.
// Supplied read-only by the persistence collaborator.
type UserProfile struct {
	ID            string   `json:"id"`
	Level         int      `json:"level"`
	LearningStyle string   `json:"learningStyle"`
	StruggleAreas []string `json:"struggleAreas"`
	Interests     []string `json:"interests"`
	AvgScore      float64  `json:"avgScore"`
}

// ConversationState is the typed context passed through every stage of a
// single orchestrator run.
//
// Invariant: exactly one terminal agent executes per run, and CurrentAgent is
// written exactly once, by the router. Every other component treats it as
// read-only.
type ConversationState struct {
	// Messages is the ordered conversation history. Append-only within a
	// single run.
	Messages []Message

	// CurrentAgent is the agent selected by the router for this run.
	CurrentAgent AgentID

	LessonContext LessonContext
	UserProfile   UserProfile

	// RAGContext is a plain text block already composed by the retriever.
	// Empty string is valid and maps to an explicit "no content" fallback
	// inside agent prompts.
	RAGContext string

	// ShouldContinue is a caller-settable halt signal consulted by
	// router.ShouldContinue. The single-hop graph itself never loops on it.
	ShouldContinue bool

	// Metadata is shallow-merged across a run; later writes win per key.
	Metadata map[string]any
}

// LastMessage returns the most recent message, if any.
func (s ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// AppendMessages returns a copy of s with msgs appended. The receiver's
// message slice is not shared with the result.
func (s ConversationState) AppendMessages(msgs ...Message) ConversationState {
	out := s
	out.Messages = make([]Message, 0, len(s.Messages)+len(msgs))
	out.Messages = append(out.Messages, s.Messages...)
	out.Messages = append(out.Messages, msgs...)
	return out
}

// Merge folds update into base using the graph's reducer semantics:
//
//   - Messages: concatenated (base then update)
//   - Metadata: shallow union, update wins per key
//   - CurrentAgent, LessonContext, UserProfile, RAGContext, ShouldContinue:
//     overwritten by update's value
//
// The single-hop graph only re-enters state once per run, but the reducers
// are preserved for API parity with callers that wrap multiple turns.
func Merge(base, update ConversationState) ConversationState {
	out := update
	out.Messages = make([]Message, 0, len(base.Messages)+len(update.Messages))
	out.Messages = append(out.Messages, base.Messages...)
	out.Messages = append(out.Messages, update.Messages...)
	out.Metadata = MergeMetadata(base.Metadata, update.Metadata)
	return out
}

// MergeMetadata returns the shallow union of a and b; keys in b win.
// Neither input map is mutated.
func MergeMetadata(a, b map[string]any) map[string]any {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
