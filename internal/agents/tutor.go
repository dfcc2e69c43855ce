package agents

import (
	"context"
	"strings"

	"github.com/pathwise/pathwise/internal/state"
)

// confusionWindow bounds how far back the confusion detector looks.
const confusionWindow = 4

// confusionLexicon is the fixed phrase list the detector matches
// case-insensitively inside recent messages.
var confusionLexicon = []string{
	"i don't understand",
	"i'm confused",
	"what do you mean",
	"can you explain",
	"i'm lost",
	"this doesn't make sense",
	"huh?",
	"???",
}

// Tutor is the default conversational agent. It teaches in the lesson's
// configured mode and tracks learner confusion across recent turns.
type Tutor struct {
	model ModelClient
}

// NewTutor creates a Tutor over the given model backend.
func NewTutor(model ModelClient) *Tutor {
	return &Tutor{model: model}
}

// Name implements Agent.
func (t *Tutor) Name() state.AgentID { return state.AgentTutor }

// Invoke runs one tutoring turn. Beyond the model reply it reports confusion
// detection, a suggested teaching-mode switch when warranted, and which
// lesson objectives the reply textually touched.
func (t *Tutor) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	system := tutorSystemPrompt(tutorPromptParams{
		Level:         s.UserProfile.Level,
		LearningStyle: s.UserProfile.LearningStyle,
		StruggleAreas: s.UserProfile.StruggleAreas,
		Topic:         s.LessonContext.Topic,
		Objectives:    s.LessonContext.Objectives,
		TeachingMode:  s.LessonContext.TeachingMode,
		RAGContext:    s.RAGContext,
	})

	text, err := converse(ctx, t.model, system, s)
	if err != nil {
		return Result{}, err
	}

	confused := DetectConfusion(s.Messages)
	metadata := map[string]any{
		"agentType":         string(state.AgentTutor),
		"confusionDetected": confused,
	}
	if mode, ok := SuggestModeSwitch(s.LessonContext.TeachingMode, confused, len(s.Messages)); ok {
		metadata["suggestedMode"] = string(mode)
	}
	if covered := ObjectivesCovered(s.LessonContext.Objectives, text); len(covered) > 0 {
		metadata["objectivesCovered"] = covered
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: metadata,
	}, nil
}

// DetectConfusion reports whether any of the last four messages contains a
// phrase from the confusion lexicon.
func DetectConfusion(messages []state.Message) bool {
	start := len(messages) - confusionWindow
	if start < 0 {
		start = 0
	}
	for _, m := range messages[start:] {
		content := strings.ToLower(m.Content)
		for _, phrase := range confusionLexicon {
			if strings.Contains(content, phrase) {
				return true
			}
		}
	}
	return false
}

// SuggestModeSwitch proposes a teaching-mode change:
// a confused learner in socratic mode is moved to adaptive, and a calm
// learner deep into an adaptive conversation is nudged back to socratic.
// Any other combination suggests nothing.
func SuggestModeSwitch(current state.TeachingMode, confused bool, messageCount int) (state.TeachingMode, bool) {
	switch {
	case confused && current == state.ModeSocratic:
		return state.ModeAdaptive, true
	case !confused && messageCount > 10 && current == state.ModeAdaptive:
		return state.ModeSocratic, true
	}
	return "", false
}

// ObjectivesCovered returns the objectives whose first word appears in the
// response, case-insensitively.
func ObjectivesCovered(objectives []string, response string) []string {
	lower := strings.ToLower(response)
	var covered []string
	for _, obj := range objectives {
		fields := strings.Fields(obj)
		if len(fields) == 0 {
			continue
		}
		if strings.Contains(lower, strings.ToLower(fields[0])) {
			covered = append(covered, obj)
		}
	}
	return covered
}
