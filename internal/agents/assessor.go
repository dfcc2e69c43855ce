package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathwise/pathwise/internal/extract"
	"github.com/pathwise/pathwise/internal/state"
)

// Question is a single generated assessment question.
type Question struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    int      `json:"difficulty"`
	Points        int      `json:"points"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Evaluation is the graded outcome of one answered question.
type Evaluation struct {
	Correct  string `json:"correct"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// defaultEvaluation is the soft-policy fallback for EvaluateAnswer.
func defaultEvaluation() Evaluation {
	return Evaluation{Correct: "no", Score: 0, Feedback: "Unable to evaluate answer."}
}

// QuestionOptions tunes GenerateQuestions output.
type QuestionOptions struct {
	Count      int
	Difficulty int
	Types      []string
}

// Assessor generates questions and grades answers. Both task methods are
// soft: a malformed model reply degrades to an empty slice or a default
// evaluation, never an error.
type Assessor struct {
	model ModelClient
}

// NewAssessor creates an Assessor over the given model backend.
func NewAssessor(model ModelClient) *Assessor {
	return &Assessor{model: model}
}

// Name implements Agent.
func (a *Assessor) Name() state.AgentID { return state.AgentAssessor }

// Invoke runs one conversational assessment turn.
func (a *Assessor) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	system := assessorSystemPrompt(assessorPromptParams{
		Level:      s.UserProfile.Level,
		Topic:      s.LessonContext.Topic,
		Objectives: s.LessonContext.Objectives,
		RAGContext: s.RAGContext,
	})

	text, err := converse(ctx, a.model, system, s)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: map[string]any{"agentType": string(state.AgentAssessor)},
	}, nil
}

// GenerateQuestions asks the model for a batch of questions on topic.
// Questions that fail schema validation are dropped; if the reply contains no
// parseable array at all, the result is an empty slice, not an error.
func (a *Assessor) GenerateQuestions(ctx context.Context, topic string, objectives []string, opts QuestionOptions) ([]Question, error) {
	if opts.Count <= 0 {
		opts.Count = 5
	}
	if opts.Difficulty <= 0 {
		opts.Difficulty = 5
	}
	types := opts.Types
	if len(types) == 0 {
		types = []string{"multipleChoice", "shortAnswer"}
	}

	system := assessorSystemPrompt(assessorPromptParams{
		Topic:      topic,
		Objectives: objectives,
	})
	prompt := fmt.Sprintf(
		`Generate %d assessment questions on %q at difficulty %d/10.
Allowed question types: %s.
Respond with a JSON array of question objects, each with fields
question, type, options, correctAnswer, difficulty, points, explanation.`,
		opts.Count, topic, opts.Difficulty, strings.Join(types, ", "))

	text, err := ask(ctx, a.model, system, prompt)
	if err != nil {
		return nil, err
	}

	items, ok := extract.JSONArray(text)
	if !ok {
		return []Question{}, nil
	}

	questions := make([]Question, 0, len(items))
	for _, item := range items {
		if !extract.Valid(resolvedQuestion, item) {
			continue
		}
		var q Question
		if err := extract.Decode(item, &q); err != nil {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// EvaluateAnswer grades one answer against the expected one.
// A reply that cannot be extracted or validated yields the default
// evaluation; only upstream failures return an error.
func (a *Assessor) EvaluateAnswer(ctx context.Context, question, studentAnswer, correctAnswer string, maxPoints int) (Evaluation, error) {
	system := assessorSystemPrompt(assessorPromptParams{Topic: question})
	prompt := fmt.Sprintf(
		`Question: %s
Expected answer: %s
Student answer: %s
Maximum points: %d

Grade the student answer. Respond with a JSON object with fields
correct ("yes", "no" or "partial"), score (0-%d) and feedback.`,
		question, correctAnswer, studentAnswer, maxPoints, maxPoints)

	text, err := ask(ctx, a.model, system, prompt)
	if err != nil {
		return Evaluation{}, err
	}

	var eval Evaluation
	if err := extract.ValidatedObject(text, resolvedEvaluation, &eval); err != nil {
		return defaultEvaluation(), nil
	}
	return eval, nil
}
