package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathwise/pathwise/internal/extract"
	"github.com/pathwise/pathwise/internal/state"
)

// Certification tiers and the exam difficulty each maps to.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

var tierDifficulty = map[string]int{
	TierBronze:   30,
	TierSilver:   50,
	TierGold:     70,
	TierPlatinum: 90,
}

// defaultExamDifficulty applies when the requested tier is unknown.
const defaultExamDifficulty = 50

// Quiz is the validated quiz deliverable.
type Quiz struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Questions         []Question `json:"questions"`
	TotalPoints       int        `json:"totalPoints,omitempty"`
	PassingScore      int        `json:"passingScore"`
	TimeLimit         int        `json:"timeLimit,omitempty"`
	CertificationTier string     `json:"certificationTier,omitempty"`
}

// QuizRequest carries the inputs shared by quiz and exam generation.
type QuizRequest struct {
	Topic         string
	Objectives    []string
	Level         int
	QuestionCount int
	Difficulty    int
	RAGContext    string
}

// QuizGenerator produces quizzes, exams and single questions. Every task
// method is soft in the nil-returning sense: a reply that cannot be extracted
// or that fails schema validation yields nil, never an error. Only upstream
// failures propagate.
type QuizGenerator struct {
	model ModelClient
}

// NewQuizGenerator creates a QuizGenerator over the given model backend.
func NewQuizGenerator(model ModelClient) *QuizGenerator {
	return &QuizGenerator{model: model}
}

// Name implements Agent.
func (q *QuizGenerator) Name() state.AgentID { return state.AgentQuizGenerator }

// Invoke runs one conversational turn and additionally tries a soft
// extraction over its own reply: when the free-form text happens to contain a
// valid quiz object, the metadata exposes it. Malformed output never fails
// the turn.
func (q *QuizGenerator) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	system := quizSystemPrompt(quizPromptParams{
		Level:      s.UserProfile.Level,
		Topic:      s.LessonContext.Topic,
		Objectives: s.LessonContext.Objectives,
		Difficulty: defaultExamDifficulty,
		RAGContext: s.RAGContext,
	})

	text, err := converse(ctx, q.model, system, s)
	if err != nil {
		return Result{}, err
	}

	metadata := map[string]any{
		"agentType":           string(state.AgentQuizGenerator),
		"hasStructuredOutput": false,
	}
	var quiz Quiz
	if err := extract.ValidatedObject(text, resolvedQuiz, &quiz); err == nil {
		metadata["hasStructuredOutput"] = true
		metadata["generatedQuiz"] = quiz
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: metadata,
	}, nil
}

func (q *QuizGenerator) generate(ctx context.Context, req QuizRequest, prompt string) (*Quiz, error) {
	system := quizSystemPrompt(quizPromptParams{
		Level:      req.Level,
		Topic:      req.Topic,
		Objectives: req.Objectives,
		Difficulty: req.Difficulty,
		RAGContext: req.RAGContext,
	})

	text, err := ask(ctx, q.model, system, prompt)
	if err != nil {
		return nil, err
	}

	var quiz Quiz
	if err := extract.ValidatedObject(text, resolvedQuiz, &quiz); err != nil {
		return nil, nil
	}
	return &quiz, nil
}

// GenerateQuiz produces a validated quiz, or nil when the model reply is
// malformed.
func (q *QuizGenerator) GenerateQuiz(ctx context.Context, req QuizRequest) (*Quiz, error) {
	if req.QuestionCount <= 0 {
		req.QuestionCount = 5
	}
	if req.Difficulty <= 0 {
		req.Difficulty = defaultExamDifficulty
	}

	prompt := fmt.Sprintf(
		`Generate a %d-question quiz on %q.
Respond with a JSON object with fields title, description, questions,
totalPoints, passingScore (0-100) and timeLimit (minutes). Each question has
question, type, options, correctAnswer, difficulty (1-10), points and
explanation.`, req.QuestionCount, req.Topic)

	return q.generate(ctx, req, prompt)
}

// GenerateExam produces a certification exam for the requested tier. The
// returned quiz's certificationTier is always the requested one, regardless
// of what the model reply carried.
func (q *QuizGenerator) GenerateExam(ctx context.Context, req QuizRequest, certificationTier string) (*Quiz, error) {
	tier := strings.ToLower(certificationTier)
	difficulty, ok := tierDifficulty[tier]
	if !ok {
		difficulty = defaultExamDifficulty
	}
	req.Difficulty = difficulty
	if req.QuestionCount <= 0 {
		req.QuestionCount = 10
	}

	prompt := fmt.Sprintf(
		`Generate a %d-question %s-tier certification exam on %q.
Respond with a JSON object with fields title, description, questions,
totalPoints, passingScore (0-100), timeLimit (minutes) and certificationTier.
Each question has question, type, options, correctAnswer, difficulty (1-10),
points and explanation.`, req.QuestionCount, certificationTier, req.Topic)

	quiz, err := q.generate(ctx, req, prompt)
	if err != nil || quiz == nil {
		return quiz, err
	}

	quiz.CertificationTier = certificationTier
	return quiz, nil
}

// GenerateQuestion produces one validated question of the given type, or nil
// when the model reply is malformed.
func (q *QuizGenerator) GenerateQuestion(ctx context.Context, topic, questionType string, difficulty int, ragContext string) (*Question, error) {
	system := quizSystemPrompt(quizPromptParams{
		Topic:      topic,
		Difficulty: difficulty * 10,
		RAGContext: ragContext,
	})
	prompt := fmt.Sprintf(
		`Generate one %s question on %q at difficulty %d/10.
Respond with a JSON object with fields question, type, options,
correctAnswer, difficulty, points and explanation.`,
		questionType, topic, difficulty)

	text, err := ask(ctx, q.model, system, prompt)
	if err != nil {
		return nil, err
	}

	var question Question
	if err := extract.ValidatedObject(text, resolvedQuestion, &question); err != nil {
		return nil, nil
	}
	return &question, nil
}

// GenerateQuestionBatch generates one question per requested type,
// sequentially and in order, silently skipping types whose generation
// returned nil. Batch results are order-significant, so no concurrency is
// introduced here.
func (q *QuizGenerator) GenerateQuestionBatch(ctx context.Context, topic string, types []string, difficulty int, ragContext string) ([]Question, error) {
	questions := make([]Question, 0, len(types))
	for _, questionType := range types {
		question, err := q.GenerateQuestion(ctx, topic, questionType, difficulty, ragContext)
		if err != nil {
			return nil, err
		}
		if question == nil {
			continue
		}
		questions = append(questions, *question)
	}
	return questions, nil
}
