package agents

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/pathwise/pathwise/internal/extract"
)

// Deliverable schemas. Validation rejects out-of-range values rather than
// coercing them; the one exception is submission totals, which
// EvaluateSubmission recomputes instead of trusting.

var questionSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"question", "type", "correctAnswer", "difficulty", "points"},
	Properties: map[string]*jsonschema.Schema{
		"question": {Type: "string"},
		"type": {
			Type: "string",
			Enum: []any{"multipleChoice", "trueFalse", "shortAnswer", "coding"},
		},
		"options":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"correctAnswer": {Type: "string"},
		"difficulty": {
			Type:    "integer",
			Minimum: extract.Float(1),
			Maximum: extract.Float(10),
		},
		"points": {
			Type:             "integer",
			ExclusiveMinimum: extract.Float(0),
		},
		"explanation": {Type: "string"},
	},
}

var quizSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"title", "questions", "passingScore"},
	Properties: map[string]*jsonschema.Schema{
		"title":       {Type: "string"},
		"description": {Type: "string"},
		"questions": {
			Type:     "array",
			MinItems: extract.Int(1),
			Items:    questionSchema,
		},
		"totalPoints": {Type: "integer"},
		"passingScore": {
			Type:    "integer",
			Minimum: extract.Float(0),
			Maximum: extract.Float(100),
		},
		"timeLimit":         {Type: "integer"},
		"certificationTier": {Type: "string"},
	},
}

var evaluationSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"correct", "score", "feedback"},
	Properties: map[string]*jsonschema.Schema{
		"correct": {
			Type: "string",
			Enum: []any{"yes", "no", "partial"},
		},
		"score":    {Type: "integer", Minimum: extract.Float(0)},
		"feedback": {Type: "string"},
	},
}

// Resolved once at init; the literals above are compile-time constants.
var (
	resolvedQuestion   = extract.MustResolve(questionSchema)
	resolvedQuiz       = extract.MustResolve(quizSchema)
	resolvedEvaluation = extract.MustResolve(evaluationSchema)
)
