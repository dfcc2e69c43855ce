package agents

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/pathwise/pathwise/internal/extract"
	"github.com/pathwise/pathwise/internal/state"
)

// fallbackScore is the midpoint score every soft review fallback carries.
const fallbackScore = 50

// Aggregate weights for ComprehensiveReview.
const (
	weightBasic       = 0.4
	weightInline      = 0.2
	weightSecurity    = 0.25
	weightRefactoring = 0.15
)

// CodeReview is the basic structured review deliverable.
type CodeReview struct {
	Score             int      `json:"score"`
	Strengths         []string `json:"strengths"`
	Issues            []string `json:"issues"`
	Suggestions       []string `json:"suggestions"`
	OverallAssessment string   `json:"overallAssessment"`
}

// InlineComment anchors one remark to a line of the submitted code.
type InlineComment struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Comment  string `json:"comment"`
}

// InlineReview is the line-anchored review deliverable.
type InlineReview struct {
	Score    int             `json:"score"`
	Comments []InlineComment `json:"comments"`
	Summary  string          `json:"summary"`
}

// SecurityFinding is one vulnerability with its remediation.
type SecurityFinding struct {
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// SecurityReview is the security-focused review deliverable.
type SecurityReview struct {
	Score           int               `json:"score"`
	Vulnerabilities []SecurityFinding `json:"vulnerabilities"`
	Summary         string            `json:"summary"`
}

// Refactoring is one concrete restructuring suggestion.
type Refactoring struct {
	Target    string `json:"target"`
	Rationale string `json:"rationale"`
	Example   string `json:"example"`
}

// RefactoringReview is the refactoring-focused review deliverable.
type RefactoringReview struct {
	Score        int           `json:"score"`
	Refactorings []Refactoring `json:"refactorings"`
	Summary      string        `json:"summary"`
}

// ComprehensiveResult aggregates all four review angles with a weighted
// overall score.
type ComprehensiveResult struct {
	Basic        CodeReview        `json:"basic"`
	Inline       InlineReview      `json:"inline"`
	Security     SecurityReview    `json:"security"`
	Refactoring  RefactoringReview `json:"refactoring"`
	OverallScore int               `json:"overallScore"`
}

// ReviewRequest carries the inputs shared by every review method.
type ReviewRequest struct {
	Code       string
	Language   string
	Objective  string
	Level      int
	RAGContext string
}

// CodeReviewer reviews learner code. All four single-angle task methods are
// soft: a malformed model reply degrades to a typed midpoint-score fallback.
type CodeReviewer struct {
	model ModelClient
}

// NewCodeReviewer creates a CodeReviewer over the given model backend.
func NewCodeReviewer(model ModelClient) *CodeReviewer {
	return &CodeReviewer{model: model}
}

// Name implements Agent.
func (c *CodeReviewer) Name() state.AgentID { return state.AgentCodeReview }

// Invoke runs one conversational review turn.
func (c *CodeReviewer) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	objective := ""
	if len(s.LessonContext.Objectives) > 0 {
		objective = s.LessonContext.Objectives[0]
	}
	system := codeReviewSystemPrompt(codeReviewPromptParams{
		Level:      s.UserProfile.Level,
		Language:   s.LessonContext.Language,
		Objective:  objective,
		RAGContext: s.RAGContext,
	})

	text, err := converse(ctx, c.model, system, s)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: map[string]any{"agentType": string(state.AgentCodeReview)},
	}, nil
}

func (c *CodeReviewer) review(ctx context.Context, req ReviewRequest, instructions string) (string, error) {
	system := codeReviewSystemPrompt(codeReviewPromptParams{
		Level:      req.Level,
		Language:   req.Language,
		Objective:  req.Objective,
		RAGContext: req.RAGContext,
	})
	prompt := fmt.Sprintf("%s\n\nCode to review:\n```%s\n%s\n```", instructions, req.Language, req.Code)
	return ask(ctx, c.model, system, prompt)
}

// ReviewCode produces the basic structured review. On a malformed reply the
// fallback keeps the raw model text as the overall assessment so nothing the
// model said is lost.
func (c *CodeReviewer) ReviewCode(ctx context.Context, req ReviewRequest) (CodeReview, error) {
	text, err := c.review(ctx, req,
		`Review the code for correctness, clarity and idiomatic style.
Respond with a JSON object with fields score (0-100), strengths, issues,
suggestions (string arrays) and overallAssessment.`)
	if err != nil {
		return CodeReview{}, err
	}

	var out CodeReview
	if err := extract.Object(text, &out); err != nil {
		return CodeReview{
			Score:             fallbackScore,
			Strengths:         []string{},
			Issues:            []string{},
			Suggestions:       []string{},
			OverallAssessment: text,
		}, nil
	}
	return out, nil
}

// ReviewWithInlineComments produces line-anchored comments.
func (c *CodeReviewer) ReviewWithInlineComments(ctx context.Context, req ReviewRequest) (InlineReview, error) {
	text, err := c.review(ctx, req,
		`Review the code line by line.
Respond with a JSON object with fields score (0-100), comments (array of
{line, severity, comment}) and summary.`)
	if err != nil {
		return InlineReview{}, err
	}

	var out InlineReview
	if err := extract.Object(text, &out); err != nil {
		return InlineReview{
			Score:    fallbackScore,
			Comments: []InlineComment{},
			Summary:  "Unable to parse inline review.",
		}, nil
	}
	return out, nil
}

// SecurityReview audits the code for vulnerabilities.
func (c *CodeReviewer) SecurityReview(ctx context.Context, req ReviewRequest) (SecurityReview, error) {
	text, err := c.review(ctx, req,
		`Audit the code for security vulnerabilities.
Respond with a JSON object with fields score (0-100), vulnerabilities (array
of {severity, description, recommendation}) and summary.`)
	if err != nil {
		return SecurityReview{}, err
	}

	var out SecurityReview
	if err := extract.Object(text, &out); err != nil {
		return SecurityReview{
			Score:           fallbackScore,
			Vulnerabilities: []SecurityFinding{},
			Summary:         "Unable to parse security review.",
		}, nil
	}
	return out, nil
}

// SuggestRefactoring proposes concrete restructurings.
func (c *CodeReviewer) SuggestRefactoring(ctx context.Context, req ReviewRequest) (RefactoringReview, error) {
	text, err := c.review(ctx, req,
		`Suggest refactorings that improve the code's structure.
Respond with a JSON object with fields score (0-100), refactorings (array of
{target, rationale, example}) and summary.`)
	if err != nil {
		return RefactoringReview{}, err
	}

	var out RefactoringReview
	if err := extract.Object(text, &out); err != nil {
		return RefactoringReview{
			Score:        fallbackScore,
			Refactorings: []Refactoring{},
			Summary:      "Unable to parse refactoring suggestions.",
		}, nil
	}
	return out, nil
}

// ComprehensiveReview runs all four review angles concurrently and aggregates
// them into one weighted overall score. The fan-out is fail-fast: the first
// upstream failure cancels the rest and fails the whole call, with no partial
// aggregation.
func (c *CodeReviewer) ComprehensiveReview(ctx context.Context, req ReviewRequest) (ComprehensiveResult, error) {
	var result ComprehensiveResult

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Basic, err = c.ReviewCode(ctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		result.Inline, err = c.ReviewWithInlineComments(ctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		result.Security, err = c.SecurityReview(ctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		result.Refactoring, err = c.SuggestRefactoring(ctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return ComprehensiveResult{}, fmt.Errorf("comprehensive review: %w", err)
	}

	result.OverallScore = WeightedScore(
		result.Basic.Score, result.Inline.Score,
		result.Security.Score, result.Refactoring.Score)
	return result, nil
}

// WeightedScore combines the four sub-review scores:
// round(basic*0.4 + inline*0.2 + security*0.25 + refactoring*0.15).
func WeightedScore(basic, inline, security, refactoring int) int {
	return int(math.Round(
		float64(basic)*weightBasic +
			float64(inline)*weightInline +
			float64(security)*weightSecurity +
			float64(refactoring)*weightRefactoring))
}
