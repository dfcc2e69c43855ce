package agents

import (
	"context"
	"fmt"

	"github.com/pathwise/pathwise/internal/extract"
	"github.com/pathwise/pathwise/internal/state"
)

// submissionPassScore is the recomputed total a submission needs to pass.
const submissionPassScore = 70

// Milestone is one plannable unit of project work.
type Milestone struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	EstimatedDays int      `json:"estimatedDays"`
	Deliverables  []string `json:"deliverables"`
}

// MilestoneReview is the strict deliverable of ReviewMilestone.
type MilestoneReview struct {
	Completed bool     `json:"completed"`
	Feedback  string   `json:"feedback"`
	NextSteps []string `json:"nextSteps"`
}

// SubmissionEvaluation grades a finished project across five categories.
// TotalScore and Passed are recomputed from the category scores; whatever the
// model reported for them is discarded.
type SubmissionEvaluation struct {
	Functionality int    `json:"functionality"`
	CodeQuality   int    `json:"codeQuality"`
	Documentation int    `json:"documentation"`
	Testing       int    `json:"testing"`
	Creativity    int    `json:"creativity"`
	TotalScore    int    `json:"totalScore"`
	Passed        bool   `json:"passed"`
	Feedback      string `json:"feedback"`
}

// ProjectIdea is one suggested project matched to the learner.
type ProjectIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  int      `json:"difficulty"`
	Skills      []string `json:"skills"`
}

// ProjectGuide plans projects and evaluates submissions. All four task
// methods are strict: failures surface as "Failed to <operation>" errors.
type ProjectGuide struct {
	model ModelClient
}

// NewProjectGuide creates a ProjectGuide over the given model backend.
func NewProjectGuide(model ModelClient) *ProjectGuide {
	return &ProjectGuide{model: model}
}

// Name implements Agent.
func (p *ProjectGuide) Name() state.AgentID { return state.AgentProjectGuide }

// Invoke runs one conversational project-guidance turn.
func (p *ProjectGuide) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	system := projectGuideSystemPrompt(projectGuidePromptParams{
		Level:      s.UserProfile.Level,
		Interests:  s.UserProfile.Interests,
		Topic:      s.LessonContext.Topic,
		RAGContext: s.RAGContext,
	})

	text, err := converse(ctx, p.model, system, s)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: map[string]any{"agentType": string(state.AgentProjectGuide)},
	}, nil
}

func (p *ProjectGuide) system(level int, interests []string, topic string) string {
	return projectGuideSystemPrompt(projectGuidePromptParams{
		Level:     level,
		Interests: interests,
		Topic:     topic,
	})
}

// CreateMilestones breaks a project description into ordered milestones.
func (p *ProjectGuide) CreateMilestones(ctx context.Context, projectDescription string, level int) ([]Milestone, error) {
	const operation = "create milestones"

	prompt := fmt.Sprintf(
		`Break this project into ordered milestones:
%s

Respond with a JSON array of milestone objects, each with title, description,
estimatedDays (integer) and deliverables (string array).`, projectDescription)

	text, err := ask(ctx, p.model, p.system(level, nil, ""), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out []Milestone
	if err := extract.Array(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}
	return out, nil
}

// ReviewMilestone checks a submission against one milestone's deliverables.
func (p *ProjectGuide) ReviewMilestone(ctx context.Context, milestone Milestone, submission string) (*MilestoneReview, error) {
	const operation = "review milestone"

	prompt := fmt.Sprintf(
		`Milestone: %s
Expected deliverables: %s

Submission:
%s

Did the submission complete the milestone? Respond with a JSON object with
fields completed (boolean), feedback and nextSteps (string array).`,
		milestone.Title, joinOrNone(milestone.Deliverables), submission)

	text, err := ask(ctx, p.model, p.system(0, nil, ""), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out MilestoneReview
	if err := extract.Object(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}
	return &out, nil
}

// EvaluateSubmission grades a finished project. The model's reported total
// and pass flag are ignored: the total is recomputed as the sum of the five
// category scores and the pass mark applied to that sum.
func (p *ProjectGuide) EvaluateSubmission(ctx context.Context, projectDescription, submission string) (*SubmissionEvaluation, error) {
	const operation = "evaluate submission"

	prompt := fmt.Sprintf(
		`Project brief:
%s

Submission:
%s

Grade the submission. Respond with a JSON object with integer fields
functionality, codeQuality, documentation, testing, creativity (each 0-25,
creativity 0-10), plus totalScore, passed and feedback.`,
		projectDescription, submission)

	text, err := ask(ctx, p.model, p.system(0, nil, ""), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out SubmissionEvaluation
	if err := extract.Object(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}

	out.TotalScore = out.Functionality + out.CodeQuality + out.Documentation + out.Testing + out.Creativity
	out.Passed = out.TotalScore >= submissionPassScore
	return &out, nil
}

// SuggestProjects proposes projects matched to the learner's profile and
// current topic.
func (p *ProjectGuide) SuggestProjects(ctx context.Context, profile state.UserProfile, topic string) ([]ProjectIdea, error) {
	const operation = "suggest projects"

	prompt := fmt.Sprintf(
		`Suggest projects I could build to practice %q.
Respond with a JSON array of project objects, each with title, description,
difficulty (1-10) and skills (string array).`, topic)

	text, err := ask(ctx, p.model, p.system(profile.Level, profile.Interests, topic), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out []ProjectIdea
	if err := extract.Array(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}
	return out, nil
}
