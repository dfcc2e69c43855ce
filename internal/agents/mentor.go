package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/pathwise/pathwise/internal/extract"
	"github.com/pathwise/pathwise/internal/state"
)

// checkpointDateLayout is the date format the goal-setting prompt asks the
// model to emit for checkpoints.
const checkpointDateLayout = "2006-01-02"

// CareerGuidance is the strict deliverable of GetCareerGuidance.
type CareerGuidance struct {
	CurrentAssessment string   `json:"currentAssessment"`
	RecommendedPaths  []string `json:"recommendedPaths"`
	NextSteps         []string `json:"nextSteps"`
	TimelineMonths    int      `json:"timelineMonths"`
}

// Motivation is the strict deliverable of GetMotivation.
type Motivation struct {
	Message       string   `json:"message"`
	Achievements  []string `json:"achievements"`
	Encouragement string   `json:"encouragement"`
}

// Checkpoint is one dated step toward a goal.
type Checkpoint struct {
	Title string
	Date  time.Time
}

// Goal is one learning goal with its dated checkpoints.
type Goal struct {
	Title       string
	Description string
	Checkpoints []Checkpoint
}

// GoalPlan is the strict deliverable of SetGoals.
type GoalPlan struct {
	Goals []Goal
}

// Wire shapes for goal extraction; checkpoint dates arrive as strings and are
// converted after parsing.
type rawCheckpoint struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

type rawGoal struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Checkpoints []rawCheckpoint `json:"checkpoints"`
}

type rawGoalPlan struct {
	Goals []rawGoal `json:"goals"`
}

// Mentor handles motivation, career advice and goal setting. All three task
// methods are strict: any extraction or upstream failure surfaces as a
// "Failed to <operation>" error, because the callers have no sane default.
type Mentor struct {
	model ModelClient
}

// NewMentor creates a Mentor over the given model backend.
func NewMentor(model ModelClient) *Mentor {
	return &Mentor{model: model}
}

// Name implements Agent.
func (m *Mentor) Name() state.AgentID { return state.AgentMentor }

// Invoke runs one conversational mentoring turn.
func (m *Mentor) Invoke(ctx context.Context, s state.ConversationState) (Result, error) {
	system := mentorSystemPrompt(mentorPromptParams{
		Level:         s.UserProfile.Level,
		Interests:     s.UserProfile.Interests,
		StruggleAreas: s.UserProfile.StruggleAreas,
		AvgScore:      s.UserProfile.AvgScore,
		RAGContext:    s.RAGContext,
	})

	text, err := converse(ctx, m.model, system, s)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Messages: []state.Message{assistantMessage(text)},
		Metadata: map[string]any{"agentType": string(state.AgentMentor)},
	}, nil
}

func (m *Mentor) system(profile state.UserProfile) string {
	return mentorSystemPrompt(mentorPromptParams{
		Level:         profile.Level,
		Interests:     profile.Interests,
		StruggleAreas: profile.StruggleAreas,
		AvgScore:      profile.AvgScore,
	})
}

// GetCareerGuidance maps the learner's profile to concrete career advice.
func (m *Mentor) GetCareerGuidance(ctx context.Context, profile state.UserProfile) (*CareerGuidance, error) {
	const operation = "get career guidance"

	prompt := `Based on my profile, what career paths fit me and what should I do next?
Respond with a JSON object with fields currentAssessment, recommendedPaths
(string array), nextSteps (string array) and timelineMonths (integer).`

	text, err := ask(ctx, m.model, m.system(profile), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out CareerGuidance
	if err := extract.Object(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}
	return &out, nil
}

// GetMotivation produces a personalized encouragement package.
func (m *Mentor) GetMotivation(ctx context.Context, profile state.UserProfile) (*Motivation, error) {
	const operation = "get motivation"

	prompt := `I need some motivation to keep going.
Respond with a JSON object with fields message, achievements (string array
naming things my progress shows) and encouragement.`

	text, err := ask(ctx, m.model, m.system(profile), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var out Motivation
	if err := extract.Object(text, &out); err != nil {
		return nil, extract.Failedf(operation, err)
	}
	return &out, nil
}

// SetGoals builds a goal plan for the given focus area. Checkpoint dates in
// the model reply are parsed into time values; an unparsable date fails the
// whole call.
func (m *Mentor) SetGoals(ctx context.Context, profile state.UserProfile, focus string) (*GoalPlan, error) {
	const operation = "set goals"

	prompt := fmt.Sprintf(
		`Help me set learning goals focused on %q.
Respond with a JSON object with a goals array; each goal has title,
description and checkpoints (array of {title, date}), with every date in
YYYY-MM-DD format.`, focus)

	text, err := ask(ctx, m.model, m.system(profile), prompt)
	if err != nil {
		return nil, extract.Failedf(operation, err)
	}

	var raw rawGoalPlan
	if err := extract.Object(text, &raw); err != nil {
		return nil, extract.Failedf(operation, err)
	}

	plan := &GoalPlan{Goals: make([]Goal, 0, len(raw.Goals))}
	for _, g := range raw.Goals {
		goal := Goal{
			Title:       g.Title,
			Description: g.Description,
			Checkpoints: make([]Checkpoint, 0, len(g.Checkpoints)),
		}
		for _, cp := range g.Checkpoints {
			date, err := time.Parse(checkpointDateLayout, cp.Date)
			if err != nil {
				return nil, extract.Failedf(operation, fmt.Errorf("checkpoint date %q: %w", cp.Date, err))
			}
			goal.Checkpoints = append(goal.Checkpoints, Checkpoint{Title: cp.Title, Date: date})
		}
		plan.Goals = append(plan.Goals, goal)
	}
	return plan, nil
}
