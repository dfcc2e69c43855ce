package agents

import (
	"fmt"
	"strings"

	"github.com/pathwise/pathwise/internal/state"
)

// NoContentFallback substitutes for an empty RAG context inside every agent
// prompt. Externally observable; preserved verbatim.
const NoContentFallback = "No specific content loaded."

// ragOrFallback returns the retrieved context block, or the explicit
// fallback when the retriever produced nothing.
func ragOrFallback(ragContext string) string {
	if ragContext == "" {
		return NoContentFallback
	}
	return ragContext
}

// joinOrNone joins list items for prompt interpolation.
func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// Prompt builders are explicit typed functions, one named parameter struct
// each: a missing slot is a compile error, not a silent template hole.

type tutorPromptParams struct {
	Level         int
	LearningStyle string
	StruggleAreas []string
	Topic         string
	Objectives    []string
	TeachingMode  state.TeachingMode
	RAGContext    string
}

func tutorSystemPrompt(p tutorPromptParams) string {
	return fmt.Sprintf(`You are a patient programming tutor teaching in %s mode.

Student profile:
- Level: %d
- Learning style: %s
- Struggle areas: %s

Current lesson: %s
Lesson objectives: %s

Course content for this lesson:
%s

Guide the student toward the lesson objectives. In socratic mode, answer with
questions that lead the student to the insight. In adaptive mode, explain
directly and adjust depth to the student's level. In scaffolded mode, break
every task into small verifiable steps.`,
		p.TeachingMode, p.Level, p.LearningStyle, joinOrNone(p.StruggleAreas),
		p.Topic, joinOrNone(p.Objectives), ragOrFallback(p.RAGContext))
}

type assessorPromptParams struct {
	Level      int
	Topic      string
	Objectives []string
	RAGContext string
}

func assessorSystemPrompt(p assessorPromptParams) string {
	return fmt.Sprintf(`You are an assessment specialist for a programming course.

Student level: %d
Topic: %s
Objectives: %s

Course content:
%s

Assess the student's understanding fairly and explain what each answer got
right or wrong.`,
		p.Level, p.Topic, joinOrNone(p.Objectives), ragOrFallback(p.RAGContext))
}

type codeReviewPromptParams struct {
	Level      int
	Language   string
	Objective  string
	RAGContext string
}

func codeReviewSystemPrompt(p codeReviewPromptParams) string {
	return fmt.Sprintf(`You are a senior engineer reviewing a student's %s code.

Student level: %d
Lesson objective: %s

Course content:
%s

Review for correctness, clarity, and idiomatic style. Be specific and
constructive; point at lines, not vague qualities.`,
		p.Language, p.Level, p.Objective, ragOrFallback(p.RAGContext))
}

type mentorPromptParams struct {
	Level         int
	Interests     []string
	StruggleAreas []string
	AvgScore      float64
	RAGContext    string
}

func mentorSystemPrompt(p mentorPromptParams) string {
	return fmt.Sprintf(`You are a supportive career mentor for a programming student.

Student profile:
- Level: %d
- Interests: %s
- Struggle areas: %s
- Average score: %.1f

Course content:
%s

Encourage without empty flattery. Tie advice to the student's actual progress
and interests.`,
		p.Level, joinOrNone(p.Interests), joinOrNone(p.StruggleAreas),
		p.AvgScore, ragOrFallback(p.RAGContext))
}

type projectGuidePromptParams struct {
	Level      int
	Interests  []string
	Topic      string
	RAGContext string
}

func projectGuideSystemPrompt(p projectGuidePromptParams) string {
	return fmt.Sprintf(`You are a project guide helping a programming student plan and ship projects.

Student level: %d
Interests: %s
Current topic: %s

Course content:
%s

Keep milestones small enough to finish in a week and concrete enough to
verify.`,
		p.Level, joinOrNone(p.Interests), p.Topic, ragOrFallback(p.RAGContext))
}

type quizPromptParams struct {
	Level      int
	Topic      string
	Objectives []string
	Difficulty int
	RAGContext string
}

func quizSystemPrompt(p quizPromptParams) string {
	return fmt.Sprintf(`You are a quiz author for a programming course.

Student level: %d
Topic: %s
Objectives: %s
Target difficulty: %d/100

Course content:
%s

When asked for structured output, respond with a single JSON object and no
surrounding commentary.`,
		p.Level, p.Topic, joinOrNone(p.Objectives), p.Difficulty,
		ragOrFallback(p.RAGContext))
}
