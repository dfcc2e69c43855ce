// Package router classifies the learner's last message into an agent
// identifier.
//
// Classification is a fixed, ordered priority policy: the first agent in
// priority order with any matching pattern wins, and everything else falls
// through to the tutor. The policy is deterministic and requires no model
// call.
package router

import (
	"regexp"
	"strings"

	"github.com/pathwise/pathwise/internal/state"
)

// Decision is the advisory continuation signal for callers wrapping multiple
// turns. The single-hop graph itself never loops on it.
type Decision string

// Continuation decisions.
const (
	Continue Decision = "continue"
	End      Decision = "end"
)

// priority is the fixed evaluation order. tutor carries no patterns: it is
// the default and is never matched positively, and neither is the
// orchestrator meta-identifier.
var priority = []state.AgentID{
	state.AgentCodeReview,
	state.AgentMentor,
	state.AgentProjectGuide,
	state.AgentAssessor,
	state.AgentQuizGenerator,
}

// patterns maps each routable agent to its ordered, case-insensitive
// pattern list.
var patterns = map[state.AgentID][]*regexp.Regexp{
	state.AgentCodeReview: compileAll(
		`review (my|this|the) code`,
		`code review`,
		`check my (code|function|implementation)`,
		`what('s| is) wrong with (my|this) code`,
		`\bdebug\b`,
		`refactor (my|this)`,
		`look at my (code|pr|pull request)`,
	),
	state.AgentMentor: compileAll(
		`\bgive up\b`,
		`\bstuck\b`,
		`\bfrustrated\b`,
		`\bdiscouraged\b`,
		`\bunmotivated\b`,
		`\bmotivat`,
		`\bcareer\b`,
		`\bjob\b`,
		`\binterview\b`,
		`set (a |some )?goals?`,
		`\bburn(ed|t)? out\b`,
	),
	state.AgentProjectGuide: compileAll(
		`\bproject idea`,
		`\bmilestone`,
		`\bportfolio\b`,
		`what (should|can) i build`,
		`\bcapstone\b`,
		`review my (submission|project)`,
		`build (an? )?(app|website|api|service)`,
	),
	state.AgentAssessor: compileAll(
		`\btest me\b`,
		`\bassess`,
		`evaluate my (answer|understanding|knowledge)`,
		`how am i doing`,
		`check my answer`,
		`grade (my|this)`,
	),
	state.AgentQuizGenerator: compileAll(
		`\bquiz\b`,
		`\bexam\b`,
		`practice questions?`,
		`\bcertification\b`,
		`multiple.choice`,
	),
}

// terminationPhrases end a conversation when present in the last message.
var terminationPhrases = []string{
	"goodbye",
	"bye",
	"thanks, that",
	"that's all",
	"done for now",
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return compiled
}

// Route classifies the last message into an agent identifier.
// Only the content of the last message is inspected, case-insensitively.
// Messages matching no pattern route to the tutor.
func Route(s state.ConversationState) state.AgentID {
	last, ok := s.LastMessage()
	if !ok {
		return state.AgentTutor
	}

	for _, agent := range priority {
		for _, pattern := range patterns[agent] {
			if pattern.MatchString(last.Content) {
				return agent
			}
		}
	}
	return state.AgentTutor
}

// ShouldContinue reports whether a caller wrapping multiple turns should keep
// going. It returns End when the caller cleared the continue flag or the last
// message contains a termination phrase.
func ShouldContinue(s state.ConversationState) Decision {
	if !s.ShouldContinue {
		return End
	}

	last, ok := s.LastMessage()
	if !ok {
		return Continue
	}

	content := strings.ToLower(last.Content)
	for _, phrase := range terminationPhrases {
		if strings.Contains(content, phrase) {
			return End
		}
	}
	return Continue
}
