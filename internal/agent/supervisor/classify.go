package supervisor

import (
	"regexp"
	"strings"

	"github.com/wk-archive/meetingmind/internal/types"
)

var (
	greetingPattern      = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good morning|good afternoon|who are you|what are you|what can you do)\b`)
	singleEntityPattern  = regexp.MustCompile(`(?i)^\s*(list meetings|who attended|when did .+ meet|what meetings|what \w+ (?:were|was) made (?:in|at|during) .+)\b`)
	temporalWordPattern  = regexp.MustCompile(`(?i)\b(evolved|compare|trend|over time)\b`)
	synthesisPattern     = regexp.MustCompile(`(?i)\b(summarize|decisions across|stakeholders)\b`)
	timeWindowPattern    = regexp.MustCompile(`(?i)\b(q[1-4]\s*\d{4}|january|february|march|april|may|june|july|august|september|october|november|december|\d{4}-\d{2}-\d{2}|last (week|month|quarter|year)|this (week|month|quarter|year))\b`)
)

// Classify applies the deterministic, first-match-wins classification
// rules over the raw question string (spec.md §4.10).
func Classify(question string) types.Classification {
	q := strings.TrimSpace(question)

	if greetingPattern.MatchString(q) {
		return types.ClassDirect
	}
	if singleEntityPattern.MatchString(q) {
		return types.ClassSingleDelegate
	}
	if countTimeWindows(q) >= 2 || temporalWordPattern.MatchString(q) {
		return types.ClassPlanned
	}
	if synthesisPattern.MatchString(q) {
		return types.ClassSynthesis
	}
	return types.ClassPlanned
}

func countTimeWindows(q string) int {
	matches := timeWindowPattern.FindAllString(q, -1)
	seen := map[string]bool{}
	for _, m := range matches {
		seen[strings.ToLower(m)] = true
	}
	return len(seen)
}
