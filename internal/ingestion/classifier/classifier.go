// Package classifier derives a Source's confidentiality level, document
// status, and tags from its metadata (spec.md §4.4). It is a pure
// function: no I/O, no LLM call, deterministic for a given input.
package classifier

import (
	"regexp"
	"strings"

	"github.com/wk-archive/meetingmind/internal/types"
)

var (
	restrictedTitlePattern    = regexp.MustCompile(`(?i)legal|personnel`)
	confidentialTitlePattern = regexp.MustCompile(`(?i)confidential|sensitive|executive`)
	publicTitlePattern        = regexp.MustCompile(`(?i)public`)
	draftTitlePattern         = regexp.MustCompile(`(?i)draft|wip|preliminary|v0\.`)
	archivedTitlePattern      = regexp.MustCompile(`(?i)archive|legacy`)
)

var restrictedParticipantKeywords = []string{"lawyer", "attorney", "counsel", "hr director"}

var confidentialCategories = map[string]bool{
	"principals": true, "leadership": true, "board": true, "funder": true,
}

var topicKeywords = []string{
	"budget", "roadmap", "hiring", "legal", "security", "partnership",
	"compliance", "product", "funding", "retention", "incident",
}

// Result is the classifier's output.
type Result struct {
	Level  types.ConfidentialityLevel
	Status types.DocumentStatus
	Tags   []string
}

// Classify derives (level, status, tags) from title, category, the set of
// participant display names, and filename. An explicit override is honored
// verbatim and never downgraded.
func Classify(title, category string, participants []string, filename string, override *types.ConfidentialityOverride) Result {
	result := Result{
		Level:  classifyLevel(title, category, participants),
		Status: classifyStatus(title),
		Tags:   deriveTags(category, title, filename),
	}
	// An explicit override always wins outright: the classifier's own
	// heuristic result is never allowed to downgrade it.
	if override != nil {
		if override.Level != nil {
			result.Level = *override.Level
		}
		if override.Status != nil {
			result.Status = *override.Status
		}
	}
	return result
}

func classifyLevel(title, category string, participants []string) types.ConfidentialityLevel {
	for _, p := range participants {
		lowerP := strings.ToLower(p)
		for _, kw := range restrictedParticipantKeywords {
			if strings.Contains(lowerP, kw) {
				return types.ConfidentialityRestricted
			}
		}
	}
	if restrictedTitlePattern.MatchString(title) {
		return types.ConfidentialityRestricted
	}
	if confidentialCategories[strings.ToLower(category)] || confidentialTitlePattern.MatchString(title) {
		return types.ConfidentialityConfidential
	}
	if strings.EqualFold(category, "PublicEvent") || publicTitlePattern.MatchString(title) {
		return types.ConfidentialityPublic
	}
	return types.ConfidentialityInternal
}

func classifyStatus(title string) types.DocumentStatus {
	switch {
	case draftTitlePattern.MatchString(title):
		return types.DocumentStatusDraft
	case archivedTitlePattern.MatchString(title):
		return types.DocumentStatusArchived
	default:
		return types.DocumentStatusFinal
	}
}

func deriveTags(category, title, filename string) []string {
	var tags []string
	if category != "" {
		tags = append(tags, slugify(category))
	}
	lowerTitle := strings.ToLower(title)
	lowerFilename := strings.ToLower(filename)
	for _, kw := range topicKeywords {
		if len(tags) >= 4 {
			break
		}
		if strings.Contains(lowerTitle, kw) || strings.Contains(lowerFilename, kw) {
			tags = append(tags, kw)
		}
	}
	return tags
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
