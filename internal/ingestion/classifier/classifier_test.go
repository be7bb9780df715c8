package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wk-archive/meetingmind/internal/types"
)

func TestClassify_LevelPrecedence(t *testing.T) {
	cases := []struct {
		name         string
		title        string
		category     string
		participants []string
		want         types.ConfidentialityLevel
	}{
		{"restricted by participant", "Weekly sync", "General", []string{"Jane Doe, Attorney"}, types.ConfidentialityRestricted},
		{"restricted by title beats confidential category", "Legal review", "Board", nil, types.ConfidentialityRestricted},
		{"confidential by category", "Quarterly update", "Leadership", nil, types.ConfidentialityConfidential},
		{"confidential by title", "Executive offsite notes", "General", nil, types.ConfidentialityConfidential},
		{"public by category", "Kickoff", "PublicEvent", nil, types.ConfidentialityPublic},
		{"public by title", "Public roadmap announcement", "General", nil, types.ConfidentialityPublic},
		{"default internal", "Team standup", "General", nil, types.ConfidentialityInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Classify(tc.title, tc.category, tc.participants, "", nil)
			assert.Equal(t, tc.want, result.Level)
		})
	}
}

func TestClassify_Status(t *testing.T) {
	cases := []struct {
		title string
		want  types.DocumentStatus
	}{
		{"Roadmap v0.1 draft", types.DocumentStatusDraft},
		{"2019 legacy archive notes", types.DocumentStatusArchived},
		{"Final decisions", types.DocumentStatusFinal},
	}
	for _, tc := range cases {
		result := Classify(tc.title, "General", nil, "", nil)
		assert.Equal(t, tc.want, result.Status)
	}
}

func TestClassify_OverrideNeverDowngraded(t *testing.T) {
	restricted := types.ConfidentialityRestricted
	result := Classify("Team standup", "General", nil, "", &types.ConfidentialityOverride{Level: &restricted})
	assert.Equal(t, types.ConfidentialityRestricted, result.Level)
}

func TestClassify_Deterministic(t *testing.T) {
	a := Classify("Board meeting", "Board", []string{"Alice"}, "board-notes.txt", nil)
	b := Classify("Board meeting", "Board", []string{"Alice"}, "board-notes.txt", nil)
	assert.Equal(t, a, b)
}

func TestClassify_TagsBoundedAndDeterministic(t *testing.T) {
	result := Classify("Budget and roadmap planning for hiring", "Finance", nil, "", nil)
	assert.LessOrEqual(t, len(result.Tags), 4)
	assert.Contains(t, result.Tags, "finance")
}
