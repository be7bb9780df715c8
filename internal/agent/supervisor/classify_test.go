package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wk-archive/meetingmind/internal/types"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     types.Classification
	}{
		{"greeting", "Hello there", types.ClassDirect},
		{"identity", "who are you", types.ClassDirect},
		{"single entity", "who attended the roadmap sync", types.ClassSingleDelegate},
		{"list meetings", "list meetings from March", types.ClassSingleDelegate},
		{"temporal word", "how has the roadmap evolved", types.ClassPlanned},
		{"two time windows", "compare Q1 2026 to Q2 2026 progress", types.ClassPlanned},
		{"synthesis", "summarize decisions across all planning meetings", types.ClassSynthesis},
		{"fallback", "tell me something interesting", types.ClassPlanned},
		{"decisions made in a named meeting", "What decisions were made in the All Hands on Oct 8?", types.ClassSingleDelegate},
		{"actions made in a named meeting", "what actions was made during the roadmap sync", types.ClassSingleDelegate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.question))
		})
	}
}

// TestClassify_SeedScenarios exercises the classification step of each of
// spec.md §8's end-to-end seed scenarios, so a regression in a pattern
// doesn't just fail a restated example but an actual scripted scenario.
func TestClassify_SeedScenarios(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     types.Classification
	}{
		{"1 simple identity", "Who are you?", types.ClassDirect},
		{"2 single meeting lookup", "What decisions were made in the All Hands on Oct 8?", types.ClassSingleDelegate},
		{"3 temporal comparison", "How has our Germany strategy evolved from July to October?", types.ClassPlanned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.question))
		})
	}
}
