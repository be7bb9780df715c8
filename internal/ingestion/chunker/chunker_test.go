package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/types"
)

func TestChunk_AlwaysProducesAtLeastOneChunk(t *testing.T) {
	cases := []struct {
		name     string
		artifact types.NormalizedArtifact
	}{
		{"empty text", types.NormalizedArtifact{Kind: types.SourceKindDocument, Text: ""}},
		{"whitespace only", types.NormalizedArtifact{Kind: types.SourceKindMeeting, Text: "   \n\n  "}},
		{"single short paragraph", types.NormalizedArtifact{Kind: types.SourceKindDocument, Text: "A short note."}},
	}
	c := New(Config{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := c.Chunk("src-1", tc.artifact, nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(chunks), 1)
		})
	}
}

func TestChunk_SequenceNumbersAreOrdered(t *testing.T) {
	c := New(Config{TargetMin: 20, TargetMax: 40, HardCeiling: 60})
	text := strings.Repeat("Paragraph about the quarterly roadmap and deliverables.\n\n", 10)
	chunks, err := c.Chunk("src-2", types.NormalizedArtifact{Kind: types.SourceKindDocument, Text: text}, nil)
	require.NoError(t, err)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceNumber)
		assert.Equal(t, "src-2", ch.SourceID)
	}
}

func TestChunk_DecisionMarkerDominatesKind(t *testing.T) {
	c := New(Config{})
	chunks, err := c.Chunk("src-3", types.NormalizedArtifact{
		Kind: types.SourceKindMeeting,
		Text: "Decision: we will ship the new pricing tier next quarter.",
	}, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkKindDecision, chunks[0].Kind)
}

func TestChunk_DefaultKindBySourceKind(t *testing.T) {
	c := New(Config{})
	meeting, err := c.Chunk("src-4", types.NormalizedArtifact{Kind: types.SourceKindMeeting, Text: "Just chatting about lunch."}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ChunkKindDiscussion, meeting[0].Kind)

	chat, err := c.Chunk("src-5", types.NormalizedArtifact{Kind: types.SourceKindChat, Text: "Alice: hey there"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ChunkKindConversation, chat[0].Kind)
}

func TestChunk_IDIsDeterministic(t *testing.T) {
	c := New(Config{})
	artifact := types.NormalizedArtifact{Kind: types.SourceKindDocument, Text: "Stable content for hashing."}
	first, err := c.Chunk("src-6", artifact, nil)
	require.NoError(t, err)
	second, err := c.Chunk("src-6", artifact, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Len(t, first[0].ID, 16)
}

func TestChunk_ImportanceScoreBoundedAndDeterministic(t *testing.T) {
	c := New(Config{})
	leaders := map[string]bool{"alice": true}
	artifact := types.NormalizedArtifact{
		Kind: types.SourceKindMeeting,
		Text: "Decision: ship it now!! Action: notify the team.",
	}
	chunks, err := c.Chunk("src-7", artifact, leaders)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.LessOrEqual(t, chunks[0].ImportanceScore, 1.0)
	assert.Greater(t, chunks[0].ImportanceScore, 0.0)

	again, err := c.Chunk("src-7", artifact, leaders)
	require.NoError(t, err)
	assert.Equal(t, chunks[0].ImportanceScore, again[0].ImportanceScore)
}

func TestChunk_RejectsInvalidUTF8(t *testing.T) {
	c := New(Config{})
	_, err := c.Chunk("src-8", types.NormalizedArtifact{
		Kind: types.SourceKindDocument,
		Text: string([]byte{0xff, 0xfe, 0x00}),
	}, nil)
	require.Error(t, err)
}

func TestChunk_ChatWindowSplitsOnSixteenMinuteGap(t *testing.T) {
	c := New(Config{ChatWindowSec: 15 * 60, ChatMaxMsgs: 100})
	text := strings.Join([]string{
		"[2024-03-01 09:00:00] Alice: starting the standup",
		"[2024-03-01 09:05:00] Bob: here",
		"[2024-03-01 09:21:00] Alice: sorry, got pulled away",
		"[2024-03-01 09:22:00] Bob: no worries",
	}, "\n")
	chunks, err := c.Chunk("src-9", types.NormalizedArtifact{Kind: types.SourceKindChat, Text: text}, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2, "a gap over the 15 minute window must start a new chunk")
	assert.Contains(t, chunks[0].Text, "Bob: here")
	assert.Contains(t, chunks[1].Text, "sorry, got pulled away")
	require.NotNil(t, chunks[0].StartTimestamp)
	require.NotNil(t, chunks[0].EndTimestamp)
	assert.Equal(t, int64(300), *chunks[0].EndTimestamp-*chunks[0].StartTimestamp)
}

func TestChunk_ChatWindowStaysWithinFifteenMinutes(t *testing.T) {
	c := New(Config{ChatWindowSec: 15 * 60, ChatMaxMsgs: 100})
	text := strings.Join([]string{
		"[2024-03-01 09:00:00] Alice: starting the standup",
		"[2024-03-01 09:10:00] Bob: here",
		"[2024-03-01 09:14:00] Alice: wrapping up",
	}, "\n")
	chunks, err := c.Chunk("src-10", types.NormalizedArtifact{Kind: types.SourceKindChat, Text: text}, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1, "messages within the window must stay in one chunk")
}
