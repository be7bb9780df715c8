package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/types"
)

func TestParse_DetectsChatFromTimestampLine(t *testing.T) {
	payload := []byte("2024-03-01 09:14 Alice: are we still on for standup?\n2024-03-01 09:15 Bob: yep, omw\n")
	art, err := New().Parse(context.Background(), "exports/general/dm-alice-bob.txt", "hash1", payload)
	require.NoError(t, err)
	assert.Equal(t, types.SourceKindChat, art.Kind)
	assert.Equal(t, "general", art.Metadata.Category)
}

func TestParse_DetectsMeetingFromFilename(t *testing.T) {
	payload := []byte("Welcome everyone to the weekly sync.\n\nWe covered the roadmap and budget.\n")
	art, err := New().Parse(context.Background(), "exports/leadership/2024-05-10-weekly-standup.txt", "hash2", payload)
	require.NoError(t, err)
	assert.Equal(t, types.SourceKindMeeting, art.Kind)
	assert.Equal(t, "leadership", art.Metadata.Category)
}

func TestParse_DetectsMeetingFromSpeakerLines(t *testing.T) {
	payload := []byte("Alice Chen: Let's kick things off.\nBob Stone: Sounds good to me.\nAlice Chen: Great, moving on.\n")
	art, err := New().Parse(context.Background(), "exports/general/notes.txt", "hash3", payload)
	require.NoError(t, err)
	assert.Equal(t, types.SourceKindMeeting, art.Kind)
	assert.ElementsMatch(t, []string{"Alice Chen", "Bob Stone"}, art.Metadata.Participants)
}

func TestParse_DefaultsToDocument(t *testing.T) {
	payload := []byte("This quarter's product update summarizes our progress across three initiatives.\n")
	art, err := New().Parse(context.Background(), "exports/general/product-update.txt", "hash4", payload)
	require.NoError(t, err)
	assert.Equal(t, types.SourceKindDocument, art.Kind)
}

func TestParse_TitleFromFilename(t *testing.T) {
	payload := []byte("some content")
	art, err := New().Parse(context.Background(), "exports/general/Q1_Budget-Review.txt", "hash5", payload)
	require.NoError(t, err)
	assert.Equal(t, "Q1 Budget Review", art.Title)
}

func TestParse_EffectiveDateFromFilename(t *testing.T) {
	payload := []byte("some content")
	art, err := New().Parse(context.Background(), "exports/general/2023-11-05-retro.txt", "hash6", payload)
	require.NoError(t, err)
	assert.Equal(t, 2023, art.EffectiveDate.Year())
	assert.Equal(t, 11, int(art.EffectiveDate.Month()))
	assert.Equal(t, 5, art.EffectiveDate.Day())
}

func TestParse_EffectiveDateFallsBackToContentTimestamp(t *testing.T) {
	payload := []byte("2022-07-19 08:00 Alice: morning!\n")
	art, err := New().Parse(context.Background(), "exports/general/dm.txt", "hash7", payload)
	require.NoError(t, err)
	assert.Equal(t, 2022, art.EffectiveDate.Year())
	assert.Equal(t, 7, int(art.EffectiveDate.Month()))
	assert.Equal(t, 19, art.EffectiveDate.Day())
}

func TestParse_RejectsInvalidUTF8(t *testing.T) {
	payload := []byte{0xff, 0xfe, 0xfd}
	_, err := New().Parse(context.Background(), "exports/general/bad.txt", "hash8", payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrBadSource))
}

func TestParse_NormalizesCRLFAndTrailingWhitespace(t *testing.T) {
	payload := []byte("line one   \r\nline two\t\r\n")
	art, err := New().Parse(context.Background(), "exports/general/notes.txt", "hash9", payload)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", art.Text)
}

func TestParse_CategoryDefaultsToGeneralWithoutDirectory(t *testing.T) {
	payload := []byte("some content")
	art, err := New().Parse(context.Background(), "standalone.txt", "hash10", payload)
	require.NoError(t, err)
	assert.Equal(t, "general", art.Metadata.Category)
}

func TestParse_Deterministic(t *testing.T) {
	payload := []byte("Alice Chen: hello\nBob Stone: hi there\n")
	a, err := New().Parse(context.Background(), "exports/general/notes.txt", "hash11", payload)
	require.NoError(t, err)
	b, err := New().Parse(context.Background(), "exports/general/notes.txt", "hash11", payload)
	require.NoError(t, err)
	assert.Equal(t, a.Kind, b.Kind)
	assert.Equal(t, a.Title, b.Title)
	assert.Equal(t, a.Metadata.Participants, b.Metadata.Participants)
}
