package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/ingestion/chunker"
	"github.com/wk-archive/meetingmind/internal/types"
)

type fakeParser struct {
	artifact types.NormalizedArtifact
	err      error
}

func (f fakeParser) Parse(context.Context, string, string, []byte) (types.NormalizedArtifact, error) {
	return f.artifact, f.err
}

type fakeExtractor struct {
	result types.ExtractionResult
	err    error
}

func (f fakeExtractor) Extract(context.Context, string, []types.Chunk) (types.ExtractionResult, error) {
	return f.result, f.err
}

type fakeGraph struct {
	failUpsertSource bool
	sources          []types.Source
}

func (f *fakeGraph) UpsertSource(_ context.Context, s types.Source) error {
	if f.failUpsertSource {
		return assert.AnError
	}
	f.sources = append(f.sources, s)
	return nil
}
func (f *fakeGraph) UpsertChunks(context.Context, string, []types.Chunk) error         { return nil }
func (f *fakeGraph) UpsertEntities(context.Context, []types.Entity, time.Time) error   { return nil }
func (f *fakeGraph) UpsertDecisions(context.Context, []types.Decision) error           { return nil }
func (f *fakeGraph) UpsertActions(context.Context, []types.Action) error               { return nil }
func (f *fakeGraph) LinkMentions(context.Context, map[string][]string) error           { return nil }
func (f *fakeGraph) ExecuteCypher(context.Context, string, map[string]any) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeGraph) Ping(context.Context) error  { return nil }
func (f *fakeGraph) Close(context.Context) error { return nil }

type fakeRelational struct {
	fail bool
}

func (f *fakeRelational) UpsertSource(context.Context, types.Source) error       { return boolErr(f.fail) }
func (f *fakeRelational) UpsertChunks(context.Context, []types.Chunk) error      { return boolErr(f.fail) }
func (f *fakeRelational) UpsertEntities(context.Context, []types.Entity, time.Time) error { return boolErr(f.fail) }
func (f *fakeRelational) UpsertDecisions(context.Context, []types.Decision) error { return boolErr(f.fail) }
func (f *fakeRelational) UpsertActions(context.Context, []types.Action) error    { return boolErr(f.fail) }
func (f *fakeRelational) SearchByVector(context.Context, []float32, int, types.ConfidentialityLevel) ([]types.Chunk, error) {
	return nil, nil
}
func (f *fakeRelational) ExecuteReadOnlySQL(context.Context, string, ...any) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeRelational) Ping(context.Context) error { return nil }
func (f *fakeRelational) Close() error               { return nil }

func boolErr(fail bool) error {
	if fail {
		return assert.AnError
	}
	return nil
}

func baseDeps() Deps {
	return Deps{
		Parser: fakeParser{artifact: types.NormalizedArtifact{
			Kind: types.SourceKindDocument,
			Title: "Quarterly Planning Notes",
			Text:  "We discussed the roadmap for next quarter in detail.",
			EffectiveDate: time.Now(),
		}},
		Chunker:   chunker.New(chunker.Config{}),
		Extractor: fakeExtractor{},
	}
}

func TestRun_SucceedsWhenBothWritersSucceed(t *testing.T) {
	deps := baseDeps()
	deps.Graph = &fakeGraph{}
	deps.Relational = &fakeRelational{}
	p := New(deps)

	result, err := p.Run(context.Background(), "file-1", "abcd1234", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	assert.Empty(t, result.Warning)
}

func TestRun_PartialSuccessWhenOnlyOneWriterSucceeds(t *testing.T) {
	deps := baseDeps()
	deps.Graph = &fakeGraph{failUpsertSource: true}
	deps.Relational = &fakeRelational{}
	p := New(deps)

	result, err := p.Run(context.Background(), "file-2", "ef567890", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, result.Outcome)
	assert.NotEmpty(t, result.Warning)
}

func TestRun_FailsWhenAllWritersFail(t *testing.T) {
	deps := baseDeps()
	deps.Graph = &fakeGraph{failUpsertSource: true}
	deps.Relational = &fakeRelational{fail: true}
	p := New(deps)

	result, err := p.Run(context.Background(), "file-3", "11112222", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
}

// TestRun_DuplicateIngestIsIdempotent is spec.md §8 seed scenario 6: running
// the same source twice produces the same source id and the same terminal
// outcome both times, with no new writer failures introduced by the rerun.
func TestRun_DuplicateIngestIsIdempotent(t *testing.T) {
	deps := baseDeps()
	deps.Graph = &fakeGraph{}
	deps.Relational = &fakeRelational{}
	p := New(deps)

	first, err := p.Run(context.Background(), "file-5", "55556666", []byte("payload"))
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "file-5", "55556666", []byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, first.SourceID, second.SourceID)
	assert.Equal(t, OutcomeSucceeded, first.Outcome)
	assert.Equal(t, OutcomeSucceeded, second.Outcome)
}

func TestRun_ParseFailureIsFailed(t *testing.T) {
	deps := baseDeps()
	deps.Parser = fakeParser{err: assert.AnError}
	deps.Graph = &fakeGraph{}
	p := New(deps)

	_, err := p.Run(context.Background(), "file-4", "33334444", []byte("payload"))
	require.Error(t, err)
}
