package whitelist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-archive/meetingmind/internal/telemetry"
	"github.com/wk-archive/meetingmind/internal/types"
)

type fakeLookup struct {
	authorized bool
	err        error
	calls      int
}

func (f *fakeLookup) IsActiveWhitelistEntry(context.Context, string) (bool, error) {
	f.calls++
	return f.authorized, f.err
}

func TestIsAuthorized_Disabled(t *testing.T) {
	g := New(&fakeLookup{}, Config{Disabled: true})
	assert.True(t, g.IsAuthorized(context.Background(), "not a real number"))
}

func TestIsAuthorized_CachesResult(t *testing.T) {
	lookup := &fakeLookup{authorized: true}
	g := New(lookup, Config{CacheTTL: time.Minute})

	assert.True(t, g.IsAuthorized(context.Background(), "+1 202 555 0123"))
	assert.True(t, g.IsAuthorized(context.Background(), "12025550123"))
	assert.Equal(t, 1, lookup.calls)
}

func TestIsAuthorized_FailsClosedOnStoreError(t *testing.T) {
	lookup := &fakeLookup{err: assert.AnError}
	g := New(lookup, Config{})
	require.False(t, g.IsAuthorized(context.Background(), "+12025550123"))
}

func TestIsAuthorized_EmptyIdentityRejected(t *testing.T) {
	g := New(&fakeLookup{authorized: true}, Config{})
	assert.False(t, g.IsAuthorized(context.Background(), ""))
}

// TestIsAuthorized_DeniedRecordsTelemetry is spec.md §8 seed scenario 5:
// a sender with no active whitelist entry is denied and the denial is
// observable in the telemetry log, not just the pipeline logger.
func TestIsAuthorized_DeniedRecordsTelemetry(t *testing.T) {
	log, err := telemetry.Open(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	defer log.Close()

	g := New(&fakeLookup{authorized: false}, Config{})
	g.WithTelemetry(log)

	require.False(t, g.IsAuthorized(context.Background(), "+15551234567"))

	stats := log.StatsFor(types.EventWhitelistDenied)
	require.Equal(t, 1, stats.Total)
	assert.Zero(t, stats.SuccessRate)
}
