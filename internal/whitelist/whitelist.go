// Package whitelist implements WhitelistGate: identity-based authorization
// backed by the relational store with a short-lived in-process TTL cache
// (spec.md §4.9, §5).
package whitelist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wk-archive/meetingmind/internal/common"
	"github.com/wk-archive/meetingmind/internal/phone"
	"github.com/wk-archive/meetingmind/internal/security"
	"github.com/wk-archive/meetingmind/internal/telemetry"
	"github.com/wk-archive/meetingmind/internal/types"
)

// Lookup is the subset of the relational store the gate needs.
type Lookup interface {
	IsActiveWhitelistEntry(ctx context.Context, identity string) (bool, error)
}

// Config controls cache freshness and the bypass flag.
type Config struct {
	CacheTTL time.Duration
	Disabled bool
}

func (c Config) withDefaults() Config {
	if c.CacheTTL == 0 {
		c.CacheTTL = 60 * time.Second
	}
	return c
}

type cacheEntry struct {
	authorized bool
	expiresAt  time.Time
}

// Gate implements IsAuthorized(identity) -> bool (spec.md §4.9).
type Gate struct {
	cfg       Config
	lookup    Lookup
	cache     sync.Map // identity -> cacheEntry
	telemetry *telemetry.Log
}

// New builds a Gate.
func New(lookup Lookup, cfg Config) *Gate {
	return &Gate{cfg: cfg.withDefaults(), lookup: lookup}
}

// WithTelemetry attaches the sink IsAuthorized records denials to, so the
// "WhitelistGate telemetry records a denial" scenario (spec.md §8) is
// observable. Optional: a nil log (the default) just skips the append.
func (g *Gate) WithTelemetry(log *telemetry.Log) {
	g.telemetry = log
}

// IsAuthorized normalizes identity to E.164, consults the TTL cache, and
// falls back to the relational store on a miss. On store failure it fails
// closed. The configuration's Disabled flag bypasses the check entirely.
func (g *Gate) IsAuthorized(ctx context.Context, identity string) bool {
	if g.cfg.Disabled {
		return true
	}

	normalized := phone.Normalize(identity)
	if normalized == "" {
		return g.deny(ctx, identity, "unparseable identity")
	}

	if v, ok := g.cache.Load(normalized); ok {
		entry := v.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			if !entry.authorized {
				return g.deny(ctx, normalized, "cached denial")
			}
			return true
		}
	}

	authorized, err := g.lookup.IsActiveWhitelistEntry(ctx, normalized)
	if err != nil {
		common.PipelineError(ctx, "whitelist", "lookup_failed", map[string]any{"error": err.Error()})
		return g.deny(ctx, normalized, "lookup failed, failing closed")
	}

	g.cache.Store(normalized, cacheEntry{authorized: authorized, expiresAt: time.Now().Add(g.cfg.CacheTTL)})
	if !authorized {
		return g.deny(ctx, normalized, "no active whitelist entry")
	}
	return true
}

// deny always returns false; it exists so every denial path also records a
// TelemetryEvent, matching spec.md §8 seed scenario 5.
func (g *Gate) deny(ctx context.Context, identity, reason string) bool {
	if g.telemetry != nil {
		payload, _ := json.Marshal(map[string]string{
			"identity": security.SanitizeForLog(identity),
			"reason":   reason,
		})
		if err := g.telemetry.Append(types.TelemetryEvent{
			Event:   types.EventWhitelistDenied,
			Outcome: types.OutcomeFailure,
			Payload: payload,
		}); err != nil {
			common.PipelineError(ctx, "whitelist", "telemetry_append_failed", map[string]any{"error": err.Error()})
		}
	}
	return false
}
