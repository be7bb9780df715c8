// Package extractor calls an LLM with a structured extraction prompt and
// parses entities, decisions, and actions out of its JSON response
// (spec.md §4.2).
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

const systemPrompt = `You extract structured facts from meeting and document transcripts.
Return strict JSON matching the schema. Only report entities, decisions, and
actions that are textually present in the supplied text. Casual filler such
as weather or personal chitchat is never an entity. Never invent a name that
does not appear in the text.`

// rawExtraction mirrors the JSON the model is asked to emit.
type rawExtraction struct {
	Entities []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"entities"`
	Decisions []struct {
		Description string `json:"description"`
		Rationale   string `json:"rationale"`
	} `json:"decisions"`
	Actions []struct {
		Description string `json:"description"`
		Owner       string `json:"owner"`
		Priority    string `json:"priority"`
	} `json:"actions"`
	Mentions map[string][]string `json:"mentions"`
}

// Config bounds retry behavior.
type Config struct {
	MaxRetries   int
	BackoffBase  time.Duration
	TokenBudget  int
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = 2 * time.Second
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = 6000
	}
	return c
}

// Extractor drives the LLM-backed extraction step.
type Extractor struct {
	chat interfaces.ChatModel
	cfg  Config
}

// New builds an Extractor backed by the given chat model.
func New(chat interfaces.ChatModel, cfg Config) *Extractor {
	return &Extractor{chat: chat, cfg: cfg.withDefaults()}
}

// Extract packs chunks greedily into a token-budgeted window and asks the
// model for entities/decisions/actions. On repeated parse failure it
// returns an empty result rather than an error: the pipeline still
// considers the source ingested (spec.md §4.7's zero-entity policy).
func (e *Extractor) Extract(ctx context.Context, sourceID string, chunks []types.Chunk) (types.ExtractionResult, error) {
	windows := packWindows(chunks, e.cfg.TokenBudget)

	result := types.ExtractionResult{Mentions: map[string][]string{}}
	for _, win := range windows {
		winResult, err := e.extractWindow(ctx, win)
		if err != nil {
			logger.GetLogger(ctx).Warnf("extraction window for source %s degraded to empty after retries: %v", sourceID, err)
			continue
		}
		result.Entities = append(result.Entities, winResult.Entities...)
		result.Decisions = append(result.Decisions, winResult.Decisions...)
		result.Actions = append(result.Actions, winResult.Actions...)
		for chunkID, keys := range winResult.Mentions {
			result.Mentions[chunkID] = append(result.Mentions[chunkID], keys...)
		}
	}
	result.Entities = dedupeEntities(result.Entities)
	return result, nil
}

type chunkWindow struct {
	chunks []types.Chunk
	text   string
}

func packWindows(chunks []types.Chunk, tokenBudget int) []chunkWindow {
	charBudget := tokenBudget * 4
	var windows []chunkWindow
	var cur chunkWindow
	var curLen int
	for _, c := range chunks {
		if curLen > 0 && curLen+len(c.Text) > charBudget {
			windows = append(windows, cur)
			cur = chunkWindow{}
			curLen = 0
		}
		cur.chunks = append(cur.chunks, c)
		curLen += len(c.Text)
	}
	if len(cur.chunks) > 0 {
		windows = append(windows, cur)
	}
	for i := range windows {
		var b strings.Builder
		for _, c := range windows[i].chunks {
			fmt.Fprintf(&b, "[%s] %s\n", c.ID, c.Text)
		}
		windows[i].text = b.String()
	}
	return windows
}

func (e *Extractor) extractWindow(ctx context.Context, win chunkWindow) (types.ExtractionResult, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := jitter(e.cfg.BackoffBase * time.Duration(1<<uint(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return types.ExtractionResult{}, ctx.Err()
			}
		}

		resp, err := e.chat.Chat(ctx, []interfaces.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: win.text},
		}, nil)
		if err != nil {
			lastErr = err
			continue
		}

		parsed, err := parseAndVerify(resp.Content, win)
		if err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}
	return types.ExtractionResult{}, lastErr
}

func jitter(base time.Duration) time.Duration {
	delta := float64(base) * 0.25
	offset := (rand.Float64()*2 - 1) * delta
	return base + time.Duration(offset)
}

// parseAndVerify parses the model's JSON response and drops any entity
// whose name does not occur verbatim (case-insensitive) in the originating
// chunk window text, per spec.md §4.2's anti-hallucination check.
func parseAndVerify(content string, win chunkWindow) (types.ExtractionResult, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return types.ExtractionResult{}, fmt.Errorf("parse extraction response: %w", err)
	}

	lowerText := strings.ToLower(win.text)
	result := types.ExtractionResult{Mentions: map[string][]string{}}
	for _, e := range raw.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" || !strings.Contains(lowerText, strings.ToLower(name)) {
			continue
		}
		entType := types.EntityType(e.Type)
		result.Entities = append(result.Entities, types.Entity{
			ID:             types.EntityID(name, entType),
			NormalizedName: types.NormalizeEntityName(name),
			CanonicalName:  name,
			Type:           entType,
			MentionCount:   1,
		})
	}
	for _, d := range raw.Decisions {
		result.Decisions = append(result.Decisions, types.Decision{Description: d.Description, Rationale: d.Rationale})
	}
	for _, a := range raw.Actions {
		result.Actions = append(result.Actions, types.Action{Description: a.Description, OwnerEntityID: a.Owner, Priority: a.Priority})
	}
	for chunkID, keys := range raw.Mentions {
		result.Mentions[chunkID] = keys
	}
	return result, nil
}

// extractJSON strips a leading/trailing code fence if the model wrapped its
// JSON in one despite instructions not to.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	return strings.TrimSpace(trimmed)
}

func dedupeEntities(entities []types.Entity) []types.Entity {
	seen := make(map[string]bool, len(entities))
	out := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
