// Package chunker splits a NormalizedArtifact into ordered Chunk records
// (spec.md §4.1).
package chunker

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/types"
)

// Config bounds chunk sizing. Zero values mean "use the package defaults".
type Config struct {
	TargetMin     int
	TargetMax     int
	HardCeiling   int
	ChatWindowSec int64
	ChatMaxMsgs   int
}

func (c Config) withDefaults() Config {
	if c.TargetMin == 0 {
		c.TargetMin = 500
	}
	if c.TargetMax == 0 {
		c.TargetMax = 1500
	}
	if c.HardCeiling == 0 {
		c.HardCeiling = 2000
	}
	if c.ChatWindowSec == 0 {
		c.ChatWindowSec = 15 * 60
	}
	if c.ChatMaxMsgs == 0 {
		c.ChatMaxMsgs = 20
	}
	return c
}

// Chunker turns normalized source text into ordered Chunk records.
type Chunker struct {
	cfg Config
}

// New builds a Chunker with the given size bounds.
func New(cfg Config) *Chunker {
	return &Chunker{cfg: cfg.withDefaults()}
}

var (
	decisionMarker = regexp.MustCompile(`(?i)^\s*decision\s*:`)
	actionMarker   = regexp.MustCompile(`(?i)^\s*action\s*:`)
	speakerLine    = regexp.MustCompile(`^([A-Za-z][\w .'-]{0,40}):\s?(.*)$`)
	sentenceEnd    = regexp.MustCompile(`[.!?][\s"')\]]*\z`)
	emphasisMarker = regexp.MustCompile(`[A-Z]{4,}|!{2,}`)

	// chatLineTimestamp mirrors parser.timestampLinePattern, applied per
	// line instead of (?m)-scanned across the whole artifact, so segmentChat
	// can recover the per-message timestamp the parser already sniffs for.
	chatLineTimestamp = regexp.MustCompile(`^\s*\[?(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(:\d{2})?)\]?\s*`)
)

// timestampLayouts are the formats chatLineTimestamp's capture group may
// match, same set parser.deriveEffectiveDate tries.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Chunk splits a normalized artifact into ordered Chunk records for the
// given source. Fails only on malformed encoding; otherwise always produces
// at least one chunk.
func (c *Chunker) Chunk(sourceID string, artifact types.NormalizedArtifact, leaderNames map[string]bool) ([]types.Chunk, error) {
	if !isValidUTF8(artifact.Text) {
		return nil, fmt.Errorf("%w: artifact text is not valid UTF-8", apperr.ErrBadSource)
	}

	var segments []segment
	switch artifact.Kind {
	case types.SourceKindChat:
		segments = c.segmentChat(artifact.Text)
	default:
		segments = c.segmentProse(artifact.Text)
	}
	if len(segments) == 0 {
		segments = []segment{{text: strings.TrimSpace(artifact.Text)}}
	}

	chunks := make([]types.Chunk, 0, len(segments))
	for i, seg := range segments {
		text := strings.TrimSpace(seg.text)
		if text == "" {
			continue
		}
		kind := deriveKind(text, artifact.Kind)
		score := importanceScore(text, seg.speakers, leaderNames)
		chunks = append(chunks, types.Chunk{
			ID:              chunkID(sourceID, len(chunks), text),
			SourceID:        sourceID,
			SequenceNumber:  len(chunks),
			Speakers:        seg.speakers,
			StartTimestamp:  seg.start,
			EndTimestamp:    seg.end,
			Kind:            kind,
			Text:            text,
			ImportanceScore: score,
		})
		_ = i
	}
	if len(chunks) == 0 {
		chunks = append(chunks, types.Chunk{
			ID:             chunkID(sourceID, 0, ""),
			SourceID:       sourceID,
			SequenceNumber: 0,
			Kind:           deriveKind("", artifact.Kind),
			Text:           "",
		})
	}
	return chunks, nil
}

type segment struct {
	text     string
	speakers []string
	start    *int64
	end      *int64
}

// segmentProse groups paragraphs/sentences up to TargetMax, falling back to
// sentence and then word-boundary splitting once a unit exceeds HardCeiling.
func (c *Chunker) segmentProse(text string) []segment {
	paragraphs := splitParagraphs(text)
	var out []segment
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, segment{text: cur.String()})
			cur.Reset()
		}
	}

	for _, p := range paragraphs {
		for _, piece := range c.splitOversized(p) {
			if cur.Len() > 0 && cur.Len()+len(piece) > c.cfg.TargetMax {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(piece)
			if cur.Len() >= c.cfg.TargetMin && cur.Len() >= c.cfg.TargetMax {
				flush()
			}
		}
	}
	flush()
	return out
}

// splitOversized breaks a single paragraph at sentence boundaries, then at
// word boundaries, whenever it alone exceeds the hard ceiling.
func (c *Chunker) splitOversized(p string) []string {
	if len(p) <= c.cfg.HardCeiling {
		return []string{p}
	}
	sentences := splitSentences(p)
	var out []string
	var cur strings.Builder
	for _, s := range sentences {
		if len(s) > c.cfg.HardCeiling {
			out = append(out, splitAtWordBoundary(s, c.cfg.HardCeiling)...)
			continue
		}
		if cur.Len()+len(s) > c.cfg.HardCeiling {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// segmentChat groups timestamp/speaker-prefixed lines into windows bounded
// by both a time span and a message count, whichever is tighter.
func (c *Chunker) segmentChat(text string) []segment {
	lines := strings.Split(text, "\n")
	var out []segment
	var curLines []string
	var curSpeakers = map[string]bool{}
	var windowStart, lastTS *int64
	msgCount := 0

	flush := func() {
		if len(curLines) == 0 {
			return
		}
		speakers := make([]string, 0, len(curSpeakers))
		for s := range curSpeakers {
			speakers = append(speakers, s)
		}
		out = append(out, segment{
			text:     strings.Join(curLines, "\n"),
			speakers: speakers,
			start:    windowStart,
			end:      lastTS,
		})
		curLines = nil
		curSpeakers = map[string]bool{}
		windowStart, lastTS = nil, nil
		msgCount = 0
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ts, speaker := parseChatLine(line)
		startOverflow := windowStart != nil && ts != nil && *ts-*windowStart > c.cfg.ChatWindowSec
		countOverflow := msgCount >= c.cfg.ChatMaxMsgs
		sizeOverflow := len(strings.Join(curLines, "\n"))+len(line) > c.cfg.HardCeiling
		if startOverflow || countOverflow || sizeOverflow {
			flush()
		}
		if windowStart == nil {
			windowStart = ts
		}
		if ts != nil {
			lastTS = ts
		}
		if speaker != "" {
			curSpeakers[speaker] = true
		}
		curLines = append(curLines, line)
		msgCount++
	}
	flush()
	return out
}

// parseChatLine recovers the optional leading timestamp and the speaker
// name from one chat line, e.g. "[2024-03-01 09:05:00] Alice: on my way".
func parseChatLine(line string) (*int64, string) {
	rest := line
	var ts *int64
	if loc := chatLineTimestamp.FindStringSubmatchIndex(line); loc != nil {
		stamp := line[loc[2]:loc[3]]
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, stamp); err == nil {
				unix := t.Unix()
				ts = &unix
				break
			}
		}
		rest = line[loc[1]:]
	}

	m := speakerLine.FindStringSubmatch(rest)
	if m == nil {
		return ts, ""
	}
	return ts, strings.TrimSpace(m[1])
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitSentences(p string) []string {
	var out []string
	start := 0
	runes := []rune(p)
	for i, r := range runes {
		if (r == '.' || r == '!' || r == '?') && sentenceEnd.MatchString(string(runes[max0(i-3, 0):min(i+3, len(runes))])) {
			out = append(out, strings.TrimSpace(string(runes[start:i+1])))
			start = i + 1
		}
	}
	if start < len(runes) {
		rest := strings.TrimSpace(string(runes[start:]))
		if rest != "" {
			out = append(out, rest)
		}
	}
	if len(out) == 0 {
		return []string{p}
	}
	return out
}

func splitAtWordBoundary(s string, limit int) []string {
	var out []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !unicode.IsSpace(rune(s[cut])) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		out = append(out, strings.TrimSpace(s[:cut]))
		s = s[cut:]
	}
	if strings.TrimSpace(s) != "" {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func deriveKind(text string, sourceKind types.SourceKind) types.ChunkKind {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}
	switch {
	case decisionMarker.MatchString(firstLine):
		return types.ChunkKindDecision
	case actionMarker.MatchString(firstLine):
		return types.ChunkKindAction
	}
	if sourceKind == types.SourceKindChat {
		return types.ChunkKindConversation
	}
	return types.ChunkKindDiscussion
}

func importanceScore(text string, speakers []string, leaderNames map[string]bool) float64 {
	var score float64
	if decisionMarker.MatchString(text) {
		score += 0.4
	}
	if actionMarker.MatchString(text) {
		score += 0.3
	}
	for _, s := range speakers {
		if leaderNames[strings.ToLower(s)] {
			score += 0.2
			break
		}
	}
	if emphasisMarker.MatchString(text) {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func chunkID(sourceID string, sequenceNumber int, text string) string {
	textHash := sha256.Sum256([]byte(text))
	buf := make([]byte, 0, len(sourceID)+8+len(textHash))
	buf = append(buf, sourceID...)
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, uint64(sequenceNumber))
	buf = append(buf, seqBytes...)
	buf = append(buf, textHash[:]...)
	full := sha256.Sum256(buf)
	return hex.EncodeToString(full[:])[:16]
}

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

func max0(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
