// Package parser turns a raw object-store payload into a
// types.NormalizedArtifact: Source kind, title, effective date, normalized
// text, and the metadata ConfidentialityClassifier consumes (spec.md
// §4.7 step 1). It is a pure, I/O-free transformation, in the same style
// as internal/ingestion/classifier's deterministic regex-driven rules.
package parser

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/types"
)

// timestampLinePattern matches a line opening with a date/time stamp, the
// signal spec.md §4.7 uses to require "a timestamp-prefixed line pattern
// within the first 1 KB" before a source is sniffed as Chat.
var timestampLinePattern = regexp.MustCompile(`(?m)^\s*\[?(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(:\d{2})?)\]?\s`)

// speakerLinePattern matches a "Name: text" turn, the signal used to
// distinguish Meeting transcripts (and chat messages) from plain prose.
var speakerLinePattern = regexp.MustCompile(`(?m)^([A-Z][\w .'-]{1,40}):\s+\S`)

var meetingFilenamePattern = regexp.MustCompile(`(?i)meeting|standup|sync|transcript|call|retro`)

var filenameDatePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

const sniffWindow = 1024

// Parser implements pipeline.Parser.
type Parser struct{}

// New builds a Parser. It carries no state: every call is a pure function
// of its arguments.
func New() *Parser {
	return &Parser{}
}

// Parse detects the Source kind from the external file id's filename
// component and a content sniff, then normalizes the payload to text.
// Malformed encoding is the only failure mode, surfaced as ErrBadSource
// per spec.md §4.1/§4.7.
func (p *Parser) Parse(_ context.Context, externalFileID, contentHash string, payload []byte) (types.NormalizedArtifact, error) {
	if !utf8.Valid(payload) {
		return types.NormalizedArtifact{}, fmt.Errorf("%w: %s: payload is not valid UTF-8", apperr.ErrBadSource, externalFileID)
	}

	text := normalizeText(string(payload))
	filename := path.Base(externalFileID)
	sniff := text
	if len(sniff) > sniffWindow {
		sniff = sniff[:sniffWindow]
	}

	kind := detectKind(filename, sniff)
	title := deriveTitle(filename, text)
	effectiveDate := deriveEffectiveDate(filename, text)
	participants := deriveParticipants(text)
	category := deriveCategory(externalFileID)

	return types.NormalizedArtifact{
		ExternalFileID: externalFileID,
		ContentHash:    contentHash,
		Kind:           kind,
		Title:          title,
		EffectiveDate:  effectiveDate,
		Text:           text,
		Metadata: types.ArtifactMetadata{
			Category:     category,
			Filename:     filename,
			Participants: participants,
		},
	}, nil
}

// normalizeText collapses CRLF line endings and trims trailing whitespace
// from each line, leaving paragraph and speaker-turn boundaries intact for
// the chunker to split on.
func normalizeText(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// detectKind classifies Meeting/Document/Chat per spec.md §4.7 step 1:
// Chat requires a timestamp-prefixed line within the first 1 KB; Meeting
// is inferred from the filename or from repeated speaker-prefixed lines;
// everything else is a Document.
func detectKind(filename, sniff string) types.SourceKind {
	if timestampLinePattern.MatchString(sniff) {
		return types.SourceKindChat
	}
	if meetingFilenamePattern.MatchString(filename) {
		return types.SourceKindMeeting
	}
	if len(speakerLinePattern.FindAllString(sniff, -1)) >= 2 {
		return types.SourceKindMeeting
	}
	return types.SourceKindDocument
}

// deriveTitle prefers the filename (stem, separators turned to spaces,
// title-cased) over the first line of content, since filenames are the
// more reliable signal for Meeting/Chat exports.
func deriveTitle(filename, text string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.TrimSpace(stem)
	if stem != "" {
		return strings.Title(stem) //nolint:staticcheck // simple ASCII title-casing is sufficient here
	}
	if firstLine, _, ok := strings.Cut(text, "\n"); ok {
		return strings.TrimSpace(firstLine)
	}
	return "Untitled"
}

// deriveEffectiveDate reads a YYYY-MM-DD stamp from the filename first
// (export filenames commonly embed the meeting/document date), falling
// back to the first content timestamp, and finally to the current time.
func deriveEffectiveDate(filename, text string) time.Time {
	if m := filenameDatePattern.FindString(filename); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}
	if m := timestampLinePattern.FindStringSubmatch(text); len(m) > 1 {
		for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return t
			}
		}
	}
	return time.Now().UTC()
}

// deriveParticipants collects the unique set of speaker names found on
// "Name: text" lines, in first-seen order.
func deriveParticipants(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range speakerLinePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// deriveCategory maps filename path segments to the category slugs
// ConfidentialityClassifier's keyword rules expect, defaulting to the
// directory name (if any) or "general".
func deriveCategory(externalFilePath string) string {
	dir := path.Dir(externalFilePath)
	if dir == "." || dir == "/" {
		return "general"
	}
	return path.Base(dir)
}
