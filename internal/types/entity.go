package types

import (
	"regexp"
	"strings"
	"time"
)

// EntityType classifies the kind of mention target an Entity represents.
type EntityType string

const (
	EntityTypePerson       EntityType = "Person"
	EntityTypeOrganization EntityType = "Organization"
	EntityTypeCountry      EntityType = "Country"
	EntityTypeTopic        EntityType = "Topic"
	EntityTypeProject      EntityType = "Project"
)

// Entity is a canonical mention target, deduplicated across sources by
// (normalized_name, type).
type Entity struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	NormalizedName string     `json:"normalized_name" gorm:"index"`
	CanonicalName  string     `json:"canonical_name"`
	Type           EntityType `json:"type"`
	FirstMentioned time.Time  `json:"first_mentioned"`
	LastMentioned  time.Time  `json:"last_mentioned"`
	MentionCount   int        `json:"mention_count"`
}

// TableName pins the GORM table name.
func (Entity) TableName() string { return "entities" }

var normalizeWhitespace = regexp.MustCompile(`\s+`)
var normalizePunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// NormalizeEntityName lowercases, strips punctuation, and collapses
// consecutive whitespace, producing the merge key used by EntityExtractor
// and GraphWriter/RelationalWriter alike (spec.md §4.2, §3 invariant 3).
func NormalizeEntityName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	stripped := normalizePunctuation.ReplaceAllString(lowered, "")
	return strings.TrimSpace(normalizeWhitespace.ReplaceAllString(stripped, " "))
}

// EntityID derives the deterministic merge-key id for an entity from its
// normalized name and type, per §3's "Entity ids at most once per
// (normalized_name, type)" invariant.
func EntityID(name string, kind EntityType) string {
	return string(kind) + ":" + NormalizeEntityName(name)
}
