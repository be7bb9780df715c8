package types

import "time"

// NormalizedArtifact is the output of artifact parsing (spec.md §4.7 step 1):
// a Source's kind and metadata plus its normalized, speaker-prefixed (for
// Meeting/Chat) or paragraph (for Document) text, ready for chunking.
type NormalizedArtifact struct {
	ExternalFileID string
	ContentHash    string
	Kind           SourceKind
	Title          string
	EffectiveDate  time.Time
	Text           string
	Metadata       ArtifactMetadata
}

// ArtifactMetadata carries the signals ConfidentialityClassifier consumes,
// plus an optional explicit override that the classifier must never
// downgrade (spec.md §4.4).
type ArtifactMetadata struct {
	Category     string
	Filename     string
	Participants []string
	Override     *ConfidentialityOverride
}

// ConfidentialityOverride lets an upstream caller pin a Source's
// confidentiality level and/or document status, bypassing the heuristic
// classifier for that field.
type ConfidentialityOverride struct {
	Level  *ConfidentialityLevel
	Status *DocumentStatus
}
