// Package types holds the data model shared across ingestion, storage, and
// query-serving: Source, Chunk, Entity, Decision, Action, Participant,
// ProcessedFileRecord, WhitelistEntry, and TelemetryEvent, per §3 of the
// specification.
package types

import "time"

// SourceKind classifies the kind of artifact a Source was ingested from.
type SourceKind string

const (
	SourceKindMeeting  SourceKind = "Meeting"
	SourceKindDocument SourceKind = "Document"
	SourceKindChat     SourceKind = "Chat"
)

// ConfidentialityLevel classifies how sensitive a Source's content is.
type ConfidentialityLevel string

const (
	ConfidentialityPublic       ConfidentialityLevel = "PUBLIC"
	ConfidentialityInternal     ConfidentialityLevel = "INTERNAL"
	ConfidentialityConfidential ConfidentialityLevel = "CONFIDENTIAL"
	ConfidentialityRestricted   ConfidentialityLevel = "RESTRICTED"
)

// DocumentStatus classifies a Source's lifecycle stage.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "DRAFT"
	DocumentStatusFinal    DocumentStatus = "FINAL"
	DocumentStatusArchived DocumentStatus = "ARCHIVED"
)

// Source is a single logical artifact: a meeting transcript, a document, or
// a chat export. Immutable after first successful ingest except for
// confidentiality metadata, which may be re-classified.
type Source struct {
	ID                 string                `json:"id" gorm:"primaryKey"`
	ExternalFileID     string                `json:"external_file_id" gorm:"index"`
	ContentHash        string                `json:"content_hash"`
	Kind               SourceKind            `json:"kind"`
	Title              string                `json:"title"`
	EffectiveDate      time.Time             `json:"effective_date"`
	RawPayload         []byte                `json:"-" gorm:"type:bytea"`
	RawPayloadPurgedAt *time.Time            `json:"raw_payload_purged_at,omitempty"`
	ConfidentialityLevel ConfidentialityLevel `json:"confidentiality_level"`
	DocumentStatus     DocumentStatus        `json:"document_status"`
	Tags               []string              `json:"tags" gorm:"serializer:json"`
	CreatedAt          time.Time             `json:"created_at"`
	LastSeen           time.Time             `json:"last_seen"`
}

// TableName pins the GORM table name to the name used throughout the
// relational schema and migrations.
func (Source) TableName() string { return "sources" }
