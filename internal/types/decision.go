package types

import "time"

// DecisionStatus tracks a Decision's lifecycle.
type DecisionStatus string

const (
	DecisionStatusProposed    DecisionStatus = "Proposed"
	DecisionStatusApproved    DecisionStatus = "Approved"
	DecisionStatusImplemented DecisionStatus = "Implemented"
	DecisionStatusReversed    DecisionStatus = "Reversed"
)

// Decision is a recorded choice extracted from one or more Chunks.
type Decision struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Description   string         `json:"description"`
	Rationale     string         `json:"rationale"`
	DateMade      time.Time      `json:"date_made"`
	Status        DecisionStatus `json:"status"`
	SourceChunkIDs []string      `json:"source_chunk_ids" gorm:"serializer:json"`
}

// TableName pins the GORM table name.
func (Decision) TableName() string { return "decisions" }
