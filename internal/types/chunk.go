package types

// ChunkKind classifies the lexical role of a Chunk's text.
type ChunkKind string

const (
	ChunkKindDiscussion  ChunkKind = "discussion"
	ChunkKindDecision    ChunkKind = "decision"
	ChunkKindAction      ChunkKind = "action"
	ChunkKindAssessment  ChunkKind = "assessment"
	ChunkKindQuestion    ChunkKind = "question"
	ChunkKindConversation ChunkKind = "conversation"
)

// Chunk is a contiguous, ordered fragment of a Source: the only unit
// against which free-text and vector search run.
type Chunk struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	SourceID       string    `json:"source_id" gorm:"index"`
	SequenceNumber int       `json:"sequence_number"`
	Speakers       []string  `json:"speakers" gorm:"serializer:json"`
	StartTimestamp *int64    `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64    `json:"end_timestamp,omitempty"`
	Kind           ChunkKind `json:"kind"`
	Text           string    `json:"text"`
	ImportanceScore float64  `json:"importance_score"`
	Embedding      []float32 `json:"embedding,omitempty" gorm:"-"`
}

// TableName pins the GORM table name.
func (Chunk) TableName() string { return "chunks" }

// NextSequence reports whether other is the chunk whose sequence number is
// one more than c's, i.e. whether a NEXT edge c -> other should exist.
func (c Chunk) NextSequence(other Chunk) bool {
	return other.SourceID == c.SourceID && other.SequenceNumber == c.SequenceNumber+1
}
