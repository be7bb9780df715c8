package types

// Participant is a Chat-source-only node: PARTICIPATES_IN Source.
type Participant struct {
	ID           string `json:"id" gorm:"primaryKey"`
	SourceID     string `json:"source_id" gorm:"index"`
	DisplayHandle string `json:"display_handle"`
	MessageCount int    `json:"message_count"`
}

// TableName pins the GORM table name.
func (Participant) TableName() string { return "participants" }
