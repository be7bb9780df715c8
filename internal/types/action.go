package types

// ActionStatus tracks an Action's lifecycle.
type ActionStatus string

const (
	ActionStatusNotStarted ActionStatus = "NotStarted"
	ActionStatusInProgress ActionStatus = "InProgress"
	ActionStatusBlocked    ActionStatus = "Blocked"
	ActionStatusCompleted  ActionStatus = "Completed"
)

// Action is an assigned task extracted from one or more Chunks.
type Action struct {
	ID            string       `json:"id" gorm:"primaryKey"`
	Description   string       `json:"description"`
	OwnerEntityID string       `json:"owner_entity_id"`
	Priority      string       `json:"priority"`
	Status        ActionStatus `json:"status"`
	SourceChunkIDs []string    `json:"source_chunk_ids" gorm:"serializer:json"`
}

// TableName pins the GORM table name.
func (Action) TableName() string { return "actions" }
