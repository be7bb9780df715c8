package types

import "time"

// WhitelistEntry gates access for one normalized E.164 identity.
type WhitelistEntry struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Identity    string    `json:"identity" gorm:"uniqueIndex"`
	Active      bool      `json:"active"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName pins the GORM table name.
func (WhitelistEntry) TableName() string { return "whitelist_entries" }
