package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentPermission grants capabilities to either a user or a group, never both.
type DocumentPermission struct {
	ID          uint                            `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID  uint                            `gorm:"not null;index" json:"document_id"`
	UserID      *uint                           `gorm:"index" json:"user_id"`
	UserGroup   *string                         `gorm:"type:varchar(100);index" json:"user_group"`
	Permissions datatypes.JSONSlice[Capability] `json:"permissions"`
	CreatedAt   time.Time                       `json:"created_at"`
}
