package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog rows are append-only.
type ActivityLog struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint              `gorm:"not null;index" json:"user_id"`
	Action       string            `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType string            `gorm:"type:varchar(50);not null" json:"resource_type"`
	ResourceID   uint              `gorm:"not null" json:"resource_id"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
