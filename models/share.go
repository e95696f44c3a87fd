package models

import "time"

type DocumentShare struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID   uint       `gorm:"not null;index" json:"document_id"`
	ShareToken   string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"share_token"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at"`
	MaxViews     *int       `json:"max_views"`
	CurrentViews int        `gorm:"not null;default:0" json:"current_views"`
	CreatedBy    uint       `gorm:"not null;index" json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (s DocumentShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

func (s DocumentShare) Exhausted() bool {
	return s.MaxViews != nil && s.CurrentViews >= *s.MaxViews
}
