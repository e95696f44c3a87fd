package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FolderPermissions maps a principal (user id or group name) to its capabilities.
type FolderPermissions map[string][]Capability

type Folder struct {
	ID          uint                                  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string                                `gorm:"type:varchar(255);not null;uniqueIndex:idx_folders_sibling_name,priority:2" json:"name"`
	ParentID    *uint                                 `gorm:"index" json:"parent_id"`
	ParentKey   uint                                  `gorm:"not null;default:0;uniqueIndex:idx_folders_sibling_name,priority:1" json:"-"`
	Path        string                                `gorm:"type:varchar(1000);not null" json:"path"`
	Type        FolderType                            `gorm:"type:varchar(20);not null;default:standard" json:"type"`
	Permissions datatypes.JSONType[FolderPermissions] `json:"permissions"`
	CreatedBy   uint                                  `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

// FolderParentKey is ParentID with roots mapped to 0, so the sibling-name index also covers roots.
func FolderParentKey(parentID *uint) uint {
	if parentID == nil {
		return 0
	}
	return *parentID
}

func (f *Folder) BeforeCreate(*gorm.DB) error {
	f.ParentKey = FolderParentKey(f.ParentID)
	return nil
}
