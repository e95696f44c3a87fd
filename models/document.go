package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one version row. Versions of the same document share a lineage:
// the first version has LineageID 0, later versions carry the first version's ID.
type Document struct {
	ID               uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string                      `gorm:"type:varchar(255);not null;index" json:"name"`
	OriginalName     string                      `gorm:"type:varchar(255);not null" json:"original_name"`
	FolderID         *uint                       `gorm:"index" json:"folder_id"`
	FileType         string                      `gorm:"type:varchar(32);index" json:"file_type"`
	FileSize         int64                       `gorm:"not null;default:0" json:"file_size"`
	FilePath         string                      `gorm:"type:varchar(1000);not null" json:"file_path"`
	MimeType         string                      `gorm:"type:varchar(100)" json:"mime_type"`
	ThumbnailPath    string                      `gorm:"type:varchar(1000)" json:"thumbnail_path"`
	Status           DocumentStatus              `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	Description      string                      `gorm:"type:text" json:"description"`
	Version          int                         `gorm:"not null;default:1" json:"version"`
	IsLatestVersion  bool                        `gorm:"not null;default:true;index" json:"is_latest_version"`
	ParentDocumentID *uint                       `gorm:"index" json:"parent_document_id"`
	LineageID        uint                        `gorm:"not null;default:0;index" json:"lineage_id"`
	ExpirationDate   *time.Time                  `gorm:"index" json:"expiration_date"`
	CreatedBy        uint                        `gorm:"not null;index" json:"created_by"`
	CreatedAt        time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`

	Creator *User   `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Folder  *Folder `gorm:"foreignKey:FolderID" json:"folder,omitempty"`
}

// LineageRootID returns the ID of the first version of this document.
func (d Document) LineageRootID() uint {
	if d.LineageID == 0 {
		return d.ID
	}
	return d.LineageID
}
