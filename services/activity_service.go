package services

import (
	"context"
	"net/http"

	"docshelf/models"
	"docshelf/repositories"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreateFolder       = "create_folder"
	ActionUpdateFolder       = "update_folder"
	ActionDeleteFolder       = "delete_folder"
	ActionUploadDocument     = "upload_document"
	ActionCreateVersion      = "create_version"
	ActionUpdateDocument     = "update_document"
	ActionDeleteDocument     = "delete_document"
	ActionDownloadDocument   = "download_document"
	ActionFavoriteDocument   = "favorite_document"
	ActionUnfavoriteDocument = "unfavorite_document"
	ActionCreateShare        = "create_share"
	ActionRevokeShare        = "revoke_share"
	ActionRedeemShare        = "redeem_share"
	ActionGrantPermission    = "grant_permission"
	ActionRevokePermission   = "revoke_permission"
)

const (
	ResourceFolder     = "folder"
	ResourceDocument   = "document"
	ResourceShare      = "share"
	ResourcePermission = "permission"
)

type ActivityEntry struct {
	UserID       uint
	Action       string
	ResourceType string
	ResourceID   uint
	Metadata     map[string]interface{}
}

type ActivityService interface {
	// LogActivity appends an entry using tx when given, so it commits with the caller's change.
	LogActivity(ctx context.Context, tx *gorm.DB, entry ActivityEntry) error
	GetRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type activityService struct {
	activities repositories.ActivityRepository
}

func NewActivityService(activities repositories.ActivityRepository) ActivityService {
	return &activityService{activities: activities}
}

func (s *activityService) LogActivity(ctx context.Context, tx *gorm.DB, entry ActivityEntry) error {
	metadata := datatypes.JSONMap{}
	for k, v := range entry.Metadata {
		metadata[k] = v
	}
	row := models.ActivityLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Metadata:     metadata,
	}
	return s.activities.Create(ctx, tx, &row)
}

func (s *activityService) GetRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	cfg := appConfig().Activity
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}

	entries, err := s.activities.ListRecent(ctx, nil, limit)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to load activity", err)
	}
	return entries, nil
}
