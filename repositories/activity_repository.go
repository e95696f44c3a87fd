package repositories

import (
	"context"

	"docshelf/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormActivityRepository struct {
	db *gorm.DB
}

func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	return useTx(ctx, r.db, tx).Omit(clause.Associations).Create(entry).Error
}

func (r *GormActivityRepository) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := useTx(ctx, r.db, tx).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
