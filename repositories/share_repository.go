package repositories

import (
	"context"
	"time"

	"docshelf/models"

	"gorm.io/gorm"
)

type GormShareRepository struct {
	db *gorm.DB
}

func NewGormShareRepository(db *gorm.DB) *GormShareRepository {
	return &GormShareRepository{db: db}
}

func (r *GormShareRepository) Create(ctx context.Context, tx *gorm.DB, share *models.DocumentShare) error {
	return useTx(ctx, r.db, tx).Create(share).Error
}

func (r *GormShareRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.DocumentShare, error) {
	var share models.DocumentShare
	err := useTx(ctx, r.db, tx).Where("share_token = ?", token).First(&share).Error
	return share, err
}

func (r *GormShareRepository) GetByID(ctx context.Context, tx *gorm.DB, shareID uint) (models.DocumentShare, error) {
	var share models.DocumentShare
	err := useTx(ctx, r.db, tx).Where("id = ?", shareID).First(&share).Error
	return share, err
}

func (r *GormShareRepository) ListByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) ([]models.DocumentShare, error) {
	if len(documentIDs) == 0 {
		return []models.DocumentShare{}, nil
	}
	var shares []models.DocumentShare
	err := useTx(ctx, r.db, tx).
		Where("document_id IN ?", documentIDs).
		Order("created_at DESC").Order("id DESC").
		Find(&shares).Error
	return shares, err
}

// ConsumeView counts one view in a single statement. Zero rows affected means
// the share has no views left.
func (r *GormShareRepository) ConsumeView(ctx context.Context, tx *gorm.DB, shareID uint) (int64, error) {
	result := useTx(ctx, r.db, tx).Model(&models.DocumentShare{}).
		Where("id = ? AND (max_views IS NULL OR current_views < max_views)", shareID).
		UpdateColumn("current_views", gorm.Expr("current_views + ?", 1))
	return result.RowsAffected, result.Error
}

func (r *GormShareRepository) DeleteByID(ctx context.Context, tx *gorm.DB, shareID uint) error {
	return useTx(ctx, r.db, tx).Where("id = ?", shareID).Delete(&models.DocumentShare{}).Error
}

func (r *GormShareRepository) DeleteByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("document_id IN ?", documentIDs).Delete(&models.DocumentShare{}).Error
}

func (r *GormShareRepository) DeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	result := useTx(ctx, r.db, tx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.DocumentShare{})
	return result.RowsAffected, result.Error
}
