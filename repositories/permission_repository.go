package repositories

import (
	"context"

	"docshelf/models"

	"gorm.io/gorm"
)

type GormPermissionRepository struct {
	db *gorm.DB
}

func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	return &GormPermissionRepository{db: db}
}

func (r *GormPermissionRepository) Create(ctx context.Context, tx *gorm.DB, perm *models.DocumentPermission) error {
	return useTx(ctx, r.db, tx).Create(perm).Error
}

func (r *GormPermissionRepository) ListByDocument(ctx context.Context, tx *gorm.DB, documentID uint) ([]models.DocumentPermission, error) {
	var perms []models.DocumentPermission
	err := useTx(ctx, r.db, tx).Where("document_id = ?", documentID).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *GormPermissionRepository) GetByIDAndDocument(ctx context.Context, tx *gorm.DB, permissionID uint, documentID uint) (models.DocumentPermission, error) {
	var perm models.DocumentPermission
	err := useTx(ctx, r.db, tx).Where("id = ? AND document_id = ?", permissionID, documentID).First(&perm).Error
	return perm, err
}

func (r *GormPermissionRepository) DeleteByID(ctx context.Context, tx *gorm.DB, permissionID uint) error {
	return useTx(ctx, r.db, tx).Where("id = ?", permissionID).Delete(&models.DocumentPermission{}).Error
}

func (r *GormPermissionRepository) DeleteByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("document_id IN ?", documentIDs).Delete(&models.DocumentPermission{}).Error
}
