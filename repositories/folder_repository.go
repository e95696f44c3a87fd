package repositories

import (
	"context"

	"docshelf/models"

	"gorm.io/gorm"
)

type GormFolderRepository struct {
	db *gorm.DB
}

func NewGormFolderRepository(db *gorm.DB) *GormFolderRepository {
	return &GormFolderRepository{db: db}
}

func (r *GormFolderRepository) GetByID(ctx context.Context, tx *gorm.DB, folderID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(ctx, r.db, tx).Where("id = ?", folderID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error {
	return useTx(ctx, r.db, tx).Create(folder).Error
}

func scopeParent(db *gorm.DB, parentID *uint) *gorm.DB {
	if parentID == nil {
		return db.Where("parent_id IS NULL")
	}
	return db.Where("parent_id = ?", *parentID)
}

func (r *GormFolderRepository) ListByParent(ctx context.Context, tx *gorm.DB, parentID *uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := scopeParent(useTx(ctx, r.db, tx).Model(&models.Folder{}), parentID).
		Order("name ASC").Order("id ASC").
		Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) ListAll(ctx context.Context, tx *gorm.DB) ([]models.Folder, error) {
	var folders []models.Folder
	err := useTx(ctx, r.db, tx).Order("path ASC").Order("id ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) CountByParentAndName(ctx context.Context, tx *gorm.DB, parentID *uint, name string, excludeID uint) (int64, error) {
	db := scopeParent(useTx(ctx, r.db, tx).Model(&models.Folder{}), parentID).Where("name = ?", name)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormFolderRepository) UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return useTx(ctx, r.db, tx).Model(&models.Folder{}).Where("id = ?", folderID).Updates(updates).Error
}

func (r *GormFolderRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("id IN ?", folderIDs).Delete(&models.Folder{}).Error
}
