package repositories

import (
	"context"
	"time"

	"docshelf/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Creator").Preload("Folder")
}

func latestOnly(db *gorm.DB) *gorm.DB {
	return db.Where("is_latest_version = ?", true)
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *GormDocumentRepository) Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error {
	return useTx(ctx, r.db, tx).Omit(clause.Associations).Create(doc).Error
}

func (r *GormDocumentRepository) GetByID(ctx context.Context, tx *gorm.DB, documentID uint, details bool) (models.Document, error) {
	db := useTx(ctx, r.db, tx)
	if details {
		db = withDetails(db)
	}
	var doc models.Document
	err := db.Where("id = ?", documentID).First(&doc).Error
	return doc, err
}

func (r *GormDocumentRepository) GetLatestInLineage(ctx context.Context, tx *gorm.DB, rootID uint, forUpdate bool) (models.Document, error) {
	db := useTx(ctx, r.db, tx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var doc models.Document
	err := latestOnly(db).
		Where("(id = ? OR lineage_id = ?)", rootID, rootID).
		Order("version DESC").
		First(&doc).Error
	return doc, err
}

func (r *GormDocumentRepository) ListLineage(ctx context.Context, tx *gorm.DB, rootID uint) ([]models.Document, error) {
	var docs []models.Document
	err := withDetails(useTx(ctx, r.db, tx)).
		Where("id = ? OR lineage_id = ?", rootID, rootID).
		Order("version ASC").
		Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) ListLatest(ctx context.Context, tx *gorm.DB, folderID *uint) ([]models.Document, error) {
	db := latestOnly(withDetails(useTx(ctx, r.db, tx)))
	if folderID != nil {
		db = db.Where("folder_id = ?", *folderID)
	}
	var docs []models.Document
	err := newestFirst(db).Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) ListLatestByLineageRoots(ctx context.Context, tx *gorm.DB, rootIDs []uint) ([]models.Document, error) {
	if len(rootIDs) == 0 {
		return []models.Document{}, nil
	}
	var docs []models.Document
	err := newestFirst(latestOnly(withDetails(useTx(ctx, r.db, tx))).
		Where("((lineage_id = 0 AND id IN ?) OR lineage_id IN ?)", rootIDs, rootIDs)).
		Find(&docs).Error
	return docs, err
}

// ListByFolderIDs returns every version stored in the given folders.
func (r *GormDocumentRepository) ListByFolderIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) ([]models.Document, error) {
	if len(folderIDs) == 0 {
		return []models.Document{}, nil
	}
	var docs []models.Document
	err := useTx(ctx, r.db, tx).Where("folder_id IN ?", folderIDs).Find(&docs).Error
	return docs, err
}

// ListByLineageRoots returns every version of the given lineages.
func (r *GormDocumentRepository) ListByLineageRoots(ctx context.Context, tx *gorm.DB, rootIDs []uint) ([]models.Document, error) {
	if len(rootIDs) == 0 {
		return []models.Document{}, nil
	}
	var docs []models.Document
	err := useTx(ctx, r.db, tx).
		Where("id IN ? OR lineage_id IN ?", rootIDs, rootIDs).
		Order("id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) Search(ctx context.Context, tx *gorm.DB, in DocumentSearchInput) ([]models.Document, error) {
	db := latestOnly(withDetails(useTx(ctx, r.db, tx)))

	if in.Query != "" {
		pattern := "%" + escapeLike(in.Query) + "%"
		db = db.Where(
			"(name LIKE ? ESCAPE '"+likeEscape+"' OR original_name LIKE ? ESCAPE '"+likeEscape+"' OR description LIKE ? ESCAPE '"+likeEscape+"')",
			pattern, pattern, pattern,
		)
	}
	if in.FileType != "" {
		db = db.Where("file_type = ?", in.FileType)
	}
	if in.Status != "" {
		db = db.Where("status = ?", in.Status)
	}
	if in.CreatedBy != nil {
		db = db.Where("created_by = ?", *in.CreatedBy)
	}
	if in.DateFrom != nil {
		db = db.Where("created_at >= ?", *in.DateFrom)
	}
	if in.DateTo != nil {
		db = db.Where("created_at <= ?", *in.DateTo)
	}
	for _, tag := range in.Tags {
		db = db.Where(datatypes.JSONArrayQuery("tags").Contains(tag))
	}

	var docs []models.Document
	err := newestFirst(db).Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) UpdateByID(ctx context.Context, tx *gorm.DB, documentID uint, updates map[string]interface{}) error {
	return useTx(ctx, r.db, tx).Model(&models.Document{}).Where("id = ?", documentID).Updates(updates).Error
}

// MoveLineage sets the folder of every version in the lineage. A nil folderID moves it to the root.
func (r *GormDocumentRepository) MoveLineage(ctx context.Context, tx *gorm.DB, rootID uint, folderID *uint) error {
	var folder interface{}
	if folderID != nil {
		folder = *folderID
	}
	return useTx(ctx, r.db, tx).Model(&models.Document{}).
		Where("id = ? OR lineage_id = ?", rootID, rootID).
		Updates(map[string]interface{}{"folder_id": folder, "updated_at": time.Now()}).Error
}

// DemoteLatest clears the latest flag only if it is still set, so two writers
// racing on the same row cannot both succeed.
func (r *GormDocumentRepository) DemoteLatest(ctx context.Context, tx *gorm.DB, documentID uint) (int64, error) {
	result := useTx(ctx, r.db, tx).Model(&models.Document{}).
		Where("id = ? AND is_latest_version = ?", documentID, true).
		Updates(map[string]interface{}{"is_latest_version": false, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *GormDocumentRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("id IN ?", documentIDs).Delete(&models.Document{}).Error
}

func (r *GormDocumentRepository) Stats(ctx context.Context, tx *gorm.DB, expiringBefore time.Time) (DocumentStats, error) {
	var stats DocumentStats
	err := latestOnly(useTx(ctx, r.db, tx).Model(&models.Document{})).
		Select(
			"COUNT(*) AS total_documents, "+
				"COALESCE(SUM(CASE WHEN expiration_date IS NOT NULL AND expiration_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_documents, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_documents, "+
				"COALESCE(SUM(file_size), 0) AS total_storage",
			expiringBefore, models.StatusPending,
		).
		Scan(&stats).Error
	return stats, err
}

// ListStoredPaths returns every file and thumbnail path referenced by any version.
func (r *GormDocumentRepository) ListStoredPaths(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var rows []struct {
		FilePath      string
		ThumbnailPath string
	}
	err := useTx(ctx, r.db, tx).Model(&models.Document{}).
		Select("file_path", "thumbnail_path").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(rows)*2)
	for _, row := range rows {
		if row.FilePath != "" {
			paths = append(paths, row.FilePath)
		}
		if row.ThumbnailPath != "" {
			paths = append(paths, row.ThumbnailPath)
		}
	}
	return paths, nil
}
