package repositories

import (
	"context"
	"time"

	"docshelf/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	CountByUsernameOrEmail(ctx context.Context, tx *gorm.DB, username string, email string) (int64, error)
}

type FolderRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, folderID uint) (models.Folder, error)
	Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error
	ListByParent(ctx context.Context, tx *gorm.DB, parentID *uint) ([]models.Folder, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]models.Folder, error)
	CountByParentAndName(ctx context.Context, tx *gorm.DB, parentID *uint, name string, excludeID uint) (int64, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) error
}

// DocumentSearchInput carries the optional predicates of a search. Zero values are ignored.
type DocumentSearchInput struct {
	Query     string
	FileType  string
	Status    models.DocumentStatus
	CreatedBy *uint
	DateFrom  *time.Time
	DateTo    *time.Time
	Tags      []string
}

// DocumentStats is the API shape of GET /api/stats; columns come from the aggregate query aliases.
type DocumentStats struct {
	TotalDocuments    int64 `gorm:"column:total_documents" json:"totalDocuments"`
	ExpiringDocuments int64 `gorm:"column:expiring_documents" json:"expiringDocuments"`
	PendingDocuments  int64 `gorm:"column:pending_documents" json:"pendingDocuments"`
	TotalStorage      int64 `gorm:"column:total_storage" json:"totalStorage"`
}

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	GetByID(ctx context.Context, tx *gorm.DB, documentID uint, withDetails bool) (models.Document, error)
	GetLatestInLineage(ctx context.Context, tx *gorm.DB, rootID uint, forUpdate bool) (models.Document, error)
	ListLineage(ctx context.Context, tx *gorm.DB, rootID uint) ([]models.Document, error)
	ListLatest(ctx context.Context, tx *gorm.DB, folderID *uint) ([]models.Document, error)
	ListLatestByLineageRoots(ctx context.Context, tx *gorm.DB, rootIDs []uint) ([]models.Document, error)
	ListByFolderIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) ([]models.Document, error)
	ListByLineageRoots(ctx context.Context, tx *gorm.DB, rootIDs []uint) ([]models.Document, error)
	Search(ctx context.Context, tx *gorm.DB, in DocumentSearchInput) ([]models.Document, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, documentID uint, updates map[string]interface{}) error
	MoveLineage(ctx context.Context, tx *gorm.DB, rootID uint, folderID *uint) error
	DemoteLatest(ctx context.Context, tx *gorm.DB, documentID uint) (int64, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error
	Stats(ctx context.Context, tx *gorm.DB, expiringBefore time.Time) (DocumentStats, error)
	ListStoredPaths(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type PermissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, perm *models.DocumentPermission) error
	ListByDocument(ctx context.Context, tx *gorm.DB, documentID uint) ([]models.DocumentPermission, error)
	GetByIDAndDocument(ctx context.Context, tx *gorm.DB, permissionID uint, documentID uint) (models.DocumentPermission, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, permissionID uint) error
	DeleteByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error
}

type ShareRepository interface {
	Create(ctx context.Context, tx *gorm.DB, share *models.DocumentShare) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.DocumentShare, error)
	GetByID(ctx context.Context, tx *gorm.DB, shareID uint) (models.DocumentShare, error)
	ListByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) ([]models.DocumentShare, error)
	ConsumeView(ctx context.Context, tx *gorm.DB, shareID uint) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, shareID uint) error
	DeleteByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uint) error
	DeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// ActivityRepository is append-only.
type ActivityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]models.ActivityLog, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID uint, rootID uint) error
	Remove(ctx context.Context, userID uint, rootID uint) error
	IsFavorite(ctx context.Context, userID uint, rootID uint) (bool, error)
	List(ctx context.Context, userID uint) ([]uint, error)
}

type StatsCache interface {
	Get(ctx context.Context) (DocumentStats, bool, error)
	Set(ctx context.Context, stats DocumentStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Container struct {
	TxManager   TxManager
	Users       UserRepository
	Folders     FolderRepository
	Documents   DocumentRepository
	Permissions PermissionRepository
	Shares      ShareRepository
	Activities  ActivityRepository
	Favorites   FavoriteRepository
	StatsCache  StatsCache
	Pingers     map[string]Pinger
}
