package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"docshelf/config"
	"docshelf/models"
	"docshelf/repositories"

	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// withTestConfig installs a default config for the test, adjusted by mutate.
func withTestConfig(t *testing.T, mutate func(cfg *config.Config)) *config.Config {
	t.Helper()
	previous := config.AppConfig
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = previous })
	return cfg
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

type fakeUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uint) (models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) CountByUsernameOrEmail(_ context.Context, _ *gorm.DB, username string, email string) (int64, error) {
	var n int64
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			n++
		}
	}
	return n, nil
}

type fakeFolderRepo struct {
	folders map[uint]models.Folder
	nextID  uint
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: map[uint]models.Folder{}, nextID: 1}
}

func (r *fakeFolderRepo) GetByID(_ context.Context, _ *gorm.DB, folderID uint) (models.Folder, error) {
	folder, ok := r.folders[folderID]
	if !ok {
		return models.Folder{}, gorm.ErrRecordNotFound
	}
	return folder, nil
}

func (r *fakeFolderRepo) Create(_ context.Context, _ *gorm.DB, folder *models.Folder) error {
	folder.ID = r.nextID
	r.nextID++
	r.folders[folder.ID] = *folder
	return nil
}

func (r *fakeFolderRepo) ListByParent(_ context.Context, _ *gorm.DB, parentID *uint) ([]models.Folder, error) {
	out := []models.Folder{}
	for _, folder := range r.folders {
		if sameParent(folder.ParentID, parentID) {
			out = append(out, folder)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeFolderRepo) ListAll(_ context.Context, _ *gorm.DB) ([]models.Folder, error) {
	out := make([]models.Folder, 0, len(r.folders))
	for _, folder := range r.folders {
		out = append(out, folder)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeFolderRepo) CountByParentAndName(_ context.Context, _ *gorm.DB, parentID *uint, name string, excludeID uint) (int64, error) {
	var n int64
	for _, folder := range r.folders {
		if folder.ID != excludeID && folder.Name == name && sameParent(folder.ParentID, parentID) {
			n++
		}
	}
	return n, nil
}

func (r *fakeFolderRepo) UpdateByID(_ context.Context, _ *gorm.DB, folderID uint, updates map[string]interface{}) error {
	folder, ok := r.folders[folderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			folder.Name = value.(string)
		case "path":
			folder.Path = value.(string)
		case "parent_id":
			folder.ParentID = value.(*uint)
		case "type":
			folder.Type = value.(models.FolderType)
		case "updated_at":
			folder.UpdatedAt = value.(time.Time)
		}
	}
	r.folders[folderID] = folder
	return nil
}

func (r *fakeFolderRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, folderIDs []uint) error {
	for _, id := range folderIDs {
		delete(r.folders, id)
	}
	return nil
}

type fakeDocumentRepo struct {
	docs      map[uint]models.Document
	nextID    uint
	createErr error
	// demoteMisses makes DemoteLatest report a lost race.
	demoteMisses bool
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: map[uint]models.Document{}, nextID: 1}
}

func (r *fakeDocumentRepo) sorted(keep func(models.Document) bool) []models.Document {
	out := []models.Document{}
	for _, doc := range r.docs {
		if keep(doc) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeDocumentRepo) Create(_ context.Context, _ *gorm.DB, doc *models.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	doc.ID = r.nextID
	r.nextID++
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, _ *gorm.DB, documentID uint, _ bool) (models.Document, error) {
	doc, ok := r.docs[documentID]
	if !ok {
		return models.Document{}, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (r *fakeDocumentRepo) GetLatestInLineage(_ context.Context, _ *gorm.DB, rootID uint, _ bool) (models.Document, error) {
	for _, doc := range r.docs {
		if doc.LineageRootID() == rootID && doc.IsLatestVersion {
			return doc, nil
		}
	}
	return models.Document{}, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) ListLineage(_ context.Context, _ *gorm.DB, rootID uint) ([]models.Document, error) {
	out := r.sorted(func(doc models.Document) bool { return doc.LineageRootID() == rootID })
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *fakeDocumentRepo) ListLatest(_ context.Context, _ *gorm.DB, folderID *uint) ([]models.Document, error) {
	return r.sorted(func(doc models.Document) bool {
		return doc.IsLatestVersion && (folderID == nil || sameParent(doc.FolderID, folderID))
	}), nil
}

func (r *fakeDocumentRepo) ListLatestByLineageRoots(_ context.Context, _ *gorm.DB, rootIDs []uint) ([]models.Document, error) {
	wanted := map[uint]bool{}
	for _, id := range rootIDs {
		wanted[id] = true
	}
	return r.sorted(func(doc models.Document) bool {
		return doc.IsLatestVersion && wanted[doc.LineageRootID()]
	}), nil
}

func (r *fakeDocumentRepo) ListByFolderIDs(_ context.Context, _ *gorm.DB, folderIDs []uint) ([]models.Document, error) {
	wanted := map[uint]bool{}
	for _, id := range folderIDs {
		wanted[id] = true
	}
	return r.sorted(func(doc models.Document) bool {
		return doc.FolderID != nil && wanted[*doc.FolderID]
	}), nil
}

// Search only honours the free-text query and status; the real predicates are covered by repository tests.
func (r *fakeDocumentRepo) Search(_ context.Context, _ *gorm.DB, in repositories.DocumentSearchInput) ([]models.Document, error) {
	return r.sorted(func(doc models.Document) bool {
		if !doc.IsLatestVersion {
			return false
		}
		if in.Status != "" && doc.Status != in.Status {
			return false
		}
		return in.Query == "" || strings.Contains(doc.Name, in.Query)
	}), nil
}

func (r *fakeDocumentRepo) UpdateByID(_ context.Context, _ *gorm.DB, documentID uint, updates map[string]interface{}) error {
	doc, ok := r.docs[documentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			doc.Name = value.(string)
		case "description":
			doc.Description = value.(string)
		case "status":
			doc.Status = value.(models.DocumentStatus)
		case "folder_id":
			if id, ok := value.(uint); ok {
				doc.FolderID = &id
			} else {
				doc.FolderID = nil
			}
		}
	}
	r.docs[documentID] = doc
	return nil
}

func (r *fakeDocumentRepo) ListByLineageRoots(_ context.Context, _ *gorm.DB, rootIDs []uint) ([]models.Document, error) {
	wanted := map[uint]bool{}
	for _, id := range rootIDs {
		wanted[id] = true
	}
	out := r.sorted(func(doc models.Document) bool { return wanted[doc.LineageRootID()] })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocumentRepo) MoveLineage(_ context.Context, _ *gorm.DB, rootID uint, folderID *uint) error {
	for id, doc := range r.docs {
		if doc.LineageRootID() != rootID {
			continue
		}
		if folderID != nil {
			moved := *folderID
			doc.FolderID = &moved
		} else {
			doc.FolderID = nil
		}
		r.docs[id] = doc
	}
	return nil
}

func (r *fakeDocumentRepo) DemoteLatest(_ context.Context, _ *gorm.DB, documentID uint) (int64, error) {
	doc, ok := r.docs[documentID]
	if !ok || !doc.IsLatestVersion || r.demoteMisses {
		return 0, nil
	}
	doc.IsLatestVersion = false
	r.docs[documentID] = doc
	return 1, nil
}

func (r *fakeDocumentRepo) DeleteByIDs(_ context.Context, _ *gorm.DB, documentIDs []uint) error {
	for _, id := range documentIDs {
		delete(r.docs, id)
	}
	return nil
}

func (r *fakeDocumentRepo) Stats(_ context.Context, _ *gorm.DB, expiringBefore time.Time) (repositories.DocumentStats, error) {
	var stats repositories.DocumentStats
	for _, doc := range r.docs {
		if !doc.IsLatestVersion {
			continue
		}
		stats.TotalDocuments++
		stats.TotalStorage += doc.FileSize
		if doc.Status == models.StatusPending {
			stats.PendingDocuments++
		}
		if doc.ExpirationDate != nil && doc.ExpirationDate.Before(expiringBefore) {
			stats.ExpiringDocuments++
		}
	}
	return stats, nil
}

func (r *fakeDocumentRepo) ListStoredPaths(_ context.Context, _ *gorm.DB) ([]string, error) {
	out := []string{}
	for _, doc := range r.docs {
		out = append(out, doc.FilePath)
		if doc.ThumbnailPath != "" {
			out = append(out, doc.ThumbnailPath)
		}
	}
	return out, nil
}

type fakePermissionRepo struct {
	perms  map[uint]models.DocumentPermission
	nextID uint
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{perms: map[uint]models.DocumentPermission{}, nextID: 1}
}

func (r *fakePermissionRepo) Create(_ context.Context, _ *gorm.DB, perm *models.DocumentPermission) error {
	perm.ID = r.nextID
	r.nextID++
	r.perms[perm.ID] = *perm
	return nil
}

func (r *fakePermissionRepo) ListByDocument(_ context.Context, _ *gorm.DB, documentID uint) ([]models.DocumentPermission, error) {
	out := []models.DocumentPermission{}
	for _, perm := range r.perms {
		if perm.DocumentID == documentID {
			out = append(out, perm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePermissionRepo) GetByIDAndDocument(_ context.Context, _ *gorm.DB, permissionID uint, documentID uint) (models.DocumentPermission, error) {
	perm, ok := r.perms[permissionID]
	if !ok || perm.DocumentID != documentID {
		return models.DocumentPermission{}, gorm.ErrRecordNotFound
	}
	return perm, nil
}

func (r *fakePermissionRepo) DeleteByID(_ context.Context, _ *gorm.DB, permissionID uint) error {
	delete(r.perms, permissionID)
	return nil
}

func (r *fakePermissionRepo) DeleteByDocumentIDs(_ context.Context, _ *gorm.DB, documentIDs []uint) error {
	for _, id := range documentIDs {
		for permID, perm := range r.perms {
			if perm.DocumentID == id {
				delete(r.perms, permID)
			}
		}
	}
	return nil
}

type fakeShareRepo struct {
	shares map[uint]models.DocumentShare
	nextID uint
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: map[uint]models.DocumentShare{}, nextID: 1}
}

func (r *fakeShareRepo) Create(_ context.Context, _ *gorm.DB, share *models.DocumentShare) error {
	share.ID = r.nextID
	r.nextID++
	r.shares[share.ID] = *share
	return nil
}

func (r *fakeShareRepo) GetByToken(_ context.Context, _ *gorm.DB, token string) (models.DocumentShare, error) {
	for _, share := range r.shares {
		if share.ShareToken == token {
			return share, nil
		}
	}
	return models.DocumentShare{}, gorm.ErrRecordNotFound
}

func (r *fakeShareRepo) GetByID(_ context.Context, _ *gorm.DB, shareID uint) (models.DocumentShare, error) {
	share, ok := r.shares[shareID]
	if !ok {
		return models.DocumentShare{}, gorm.ErrRecordNotFound
	}
	return share, nil
}

func (r *fakeShareRepo) ListByDocumentIDs(_ context.Context, _ *gorm.DB, documentIDs []uint) ([]models.DocumentShare, error) {
	wanted := map[uint]bool{}
	for _, id := range documentIDs {
		wanted[id] = true
	}
	out := []models.DocumentShare{}
	for _, share := range r.shares {
		if wanted[share.DocumentID] {
			out = append(out, share)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeShareRepo) ConsumeView(_ context.Context, _ *gorm.DB, shareID uint) (int64, error) {
	share, ok := r.shares[shareID]
	if !ok || share.Exhausted() {
		return 0, nil
	}
	share.CurrentViews++
	r.shares[shareID] = share
	return 1, nil
}

func (r *fakeShareRepo) DeleteByID(_ context.Context, _ *gorm.DB, shareID uint) error {
	delete(r.shares, shareID)
	return nil
}

func (r *fakeShareRepo) DeleteByDocumentIDs(_ context.Context, _ *gorm.DB, documentIDs []uint) error {
	for _, id := range documentIDs {
		for shareID, share := range r.shares {
			if share.DocumentID == id {
				delete(r.shares, shareID)
			}
		}
	}
	return nil
}

func (r *fakeShareRepo) DeleteExpiredBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	var n int64
	for id, share := range r.shares {
		if share.ExpiresAt != nil && share.ExpiresAt.Before(cutoff) {
			delete(r.shares, id)
			n++
		}
	}
	return n, nil
}

type fakeActivityRepo struct {
	entries   []models.ActivityLog
	createErr error
	lastLimit int
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(_ context.Context, _ *gorm.DB, entry *models.ActivityLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListRecent(_ context.Context, _ *gorm.DB, limit int) ([]models.ActivityLog, error) {
	r.lastLimit = limit
	out := []models.ActivityLog{}
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *fakeActivityRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type fakeFavoriteRepo struct {
	sets map[uint]map[uint]bool
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{sets: map[uint]map[uint]bool{}}
}

func (r *fakeFavoriteRepo) Add(_ context.Context, userID uint, rootID uint) error {
	if r.sets[userID] == nil {
		r.sets[userID] = map[uint]bool{}
	}
	r.sets[userID][rootID] = true
	return nil
}

func (r *fakeFavoriteRepo) Remove(_ context.Context, userID uint, rootID uint) error {
	delete(r.sets[userID], rootID)
	return nil
}

func (r *fakeFavoriteRepo) IsFavorite(_ context.Context, userID uint, rootID uint) (bool, error) {
	return r.sets[userID][rootID], nil
}

func (r *fakeFavoriteRepo) List(_ context.Context, userID uint) ([]uint, error) {
	out := []uint{}
	for id := range r.sets[userID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type fakeStatsCache struct {
	stats   *repositories.DocumentStats
	lastTTL time.Duration
	sets    int
}

func (c *fakeStatsCache) Get(_ context.Context) (repositories.DocumentStats, bool, error) {
	if c.stats == nil {
		return repositories.DocumentStats{}, false, nil
	}
	return *c.stats, true, nil
}

func (c *fakeStatsCache) Set(_ context.Context, stats repositories.DocumentStats, ttl time.Duration) error {
	c.stats = &stats
	c.lastTTL = ttl
	c.sets++
	return nil
}

func (c *fakeStatsCache) Invalidate(_ context.Context) error {
	c.stats = nil
	return nil
}
