package services

import (
	"context"
	"net/http"
	"time"

	"docshelf/models"
	"docshelf/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateFolderInput struct {
	Name        string                   `json:"name"`
	ParentID    *uint                    `json:"parentId"`
	Type        string                   `json:"type"`
	Permissions models.FolderPermissions `json:"permissions"`
}

func (in CreateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxNameLength), noSlash),
		validation.Field(&in.Type, enumRule(models.ParseFolderType)),
	)
}

// UpdateFolderInput is a partial update. MoveToRoot detaches the folder from its parent.
type UpdateFolderInput struct {
	Name        *string                   `json:"name"`
	ParentID    *uint                     `json:"parentId"`
	MoveToRoot  bool                      `json:"moveToRoot"`
	Type        *string                   `json:"type"`
	Permissions *models.FolderPermissions `json:"permissions"`
}

func (in UpdateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, maxNameLength), noSlash),
		validation.Field(&in.Type, enumRule(models.ParseFolderType)),
	)
}

type FolderService interface {
	CreateFolder(ctx context.Context, userID uint, in CreateFolderInput) (models.Folder, error)
	GetFolder(ctx context.Context, folderID uint) (models.Folder, error)
	ListFolders(ctx context.Context, parentID *uint) ([]models.Folder, error)
	ListAllFolders(ctx context.Context) ([]models.Folder, error)
	UpdateFolder(ctx context.Context, userID uint, folderID uint, in UpdateFolderInput) (models.Folder, error)
	DeleteFolder(ctx context.Context, userID uint, folderID uint) error
}

type folderService struct {
	txManager   TxManager
	folders     repositories.FolderRepository
	documents   repositories.DocumentRepository
	shares      repositories.ShareRepository
	permissions repositories.PermissionRepository
	activity    ActivityService
	store       FileStore
	tree        folderTree
}

func NewFolderService(
	txManager TxManager,
	folders repositories.FolderRepository,
	documents repositories.DocumentRepository,
	shares repositories.ShareRepository,
	permissions repositories.PermissionRepository,
	activity ActivityService,
	store FileStore,
) FolderService {
	return &folderService{
		txManager:   txManager,
		folders:     folders,
		documents:   documents,
		shares:      shares,
		permissions: permissions,
		activity:    activity,
		store:       store,
		tree:        folderTree{folders: folders},
	}
}

func (s *folderService) CreateFolder(ctx context.Context, userID uint, in CreateFolderInput) (models.Folder, error) {
	if err := in.Validate(); err != nil {
		return models.Folder{}, validationError(err)
	}

	folderType := models.FolderStandard
	if in.Type != "" {
		folderType, _ = models.ParseFolderType(in.Type)
	}
	perms := in.Permissions
	if perms == nil {
		perms = models.FolderPermissions{}
	}

	parentPath := ""
	if in.ParentID != nil {
		parent, err := s.folders.GetByID(ctx, nil, *in.ParentID)
		if err != nil {
			return models.Folder{}, lookupError(err, "parent folder not found", "failed to load parent folder")
		}
		parentPath = parent.Path
	}

	folder := models.Folder{
		Name:        in.Name,
		ParentID:    in.ParentID,
		Path:        buildChildFolderPath(parentPath, in.Name),
		Type:        folderType,
		Permissions: datatypes.NewJSONType(perms),
		CreatedBy:   userID,
	}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.ensureUniqueName(ctx, tx, in.ParentID, in.Name, 0); err != nil {
			return err
		}
		if err := s.folders.Create(ctx, tx, &folder); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionCreateFolder,
			ResourceType: ResourceFolder,
			ResourceID:   folder.ID,
			Metadata:     map[string]interface{}{"name": folder.Name, "path": folder.Path},
		})
	})
	if err != nil {
		return models.Folder{}, folderWriteError(err, "failed to create folder")
	}

	return folder, nil
}

func (s *folderService) GetFolder(ctx context.Context, folderID uint) (models.Folder, error) {
	folder, err := s.folders.GetByID(ctx, nil, folderID)
	if err != nil {
		return models.Folder{}, lookupError(err, "folder not found", "failed to load folder")
	}
	return folder, nil
}

func (s *folderService) ListFolders(ctx context.Context, parentID *uint) ([]models.Folder, error) {
	list, err := s.folders.ListByParent(ctx, nil, parentID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list folders", err)
	}
	return list, nil
}

func (s *folderService) ListAllFolders(ctx context.Context) ([]models.Folder, error) {
	list, err := s.folders.ListAll(ctx, nil)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list folders", err)
	}
	return list, nil
}

func (s *folderService) UpdateFolder(ctx context.Context, userID uint, folderID uint, in UpdateFolderInput) (models.Folder, error) {
	if err := in.Validate(); err != nil {
		return models.Folder{}, validationError(err)
	}

	folder, err := s.folders.GetByID(ctx, nil, folderID)
	if err != nil {
		return models.Folder{}, lookupError(err, "folder not found", "failed to load folder")
	}

	newName := folder.Name
	if in.Name != nil {
		newName = *in.Name
	}
	newParentID := folder.ParentID
	switch {
	case in.MoveToRoot:
		newParentID = nil
	case in.ParentID != nil:
		newParentID = in.ParentID
	}

	parentChanged := !sameParent(folder.ParentID, newParentID)
	nameChanged := newName != folder.Name

	parentPath := ""
	if newParentID != nil {
		if err := s.tree.ensureNotInSubtree(ctx, nil, folder.ID, *newParentID); err != nil {
			return models.Folder{}, err
		}
		parent, err := s.folders.GetByID(ctx, nil, *newParentID)
		if err != nil {
			return models.Folder{}, lookupError(err, "parent folder not found", "failed to load parent folder")
		}
		parentPath = parent.Path
	}

	newPath := buildChildFolderPath(parentPath, newName)
	updates := map[string]interface{}{
		"name":       newName,
		"parent_id":  newParentID,
		"parent_key": models.FolderParentKey(newParentID),
		"path":       newPath,
		"updated_at": time.Now(),
	}
	if in.Type != nil && *in.Type != "" {
		folderType, _ := models.ParseFolderType(*in.Type)
		updates["type"] = folderType
	}
	if in.Permissions != nil {
		perms := *in.Permissions
		if perms == nil {
			perms = models.FolderPermissions{}
		}
		updates["permissions"] = datatypes.NewJSONType(perms)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		// Re-checked under the transaction: a concurrent move may have changed the ancestry.
		if parentChanged && newParentID != nil {
			if err := s.tree.ensureNotInSubtree(ctx, tx, folder.ID, *newParentID); err != nil {
				return err
			}
		}
		if nameChanged || parentChanged {
			if err := s.ensureUniqueName(ctx, tx, newParentID, newName, folder.ID); err != nil {
				return err
			}
		}
		if err := s.folders.UpdateByID(ctx, tx, folder.ID, updates); err != nil {
			return err
		}
		if newPath != folder.Path {
			if err := s.tree.rewriteDescendantPaths(ctx, tx, folder.ID, newPath); err != nil {
				return err
			}
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionUpdateFolder,
			ResourceType: ResourceFolder,
			ResourceID:   folder.ID,
			Metadata:     map[string]interface{}{"old_path": folder.Path, "path": newPath},
		})
	})
	if err != nil {
		return models.Folder{}, folderWriteError(err, "failed to update folder")
	}

	updated, err := s.folders.GetByID(ctx, nil, folder.ID)
	if err != nil {
		return models.Folder{}, lookupError(err, "folder not found", "failed to load folder")
	}
	return updated, nil
}

func (s *folderService) DeleteFolder(ctx context.Context, userID uint, folderID uint) error {
	folder, err := s.folders.GetByID(ctx, nil, folderID)
	if err != nil {
		return lookupError(err, "folder not found", "failed to load folder")
	}

	var removed []models.Document
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folderIDs, err := s.tree.subtreeIDs(ctx, tx, folder.ID)
		if err != nil {
			return err
		}

		inFolders, err := s.documents.ListByFolderIDs(ctx, tx, folderIDs)
		if err != nil {
			return err
		}
		// Expand to whole lineages: a version stored elsewhere must not outlive its chain.
		rootIDs := make([]uint, 0, len(inFolders))
		seenRoots := make(map[uint]bool, len(inFolders))
		for _, doc := range inFolders {
			rootID := doc.LineageRootID()
			if !seenRoots[rootID] {
				seenRoots[rootID] = true
				rootIDs = append(rootIDs, rootID)
			}
		}
		docs, err := s.documents.ListByLineageRoots(ctx, tx, rootIDs)
		if err != nil {
			return err
		}
		docIDs := make([]uint, 0, len(docs))
		for _, doc := range docs {
			docIDs = append(docIDs, doc.ID)
		}

		if err := s.shares.DeleteByDocumentIDs(ctx, tx, docIDs); err != nil {
			return err
		}
		if err := s.permissions.DeleteByDocumentIDs(ctx, tx, docIDs); err != nil {
			return err
		}
		if err := s.documents.DeleteByIDs(ctx, tx, docIDs); err != nil {
			return err
		}
		if err := s.folders.DeleteByIDs(ctx, tx, folderIDs); err != nil {
			return err
		}
		removed = docs
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionDeleteFolder,
			ResourceType: ResourceFolder,
			ResourceID:   folder.ID,
			Metadata: map[string]interface{}{
				"path":      folder.Path,
				"folders":   len(folderIDs),
				"documents": len(docIDs),
			},
		})
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to delete folder", err)
	}

	removeDocumentFiles(s.store, removed)
	return nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ensureUniqueName rejects a sibling with the same name. The unique index backs it up for racing writers.
func (s *folderService) ensureUniqueName(ctx context.Context, tx *gorm.DB, parentID *uint, name string, excludeID uint) error {
	count, err := s.folders.CountByParentAndName(ctx, tx, parentID, name, excludeID)
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to check folder name", err)
	}
	if count > 0 {
		return duplicateFolderNameError()
	}
	return nil
}

func folderWriteError(err error, failedMsg string) error {
	if repositories.IsDuplicateKey(err) {
		return duplicateFolderNameError()
	}
	return asAppError(err, failedMsg)
}

func duplicateFolderNameError() *AppError {
	return newAppError(http.StatusConflict, "a folder with this name already exists", nil)
}
