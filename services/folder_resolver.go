package services

import (
	"context"
	"net/http"

	"docshelf/models"
	"docshelf/repositories"

	"gorm.io/gorm"
)

// maxFolderDepth bounds ancestor walks so a corrupted parent chain cannot loop forever.
const maxFolderDepth = 1024

// folderTree walks the folder hierarchy through parent ids.
type folderTree struct {
	folders repositories.FolderRepository
}

func buildChildFolderPath(parentPath, childName string) string {
	if parentPath == "" {
		return childName
	}
	return parentPath + "/" + childName
}

// ensureNotInSubtree rejects targetParentID when it is folderID or one of its descendants.
func (t folderTree) ensureNotInSubtree(ctx context.Context, tx *gorm.DB, folderID uint, targetParentID uint) error {
	current := targetParentID
	for depth := 0; depth < maxFolderDepth; depth++ {
		if current == folderID {
			return newAppError(http.StatusBadRequest, "cannot move a folder into itself or its descendants", nil)
		}
		folder, err := t.folders.GetByID(ctx, tx, current)
		if err != nil {
			return lookupError(err, "parent folder not found", "failed to load parent folder")
		}
		if folder.ParentID == nil {
			return nil
		}
		current = *folder.ParentID
	}
	return newAppError(http.StatusInternalServerError, "folder hierarchy is too deep", nil)
}

// subtreeIDs returns rootID followed by every descendant id, breadth first.
func (t folderTree) subtreeIDs(ctx context.Context, tx *gorm.DB, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		parentID := ids[i]
		children, err := t.folders.ListByParent(ctx, tx, &parentID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			ids = append(ids, child.ID)
		}
	}
	return ids, nil
}

// rewriteDescendantPaths recomputes every descendant path top-down from rootPath.
func (t folderTree) rewriteDescendantPaths(ctx context.Context, tx *gorm.DB, rootID uint, rootPath string) error {
	type pending struct {
		id   uint
		path string
	}
	queue := []pending{{id: rootID, path: rootPath}}
	seen := map[uint]bool{rootID: true}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		parentID := next.id
		children, err := t.folders.ListByParent(ctx, tx, &parentID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			childPath := buildChildFolderPath(next.path, child.Name)
			if childPath != child.Path {
				if err := t.folders.UpdateByID(ctx, tx, child.ID, map[string]interface{}{"path": childPath}); err != nil {
					return err
				}
			}
			queue = append(queue, pending{id: child.ID, path: childPath})
		}
	}
	return nil
}

// removeDocumentFiles deletes backing files after their rows are gone. Failures are logged only.
func removeDocumentFiles(store FileStore, docs []models.Document) {
	for _, doc := range docs {
		removeStoredFile(store, doc.FilePath)
		removeStoredFile(store, doc.ThumbnailPath)
	}
}
