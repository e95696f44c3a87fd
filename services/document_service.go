package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docshelf/logger"
	"docshelf/metrics"
	"docshelf/models"
	"docshelf/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type UploadInput struct {
	FolderID    *uint
	Tags        []string
	Description string
	Files       []UploadFile
}

// CreateDocumentInput describes a version-1 row whose content is already stored.
type CreateDocumentInput struct {
	Name           string
	OriginalName   string
	FolderID       *uint
	FileType       string
	FileSize       int64
	FilePath       string
	MimeType       string
	ThumbnailPath  string
	Status         string
	Tags           []string
	Description    string
	ExpirationDate *time.Time
}

func (in CreateDocumentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&in.OriginalName, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&in.FilePath, validation.Required),
		validation.Field(&in.FileSize, validation.Min(int64(0))),
		validation.Field(&in.Status, enumRule(models.ParseDocumentStatus)),
	)
}

type UpdateDocumentInput struct {
	Name            *string    `json:"name"`
	FolderID        *uint      `json:"folderId"`
	ClearFolder     bool       `json:"clearFolder"`
	Tags            *[]string  `json:"tags"`
	Description     *string    `json:"description"`
	Status          *string    `json:"status"`
	ExpirationDate  *time.Time `json:"expirationDate"`
	ClearExpiration bool       `json:"clearExpiration"`
}

func (in UpdateDocumentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, maxNameLength)),
		validation.Field(&in.Status, enumRule(models.ParseDocumentStatus)),
	)
}

type SearchFilters struct {
	FileType  string
	Status    string
	CreatedBy *uint
	DateFrom  *time.Time
	DateTo    *time.Time
	Tags      []string
}

// FileDownload is an open stored file. The caller must close Content.
type FileDownload struct {
	Document    models.Document
	Content     io.ReadSeekCloser
	Size        int64
	ContentType string
	FileName    string
	ModTime     time.Time
}

type DocumentService interface {
	UploadDocuments(ctx context.Context, userID uint, in UploadInput) ([]models.Document, error)
	CreateDocument(ctx context.Context, userID uint, in CreateDocumentInput) (models.Document, error)
	CreateVersion(ctx context.Context, userID uint, documentID uint, file UploadFile) (models.Document, error)
	ListVersions(ctx context.Context, documentID uint) ([]models.Document, error)
	GetDocument(ctx context.Context, documentID uint) (models.Document, error)
	ListDocuments(ctx context.Context, folderID *uint) ([]models.Document, error)
	SearchDocuments(ctx context.Context, query string, filters SearchFilters) ([]models.Document, error)
	UpdateDocument(ctx context.Context, userID uint, documentID uint, in UpdateDocumentInput) (models.Document, error)
	DeleteDocument(ctx context.Context, userID uint, documentID uint) error
	GetDownload(ctx context.Context, userID uint, documentID uint) (FileDownload, error)
	GetThumbnail(ctx context.Context, documentID uint) (FileDownload, error)
}

var errVersionConflict = errors.New("document version changed concurrently")

type documentService struct {
	txManager   TxManager
	folders     repositories.FolderRepository
	documents   repositories.DocumentRepository
	shares      repositories.ShareRepository
	permissions repositories.PermissionRepository
	activity    ActivityService
	store       FileStore
}

func NewDocumentService(
	txManager TxManager,
	folders repositories.FolderRepository,
	documents repositories.DocumentRepository,
	shares repositories.ShareRepository,
	permissions repositories.PermissionRepository,
	activity ActivityService,
	store FileStore,
) DocumentService {
	return &documentService{
		txManager:   txManager,
		folders:     folders,
		documents:   documents,
		shares:      shares,
		permissions: permissions,
		activity:    activity,
		store:       store,
	}
}

func (s *documentService) checkUpload(file UploadFile) error {
	maxSize := appConfig().Storage.MaxFileSize
	if file.Name == "" {
		return newAppError(http.StatusBadRequest, "file name is required", nil)
	}
	if maxSize > 0 && file.Size > maxSize {
		return newAppError(http.StatusBadRequest, fmt.Sprintf("file %s exceeds the size limit", file.Name), nil)
	}
	if !isFileExtensionAllowed(file.Name) {
		return newAppError(http.StatusBadRequest, fmt.Sprintf("file type of %s is not allowed", file.Name), nil)
	}
	return nil
}

// storeUpload writes the content and, for images, a thumbnail.
func (s *documentService) storeUpload(file UploadFile) (StoredFile, string, error) {
	stored, err := s.store.Save(file.Reader, file.Name)
	if err != nil {
		return StoredFile{}, "", newAppError(http.StatusInternalServerError, "failed to store file", err)
	}

	maxSize := appConfig().Storage.MaxFileSize
	if maxSize > 0 && stored.Size > maxSize {
		removeStoredFile(s.store, stored.RelPath)
		return StoredFile{}, "", newAppError(http.StatusBadRequest, fmt.Sprintf("file %s exceeds the size limit", file.Name), nil)
	}

	thumbPath := ""
	if appConfig().Thumbnail.Enabled && IsImageFile(file.Name) {
		thumbPath, err = GenerateThumbnail(s.store, stored.RelPath)
		if err != nil {
			logger.L().Warn("thumbnail generation failed", zap.String("file", stored.RelPath), zap.Error(err))
			thumbPath = ""
		}
	}
	return stored, thumbPath, nil
}

func (s *documentService) ensureFolder(ctx context.Context, folderID *uint) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.folders.GetByID(ctx, nil, *folderID); err != nil {
		return lookupError(err, "folder not found", "failed to load folder")
	}
	return nil
}

func (s *documentService) UploadDocuments(ctx context.Context, userID uint, in UploadInput) ([]models.Document, error) {
	if len(in.Files) == 0 {
		return nil, newAppError(http.StatusBadRequest, "no files uploaded", nil)
	}
	for _, file := range in.Files {
		if err := s.checkUpload(file); err != nil {
			return nil, err
		}
	}
	if err := s.ensureFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}

	tags := normalizeTags(in.Tags)
	created := make([]models.Document, 0, len(in.Files))
	for _, file := range in.Files {
		stored, thumbPath, err := s.storeUpload(file)
		if err != nil {
			return nil, err
		}

		doc, err := s.CreateDocument(ctx, userID, CreateDocumentInput{
			Name:          file.Name,
			OriginalName:  file.Name,
			FolderID:      in.FolderID,
			FileType:      fileTypeOf(file.Name),
			FileSize:      stored.Size,
			FilePath:      stored.RelPath,
			MimeType:      resolveMimeType(file.Name, file.ContentType),
			ThumbnailPath: thumbPath,
			Tags:          tags,
			Description:   in.Description,
		})
		if err != nil {
			removeStoredFile(s.store, stored.RelPath)
			removeStoredFile(s.store, thumbPath)
			return nil, err
		}
		created = append(created, doc)
	}

	return created, nil
}

func (s *documentService) CreateDocument(ctx context.Context, userID uint, in CreateDocumentInput) (models.Document, error) {
	if err := in.Validate(); err != nil {
		return models.Document{}, validationError(err)
	}
	if err := s.ensureFolder(ctx, in.FolderID); err != nil {
		return models.Document{}, err
	}

	status := models.StatusDraft
	if in.Status != "" {
		status, _ = models.ParseDocumentStatus(in.Status)
	}

	doc := models.Document{
		Name:            in.Name,
		OriginalName:    in.OriginalName,
		FolderID:        in.FolderID,
		FileType:        in.FileType,
		FileSize:        in.FileSize,
		FilePath:        in.FilePath,
		MimeType:        in.MimeType,
		ThumbnailPath:   in.ThumbnailPath,
		Status:          status,
		Tags:            datatypes.JSONSlice[string](normalizeTags(in.Tags)),
		Description:     in.Description,
		Version:         1,
		IsLatestVersion: true,
		ExpirationDate:  in.ExpirationDate,
		CreatedBy:       userID,
	}

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documents.Create(ctx, tx, &doc); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionUploadDocument,
			ResourceType: ResourceDocument,
			ResourceID:   doc.ID,
			Metadata:     map[string]interface{}{"name": doc.Name, "size": doc.FileSize},
		})
	})
	if err != nil {
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to save document", err)
	}

	metrics.IncrementDocumentOperation("upload")
	return doc, nil
}

func (s *documentService) CreateVersion(ctx context.Context, userID uint, documentID uint, file UploadFile) (models.Document, error) {
	if err := s.checkUpload(file); err != nil {
		return models.Document{}, err
	}

	current, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return models.Document{}, lookupError(err, "document not found", "failed to load document")
	}
	rootID := current.LineageRootID()

	stored, thumbPath, err := s.storeUpload(file)
	if err != nil {
		return models.Document{}, err
	}

	var created models.Document
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		latest, err := s.documents.GetLatestInLineage(ctx, tx, rootID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errVersionConflict
			}
			return err
		}

		affected, err := s.documents.DemoteLatest(ctx, tx, latest.ID)
		if err != nil {
			return err
		}
		if affected != 1 {
			return errVersionConflict
		}

		parentID := latest.ID
		created = models.Document{
			Name:             latest.Name,
			OriginalName:     file.Name,
			FolderID:         latest.FolderID,
			FileType:         fileTypeOf(file.Name),
			FileSize:         stored.Size,
			FilePath:         stored.RelPath,
			MimeType:         resolveMimeType(file.Name, file.ContentType),
			ThumbnailPath:    thumbPath,
			Status:           latest.Status,
			Tags:             latest.Tags,
			Description:      latest.Description,
			Version:          latest.Version + 1,
			IsLatestVersion:  true,
			ParentDocumentID: &parentID,
			LineageID:        rootID,
			ExpirationDate:   latest.ExpirationDate,
			CreatedBy:        userID,
		}
		if err := s.documents.Create(ctx, tx, &created); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionCreateVersion,
			ResourceType: ResourceDocument,
			ResourceID:   created.ID,
			Metadata:     map[string]interface{}{"version": created.Version, "previous_id": latest.ID, "lineage_id": rootID},
		})
	})
	if err != nil {
		removeStoredFile(s.store, stored.RelPath)
		removeStoredFile(s.store, thumbPath)
		if errors.Is(err, errVersionConflict) {
			return models.Document{}, newAppError(http.StatusConflict, "document was modified concurrently, retry", err)
		}
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to create version", err)
	}

	metrics.IncrementDocumentOperation("version")
	return created, nil
}

func (s *documentService) ListVersions(ctx context.Context, documentID uint) ([]models.Document, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return nil, lookupError(err, "document not found", "failed to load document")
	}
	versions, err := s.documents.ListLineage(ctx, nil, doc.LineageRootID())
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list versions", err)
	}
	return versions, nil
}

func (s *documentService) GetDocument(ctx context.Context, documentID uint) (models.Document, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, true)
	if err != nil {
		return models.Document{}, lookupError(err, "document not found", "failed to load document")
	}
	return doc, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, userID uint, documentID uint, in UpdateDocumentInput) (models.Document, error) {
	if err := in.Validate(); err != nil {
		return models.Document{}, validationError(err)
	}

	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return models.Document{}, lookupError(err, "document not found", "failed to load document")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	changed := make([]string, 0, 6)
	if in.Name != nil {
		updates["name"] = *in.Name
		changed = append(changed, "name")
	}
	// Folder moves apply to the whole lineage so versions never straddle folders.
	moveFolder := false
	var targetFolder *uint
	switch {
	case in.ClearFolder:
		moveFolder = true
		changed = append(changed, "folder")
	case in.FolderID != nil:
		if err := s.ensureFolder(ctx, in.FolderID); err != nil {
			return models.Document{}, err
		}
		moveFolder = true
		targetFolder = in.FolderID
		changed = append(changed, "folder")
	}
	if in.Tags != nil {
		updates["tags"] = datatypes.JSONSlice[string](normalizeTags(*in.Tags))
		changed = append(changed, "tags")
	}
	if in.Description != nil {
		updates["description"] = *in.Description
		changed = append(changed, "description")
	}
	if in.Status != nil && *in.Status != "" {
		status, _ := models.ParseDocumentStatus(*in.Status)
		updates["status"] = status
		changed = append(changed, "status")
	}
	switch {
	case in.ClearExpiration:
		updates["expiration_date"] = nil
		changed = append(changed, "expiration_date")
	case in.ExpirationDate != nil:
		updates["expiration_date"] = *in.ExpirationDate
		changed = append(changed, "expiration_date")
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.documents.UpdateByID(ctx, tx, doc.ID, updates); err != nil {
			return err
		}
		if moveFolder {
			if err := s.documents.MoveLineage(ctx, tx, doc.LineageRootID(), targetFolder); err != nil {
				return err
			}
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionUpdateDocument,
			ResourceType: ResourceDocument,
			ResourceID:   doc.ID,
			Metadata:     map[string]interface{}{"fields": changed},
		})
	})
	if err != nil {
		return models.Document{}, newAppError(http.StatusInternalServerError, "failed to update document", err)
	}

	metrics.IncrementDocumentOperation("update")
	return s.GetDocument(ctx, doc.ID)
}

func (s *documentService) DeleteDocument(ctx context.Context, userID uint, documentID uint) error {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return lookupError(err, "document not found", "failed to load document")
	}
	rootID := doc.LineageRootID()

	var removed []models.Document
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		lineage, err := s.documents.ListLineage(ctx, tx, rootID)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(lineage))
		for _, version := range lineage {
			ids = append(ids, version.ID)
		}

		if err := s.shares.DeleteByDocumentIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.permissions.DeleteByDocumentIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.documents.DeleteByIDs(ctx, tx, ids); err != nil {
			return err
		}
		removed = lineage
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionDeleteDocument,
			ResourceType: ResourceDocument,
			ResourceID:   doc.ID,
			Metadata:     map[string]interface{}{"name": doc.Name, "versions": len(ids)},
		})
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to delete document", err)
	}

	removeDocumentFiles(s.store, removed)
	metrics.IncrementDocumentOperation("delete")
	return nil
}

// openStoredFile opens relPath for streaming. Missing content maps to 404.
func openStoredFile(store FileStore, doc models.Document, relPath, contentType, fileName string) (FileDownload, error) {
	f, err := store.Open(relPath)
	if err != nil {
		if isNotExist(err) {
			return FileDownload{}, newAppError(http.StatusNotFound, "file not found in storage", err)
		}
		return FileDownload{}, newAppError(http.StatusInternalServerError, "failed to open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return FileDownload{}, newAppError(http.StatusInternalServerError, "failed to read file", err)
	}
	return FileDownload{
		Document:    doc,
		Content:     f,
		Size:        info.Size(),
		ContentType: contentType,
		FileName:    fileName,
		ModTime:     info.ModTime(),
	}, nil
}

func (s *documentService) GetDownload(ctx context.Context, userID uint, documentID uint) (FileDownload, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return FileDownload{}, lookupError(err, "document not found", "failed to load document")
	}

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	dl, err := openStoredFile(s.store, doc, doc.FilePath, contentType, doc.OriginalName)
	if err != nil {
		return FileDownload{}, err
	}

	err = s.activity.LogActivity(ctx, nil, ActivityEntry{
		UserID:       userID,
		Action:       ActionDownloadDocument,
		ResourceType: ResourceDocument,
		ResourceID:   doc.ID,
		Metadata:     map[string]interface{}{"version": doc.Version},
	})
	if err != nil {
		_ = dl.Content.Close()
		return FileDownload{}, newAppError(http.StatusInternalServerError, "failed to record download", err)
	}

	metrics.IncrementDocumentOperation("download")
	return dl, nil
}

func (s *documentService) GetThumbnail(ctx context.Context, documentID uint) (FileDownload, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return FileDownload{}, lookupError(err, "document not found", "failed to load document")
	}
	if doc.ThumbnailPath == "" {
		return FileDownload{}, newAppError(http.StatusNotFound, "thumbnail not available", nil)
	}
	return openStoredFile(s.store, doc, doc.ThumbnailPath, "image/jpeg", "thumbnail.jpg")
}
