package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"docshelf/metrics"
	"docshelf/models"
	"docshelf/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// CreateShareInput takes the lifetime in hours. Nil uses the configured default, 0 never expires.
type CreateShareInput struct {
	ExpiresIn *int `json:"expiresIn"`
	MaxViews  *int `json:"maxViews"`
}

func (in CreateShareInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ExpiresIn, validation.Min(0), validation.Max(24*365)),
		validation.Field(&in.MaxViews, validation.Min(1)),
	)
}

type ShareLink struct {
	Share models.DocumentShare `json:"share"`
	URL   string               `json:"url"`
}

// SharedDocument is what an anonymous holder of a token may see.
type SharedDocument struct {
	Document       models.Document `json:"document"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	RemainingViews *int            `json:"remaining_views"`
}

type ShareService interface {
	CreateShare(ctx context.Context, userID uint, documentID uint, in CreateShareInput) (ShareLink, error)
	GetSharedDocument(ctx context.Context, token string) (SharedDocument, error)
	RedeemShare(ctx context.Context, token string) (FileDownload, error)
	ListShares(ctx context.Context, documentID uint) ([]ShareLink, error)
	RevokeShare(ctx context.Context, userID uint, shareID uint) error
}

var errShareExhausted = errors.New("share view limit reached")

type shareService struct {
	txManager TxManager
	documents repositories.DocumentRepository
	shares    repositories.ShareRepository
	activity  ActivityService
	store     FileStore
	now       func() time.Time
}

func NewShareService(
	txManager TxManager,
	documents repositories.DocumentRepository,
	shares repositories.ShareRepository,
	activity ActivityService,
	store FileStore,
) ShareService {
	return &shareService{
		txManager: txManager,
		documents: documents,
		shares:    shares,
		activity:  activity,
		store:     store,
		now:       time.Now,
	}
}

func generateShareToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func shareURL(token string) string {
	return appConfig().Share.BaseURL + "/api/shares/" + token
}

func (s *shareService) CreateShare(ctx context.Context, userID uint, documentID uint, in CreateShareInput) (ShareLink, error) {
	if err := in.Validate(); err != nil {
		return ShareLink{}, validationError(err)
	}

	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return ShareLink{}, lookupError(err, "document not found", "failed to load document")
	}

	cfg := appConfig().Share
	hours := cfg.DefaultExpiryHours
	if in.ExpiresIn != nil {
		hours = *in.ExpiresIn
	}

	token, err := generateShareToken(cfg.TokenBytes)
	if err != nil {
		return ShareLink{}, newAppError(http.StatusInternalServerError, "failed to create share token", err)
	}

	share := models.DocumentShare{
		DocumentID: doc.ID,
		ShareToken: token,
		MaxViews:   in.MaxViews,
		CreatedBy:  userID,
	}
	if hours > 0 {
		expiresAt := s.now().Add(time.Duration(hours) * time.Hour)
		share.ExpiresAt = &expiresAt
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shares.Create(ctx, tx, &share); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionCreateShare,
			ResourceType: ResourceShare,
			ResourceID:   share.ID,
			Metadata:     map[string]interface{}{"document_id": doc.ID, "expires_in_hours": hours},
		})
	})
	if err != nil {
		return ShareLink{}, newAppError(http.StatusInternalServerError, "failed to create share", err)
	}

	return ShareLink{Share: share, URL: shareURL(token)}, nil
}

// activeShare loads a share by token and rejects expired ones.
func (s *shareService) activeShare(ctx context.Context, token string) (models.DocumentShare, error) {
	share, err := s.shares.GetByToken(ctx, nil, token)
	if err != nil {
		return models.DocumentShare{}, lookupError(err, "share link not found", "failed to load share link")
	}
	if share.Expired(s.now()) {
		metrics.IncrementShareRedemption("expired")
		return models.DocumentShare{}, newAppError(http.StatusGone, "share link has expired", nil)
	}
	return share, nil
}

// sharedDocument resolves a share to the newest version of its document.
func (s *shareService) sharedDocument(ctx context.Context, share models.DocumentShare) (models.Document, error) {
	doc, err := s.documents.GetByID(ctx, nil, share.DocumentID, false)
	if err != nil {
		return models.Document{}, lookupError(err, "shared document no longer exists", "failed to load document")
	}
	latest, err := s.documents.GetLatestInLineage(ctx, nil, doc.LineageRootID(), false)
	if err != nil {
		return models.Document{}, lookupError(err, "shared document no longer exists", "failed to load document")
	}
	return latest, nil
}

func (s *shareService) GetSharedDocument(ctx context.Context, token string) (SharedDocument, error) {
	share, err := s.activeShare(ctx, token)
	if err != nil {
		return SharedDocument{}, err
	}
	if share.Exhausted() {
		return SharedDocument{}, newAppError(http.StatusGone, "share link view limit reached", nil)
	}
	doc, err := s.sharedDocument(ctx, share)
	if err != nil {
		return SharedDocument{}, err
	}

	out := SharedDocument{Document: doc, ExpiresAt: share.ExpiresAt}
	if share.MaxViews != nil {
		remaining := *share.MaxViews - share.CurrentViews
		out.RemainingViews = &remaining
	}
	return out, nil
}

func (s *shareService) RedeemShare(ctx context.Context, token string) (FileDownload, error) {
	share, err := s.activeShare(ctx, token)
	if err != nil {
		return FileDownload{}, err
	}
	doc, err := s.sharedDocument(ctx, share)
	if err != nil {
		return FileDownload{}, err
	}

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	dl, err := openStoredFile(s.store, doc, doc.FilePath, contentType, doc.OriginalName)
	if err != nil {
		return FileDownload{}, err
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		affected, err := s.shares.ConsumeView(ctx, tx, share.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errShareExhausted
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       share.CreatedBy,
			Action:       ActionRedeemShare,
			ResourceType: ResourceShare,
			ResourceID:   share.ID,
			Metadata:     map[string]interface{}{"document_id": doc.ID},
		})
	})
	if err != nil {
		_ = dl.Content.Close()
		if errors.Is(err, errShareExhausted) {
			metrics.IncrementShareRedemption("exhausted")
			return FileDownload{}, newAppError(http.StatusGone, "share link view limit reached", nil)
		}
		return FileDownload{}, newAppError(http.StatusInternalServerError, "failed to redeem share link", err)
	}

	metrics.IncrementShareRedemption("ok")
	return dl, nil
}

func (s *shareService) ListShares(ctx context.Context, documentID uint) ([]ShareLink, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return nil, lookupError(err, "document not found", "failed to load document")
	}
	lineage, err := s.documents.ListLineage(ctx, nil, doc.LineageRootID())
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list shares", err)
	}
	ids := make([]uint, 0, len(lineage))
	for _, version := range lineage {
		ids = append(ids, version.ID)
	}

	shares, err := s.shares.ListByDocumentIDs(ctx, nil, ids)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list shares", err)
	}
	links := make([]ShareLink, 0, len(shares))
	for _, share := range shares {
		links = append(links, ShareLink{Share: share, URL: shareURL(share.ShareToken)})
	}
	return links, nil
}

func (s *shareService) RevokeShare(ctx context.Context, userID uint, shareID uint) error {
	share, err := s.shares.GetByID(ctx, nil, shareID)
	if err != nil {
		return lookupError(err, "share link not found", "failed to load share link")
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shares.DeleteByID(ctx, tx, share.ID); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionRevokeShare,
			ResourceType: ResourceShare,
			ResourceID:   share.ID,
			Metadata:     map[string]interface{}{"document_id": share.DocumentID},
		})
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to revoke share", err)
	}
	return nil
}
