package services

import (
	"context"
	"net/http"
	"strings"

	"docshelf/models"
	"docshelf/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GrantPermissionInput names exactly one principal: a user or a group.
type GrantPermissionInput struct {
	UserID      *uint    `json:"userId"`
	UserGroup   string   `json:"userGroup"`
	Permissions []string `json:"permissions"`
}

func (in GrantPermissionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.UserID, validation.When(strings.TrimSpace(in.UserGroup) == "", validation.Required.Error("either userId or userGroup is required"))),
		validation.Field(&in.UserGroup,
			validation.When(in.UserID != nil, validation.Empty.Error("must be empty when userId is set")),
			validation.Length(0, 100),
		),
		validation.Field(&in.Permissions, validation.Required, validation.Each(enumRule(models.ParseCapability), validation.Required)),
	)
}

type PermissionService interface {
	Grant(ctx context.Context, userID uint, documentID uint, in GrantPermissionInput) (models.DocumentPermission, error)
	List(ctx context.Context, documentID uint) ([]models.DocumentPermission, error)
	Revoke(ctx context.Context, userID uint, documentID uint, permissionID uint) error
}

type permissionService struct {
	txManager   TxManager
	documents   repositories.DocumentRepository
	permissions repositories.PermissionRepository
	activity    ActivityService
}

func NewPermissionService(
	txManager TxManager,
	documents repositories.DocumentRepository,
	permissions repositories.PermissionRepository,
	activity ActivityService,
) PermissionService {
	return &permissionService{txManager: txManager, documents: documents, permissions: permissions, activity: activity}
}

func normalizeCapabilities(raw []string) []models.Capability {
	out := make([]models.Capability, 0, len(raw))
	seen := map[models.Capability]bool{}
	for _, r := range raw {
		c, err := models.ParseCapability(r)
		if err != nil || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (s *permissionService) Grant(ctx context.Context, userID uint, documentID uint, in GrantPermissionInput) (models.DocumentPermission, error) {
	if err := in.Validate(); err != nil {
		return models.DocumentPermission{}, validationError(err)
	}

	if _, err := s.documents.GetByID(ctx, nil, documentID, false); err != nil {
		return models.DocumentPermission{}, lookupError(err, "document not found", "failed to load document")
	}

	perm := models.DocumentPermission{
		DocumentID:  documentID,
		UserID:      in.UserID,
		Permissions: datatypes.JSONSlice[models.Capability](normalizeCapabilities(in.Permissions)),
	}
	if group := strings.TrimSpace(in.UserGroup); group != "" {
		perm.UserGroup = &group
	}

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.permissions.Create(ctx, tx, &perm); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionGrantPermission,
			ResourceType: ResourcePermission,
			ResourceID:   perm.ID,
			Metadata:     map[string]interface{}{"document_id": documentID, "permissions": perm.Permissions},
		})
	})
	if err != nil {
		return models.DocumentPermission{}, newAppError(http.StatusInternalServerError, "failed to grant permission", err)
	}
	return perm, nil
}

func (s *permissionService) List(ctx context.Context, documentID uint) ([]models.DocumentPermission, error) {
	if _, err := s.documents.GetByID(ctx, nil, documentID, false); err != nil {
		return nil, lookupError(err, "document not found", "failed to load document")
	}
	perms, err := s.permissions.ListByDocument(ctx, nil, documentID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list permissions", err)
	}
	return perms, nil
}

func (s *permissionService) Revoke(ctx context.Context, userID uint, documentID uint, permissionID uint) error {
	perm, err := s.permissions.GetByIDAndDocument(ctx, nil, permissionID, documentID)
	if err != nil {
		return lookupError(err, "permission not found", "failed to load permission")
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.permissions.DeleteByID(ctx, tx, perm.ID); err != nil {
			return err
		}
		return s.activity.LogActivity(ctx, tx, ActivityEntry{
			UserID:       userID,
			Action:       ActionRevokePermission,
			ResourceType: ResourcePermission,
			ResourceID:   perm.ID,
			Metadata:     map[string]interface{}{"document_id": documentID},
		})
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to revoke permission", err)
	}
	return nil
}
