package services

import (
	"context"
	"net/http"

	"docshelf/logger"
	"docshelf/models"
	"docshelf/repositories"

	"go.uber.org/zap"
)

type FavoriteService interface {
	// ToggleFavorite flips the favorite state of a document lineage and returns the new state.
	ToggleFavorite(ctx context.Context, userID uint, documentID uint) (bool, error)
	ListFavorites(ctx context.Context, userID uint) ([]models.Document, error)
}

type favoriteService struct {
	documents repositories.DocumentRepository
	favorites repositories.FavoriteRepository
	activity  ActivityService
}

func NewFavoriteService(
	documents repositories.DocumentRepository,
	favorites repositories.FavoriteRepository,
	activity ActivityService,
) FavoriteService {
	return &favoriteService{documents: documents, favorites: favorites, activity: activity}
}

func (s *favoriteService) ToggleFavorite(ctx context.Context, userID uint, documentID uint) (bool, error) {
	doc, err := s.documents.GetByID(ctx, nil, documentID, false)
	if err != nil {
		return false, lookupError(err, "document not found", "failed to load document")
	}
	rootID := doc.LineageRootID()

	isFavorite, err := s.favorites.IsFavorite(ctx, userID, rootID)
	if err != nil {
		return false, newAppError(http.StatusInternalServerError, "failed to read favorites", err)
	}

	action := ActionFavoriteDocument
	apply, undo := s.favorites.Add, s.favorites.Remove
	if isFavorite {
		action = ActionUnfavoriteDocument
		apply, undo = s.favorites.Remove, s.favorites.Add
	}

	if err := apply(ctx, userID, rootID); err != nil {
		return false, newAppError(http.StatusInternalServerError, "failed to update favorites", err)
	}

	err = s.activity.LogActivity(ctx, nil, ActivityEntry{
		UserID:       userID,
		Action:       action,
		ResourceType: ResourceDocument,
		ResourceID:   doc.ID,
		Metadata:     map[string]interface{}{"lineage_id": rootID},
	})
	if err != nil {
		// Redis and the activity table cannot share a transaction; put the set back.
		if undoErr := undo(ctx, userID, rootID); undoErr != nil {
			logger.L().Error("failed to revert favorite", zap.Uint("user_id", userID), zap.Uint("lineage_id", rootID), zap.Error(undoErr))
		}
		return false, newAppError(http.StatusInternalServerError, "failed to record activity", err)
	}

	return !isFavorite, nil
}

func (s *favoriteService) ListFavorites(ctx context.Context, userID uint) ([]models.Document, error) {
	rootIDs, err := s.favorites.List(ctx, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to read favorites", err)
	}
	docs, err := s.documents.ListLatestByLineageRoots(ctx, nil, rootIDs)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to load favorite documents", err)
	}
	return docs, nil
}
