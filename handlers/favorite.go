package handlers

import (
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func ToggleFavorite(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	favorite, err := getServices().Favorite.ToggleFavorite(c.Request.Context(), currentUserID(c), documentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"document_id": documentID, "favorite": favorite})
}

func ListFavorites(c *gin.Context) {
	docs, err := getServices().Favorite.ListFavorites(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, docs)
}
