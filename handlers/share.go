package handlers

import (
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func CreateShare(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateShareInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	link, err := getServices().Share.CreateShare(c.Request.Context(), currentUserID(c), documentID, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, link)
}

func ListShares(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	links, err := getServices().Share.ListShares(c.Request.Context(), documentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, links)
}

func RevokeShare(c *gin.Context) {
	shareID, ok := parseIDParam(c, "shareId")
	if !ok {
		return
	}
	if err := getServices().Share.RevokeShare(c.Request.Context(), currentUserID(c), shareID); respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "share revoked", nil)
}

// GetSharedDocument is public and does not count as a view.
func GetSharedDocument(c *gin.Context) {
	shared, err := getServices().Share.GetSharedDocument(c.Request.Context(), c.Param("token"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, shared)
}

func DownloadSharedDocument(c *gin.Context) {
	dl, err := getServices().Share.RedeemShare(c.Request.Context(), c.Param("token"))
	if respondServiceError(c, err) {
		return
	}
	serveDownload(c, dl, "attachment")
}
