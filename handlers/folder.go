package handlers

import (
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func ListAllFolders(c *gin.Context) {
	folders, err := getServices().Folder.ListAllFolders(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folders)
}

// ListFolderChildren lists the direct children of :id, or the roots when :id is "root".
func ListFolderChildren(c *gin.Context) {
	var parentID *uint
	if c.Param("id") != "root" {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if _, err := getServices().Folder.GetFolder(c.Request.Context(), id); respondServiceError(c, err) {
			return
		}
		parentID = &id
	}

	folders, err := getServices().Folder.ListFolders(c.Request.Context(), parentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folders)
}

func GetFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	folder, err := getServices().Folder.GetFolder(c.Request.Context(), folderID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func CreateFolder(c *gin.Context) {
	var req services.CreateFolderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	folder, err := getServices().Folder.CreateFolder(c.Request.Context(), currentUserID(c), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, folder)
}

func UpdateFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateFolderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	folder, err := getServices().Folder.UpdateFolder(c.Request.Context(), currentUserID(c), folderID, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func DeleteFolder(c *gin.Context) {
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := getServices().Folder.DeleteFolder(c.Request.Context(), currentUserID(c), folderID); respondServiceError(c, err) {
		return
	}
	invalidateStats(c)
	utils.SuccessWithMessage(c, "folder deleted", nil)
}
