package handlers

import (
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func ListPermissions(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	perms, err := getServices().Permission.List(c.Request.Context(), documentID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, perms)
}

func GrantPermission(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.GrantPermissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	perm, err := getServices().Permission.Grant(c.Request.Context(), currentUserID(c), documentID, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, perm)
}

func RevokePermission(c *gin.Context) {
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseIDParam(c, "permId")
	if !ok {
		return
	}
	if err := getServices().Permission.Revoke(c.Request.Context(), currentUserID(c), documentID, permID); respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, "permission revoked", nil)
}
