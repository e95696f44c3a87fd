package handlers

import (
	"net/http"

	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func GetCurrentUser(c *gin.Context) {
	user, err := getServices().User.GetUser(c.Request.Context(), currentUserID(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, user)
}

func GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := getServices().User.GetUser(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, user)
}

func CreateUser(c *gin.Context) {
	var req services.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	user, err := getServices().User.CreateUser(c.Request.Context(), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Created(c, user)
}
