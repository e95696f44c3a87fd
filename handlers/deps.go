package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"docshelf/logger"
	"docshelf/middleware"
	"docshelf/services"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var appServices *services.Container

func SetServices(container *services.Container) {
	appServices = container
}

func getServices() *services.Container {
	if appServices == nil {
		panic("services container is not initialized")
	}
	return appServices
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.L().Error(appErr.Message,
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(appErr.Err),
			)
		}
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.Message, appErr.Data)
		} else {
			utils.Error(c, appErr.HTTPCode, appErr.Message)
		}
		return true
	}
	logger.L().Error("unhandled service error", zap.String("path", c.FullPath()), zap.Error(err))
	utils.Error(c, http.StatusInternalServerError, "internal error")
	return true
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.ContextUserID)
}

// parseIDParam reads a positive integer path parameter and answers 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.Error(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalID reads an optional positive integer query or form value.
func parseOptionalID(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, errors.New("must be a positive integer")
	}
	v := uint(id)
	return &v, nil
}
