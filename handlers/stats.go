package handlers

import (
	"net/http"
	"strconv"

	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

func GetStats(c *gin.Context) {
	stats, err := getServices().Stats.GetDocumentStats(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, stats)
}

func GetRecentActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.Error(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := getServices().Activity.GetRecentActivity(c.Request.Context(), limit)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, entries)
}

func invalidateStats(c *gin.Context) {
	getServices().Stats.InvalidateCache(c.Request.Context())
}
