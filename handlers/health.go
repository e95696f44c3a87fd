package handlers

import (
	"net/http"

	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck answers 503 while any backing store is unreachable.
func HealthCheck(c *gin.Context) {
	report := getServices().Health.Check(c.Request.Context())
	if !report.Healthy() {
		utils.ErrorWithData(c, http.StatusServiceUnavailable, "service degraded", report)
		return
	}
	utils.Success(c, report)
}
