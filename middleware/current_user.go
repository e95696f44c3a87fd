package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"docshelf/config"
	"docshelf/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key carrying the acting user's id.
const ContextUserID = "user_id"

// CurrentUser resolves the acting user from the configured header and falls back
// to the default user when the header is absent.
func CurrentUser(cfg config.AuthConfig) gin.HandlerFunc {
	header := cfg.UserHeader
	if header == "" {
		header = "X-User-ID"
	}

	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			c.Set(ContextUserID, cfg.DefaultUserID)
			c.Next()
			return
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			utils.Error(c, http.StatusBadRequest, "invalid "+header+" header")
			c.Abort()
			return
		}

		c.Set(ContextUserID, uint(id))
		c.Next()
	}
}
