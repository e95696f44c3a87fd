package handlers

import (
	"docshelf/config"
	"docshelf/metrics"
	"docshelf/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the API engine. SetServices must be called first.
func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(*cfg))
	if cfg.Metrics.Enabled {
		r.Use(metrics.PrometheusMiddleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", HealthCheck)

	// Share links are redeemed anonymously.
	api.GET("/shares/:token", GetSharedDocument)
	api.GET("/shares/:token/download", DownloadSharedDocument)

	protected := api.Group("")
	protected.Use(middleware.CurrentUser(cfg.Auth))
	{
		protected.GET("/users/me", GetCurrentUser)
		protected.GET("/users/:id", GetUser)
		protected.POST("/users", CreateUser)

		protected.GET("/folders", ListAllFolders)
		protected.POST("/folders", CreateFolder)
		protected.GET("/folders/:id", GetFolder)
		protected.GET("/folders/:id/children", ListFolderChildren)
		protected.PUT("/folders/:id", UpdateFolder)
		protected.DELETE("/folders/:id", DeleteFolder)

		protected.GET("/documents", ListDocuments)
		protected.POST("/documents/upload", UploadDocuments)
		protected.GET("/documents/:id", GetDocument)
		protected.PUT("/documents/:id", UpdateDocument)
		protected.DELETE("/documents/:id", DeleteDocument)
		protected.GET("/documents/:id/download", DownloadDocument)
		protected.GET("/documents/:id/thumbnail", GetThumbnail)
		protected.GET("/documents/:id/versions", ListVersions)
		protected.POST("/documents/:id/versions", CreateVersion)

		protected.POST("/documents/:id/favorite", ToggleFavorite)
		protected.GET("/favorites", ListFavorites)

		protected.POST("/documents/:id/share", CreateShare)
		protected.GET("/documents/:id/shares", ListShares)
		protected.DELETE("/shares/:shareId", RevokeShare)

		protected.GET("/documents/:id/permissions", ListPermissions)
		protected.POST("/documents/:id/permissions", GrantPermission)
		protected.DELETE("/documents/:id/permissions/:permId", RevokePermission)

		protected.GET("/search", SearchDocuments)
		protected.GET("/stats", GetStats)
		protected.GET("/activity", GetRecentActivity)
	}

	return r
}
