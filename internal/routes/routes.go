package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naebak/content-service/internal/handler"
	"github.com/naebak/content-service/internal/middleware"
	"github.com/naebak/content-service/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	healthHandler *handler.HealthHandler,
	contentHandler *handler.ContentHandler,
	moderationHandler *handler.ModerationHandler,
	versionHandler *handler.VersionHandler,
	jwtManager *jwt.Manager,
) {
	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.JWTAuth(jwtManager)
	moderator := middleware.RequireModerator()

	content := router.Group("/api/content")

	// Public reads
	content.GET("", contentHandler.List)
	content.GET("/slug/:slug", contentHandler.GetBySlug)
	content.GET("/versions/compare", versionHandler.Compare)
	content.GET("/versions/:version_id", versionHandler.Detail)

	// Moderation dashboards (moderator only)
	moderation := content.Group("/moderation", auth, moderator)
	moderation.GET("/queue", moderationHandler.Queue)
	moderation.GET("/stats", moderationHandler.Stats)

	// Authoring (auth required for every mutation)
	content.POST("", auth, contentHandler.Create)

	item := content.Group("/:id")
	{
		item.GET("", contentHandler.Get)
		item.PUT("", auth, contentHandler.Update)
		item.POST("/publish", auth, contentHandler.Publish)

		item.POST("/versions", auth, versionHandler.Create)
		item.GET("/versions", versionHandler.History)

		// Moderation and rollback are restricted to moderators
		item.POST("/moderate", auth, moderator, moderationHandler.Moderate)
		item.GET("/moderate/history", auth, moderator, moderationHandler.History)
		item.POST("/rollback/:version_id", auth, moderator, versionHandler.Rollback)
	}
}
