package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/naebak/content-service/internal/common"
)

// RequireModerator checks that the authenticated user may moderate content
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role != "admin" && role != "moderator" {
			common.ErrorResponse(c, http.StatusForbidden, "Moderator role required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
