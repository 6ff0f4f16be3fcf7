package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/middleware"
	"github.com/naebak/content-service/internal/service"
	"github.com/naebak/content-service/pkg/ginutil"
)

// ModerationHandler handles moderation endpoints
type ModerationHandler struct {
	moderationService *service.ModerationService
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// ModerateRequest is the body for a moderation run
type ModerateRequest struct {
	Decision string `json:"decision"`
}

// Moderate handles POST /api/content/:id/moderate
//
// Without a decision the automated pipeline runs and may park the content for
// human review. Moderators finalize a parked item by sending an explicit
// decision.
func (h *ModerationHandler) Moderate(c *gin.Context) {
	contentID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	var req ModerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	moderatorID := middleware.GetUserID(c)
	result, queued, err := h.moderationService.Moderate(c.Request.Context(), contentID, &moderatorID, req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrContentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		case errors.Is(err, common.ErrDecisionRequired):
			common.ErrorResponse(c, http.StatusBadRequest, "Explicit decision required", err)
		case errors.Is(err, common.ErrInvalidDecision):
			common.ErrorResponse(c, http.StatusBadRequest, "Unknown decision", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Moderation failed", err)
		}
		return
	}

	if queued != nil {
		common.SuccessResponse(c, queued)
		return
	}

	middleware.CountModerationDecision(result.Status, false)
	common.SuccessResponse(c, result)
}

// Queue handles GET /api/content/moderation/queue
func (h *ModerationHandler) Queue(c *gin.Context) {
	limit := ginutil.QueryInt(c, "limit", 20)

	items, err := h.moderationService.GetModerationQueue(c.Request.Context(), limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load review queue", err)
		return
	}

	common.SuccessResponse(c, gin.H{
		"queue": items,
		"count": len(items),
	})
}

// Stats handles GET /api/content/moderation/stats
func (h *ModerationHandler) Stats(c *gin.Context) {
	days := ginutil.QueryInt(c, "days", 30)

	stats, err := h.moderationService.GetModerationStats(c.Request.Context(), days)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load moderation stats", err)
		return
	}

	common.SuccessResponse(c, stats)
}

// History handles GET /api/content/:id/moderate/history
func (h *ModerationHandler) History(c *gin.Context) {
	contentID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}
	limit := ginutil.QueryInt(c, "limit", 20)

	logs, err := h.moderationService.GetModerationHistory(c.Request.Context(), contentID, limit)
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load moderation history", err)
		}
		return
	}

	common.SuccessResponse(c, gin.H{
		"content_id": contentID,
		"history":    logs,
	})
}
