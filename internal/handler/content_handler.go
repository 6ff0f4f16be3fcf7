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

// ContentHandler handles content CRUD and publish endpoints
type ContentHandler struct {
	contentService *service.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// Create handles POST /api/content
func (h *ContentHandler) Create(c *gin.Context) {
	var req service.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	content, err := h.contentService.CreateContent(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSlugTaken):
			common.ErrorResponse(c, http.StatusConflict, "Slug already in use", err)
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid content", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to create content", err)
		}
		return
	}

	common.CreatedResponse(c, content)
}

// Get handles GET /api/content/:id
func (h *ContentHandler) Get(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	content, err := h.contentService.GetContent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load content", err)
		}
		return
	}

	common.SuccessResponse(c, content)
}

// GetBySlug handles GET /api/content/slug/:slug
func (h *ContentHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Slug is required", nil)
		return
	}

	content, err := h.contentService.GetContentBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load content", err)
		}
		return
	}

	common.SuccessResponse(c, content)
}

// List handles GET /api/content
func (h *ContentHandler) List(c *gin.Context) {
	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)
	contentType := c.Query("type")

	contents, total, err := h.contentService.ListContent(c.Request.Context(), contentType, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list content", err)
		return
	}

	common.SuccessWithMeta(c, contents, &common.Meta{Page: page, Limit: limit, Total: total})
}

// Update handles PUT /api/content/:id
func (h *ContentHandler) Update(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	var req service.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	content, err := h.contentService.UpdateContent(c.Request.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrContentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid content", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to update content", err)
		}
		return
	}

	common.SuccessResponse(c, content)
}

// Publish handles POST /api/content/:id/publish
func (h *ContentHandler) Publish(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	result, err := h.contentService.Publish(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to publish content", err)
		}
		return
	}

	if result.Moderation != nil {
		middleware.CountModerationDecision(result.Moderation.Status, true)
	}

	common.SuccessResponse(c, result)
}
