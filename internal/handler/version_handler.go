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

// VersionHandler handles version history, comparison and rollback endpoints
type VersionHandler struct {
	versionService *service.VersionService
}

// NewVersionHandler creates a new VersionHandler
func NewVersionHandler(versionService *service.VersionService) *VersionHandler {
	return &VersionHandler{versionService: versionService}
}

// CreateVersionRequest is the body for a manual snapshot
type CreateVersionRequest struct {
	VersionType string `json:"version_type"`
	ChangeNotes string `json:"change_notes"`
}

// Create handles POST /api/content/:id/versions
func (h *VersionHandler) Create(c *gin.Context) {
	contentID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	req := CreateVersionRequest{VersionType: "manual"}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.VersionType == "" {
			req.VersionType = "manual"
		}
	}

	meta, err := h.versionService.CreateVersion(c.Request.Context(), contentID, middleware.GetUserID(c), req.VersionType, req.ChangeNotes)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrContentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid version type", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to create version", err)
		}
		return
	}

	common.CreatedResponse(c, meta)
}

// History handles GET /api/content/:id/versions
func (h *VersionHandler) History(c *gin.Context) {
	contentID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}
	limit := ginutil.QueryInt(c, "limit", 20)

	history, err := h.versionService.GetVersionHistory(c.Request.Context(), contentID, limit)
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load version history", err)
		}
		return
	}

	common.SuccessResponse(c, gin.H{
		"content_id": contentID,
		"versions":   history,
		"count":      len(history),
	})
}

// Detail handles GET /api/content/versions/:version_id
func (h *VersionHandler) Detail(c *gin.Context) {
	versionID, err := ginutil.ParamUint64(c, "version_id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version id", err)
		return
	}

	version, err := h.versionService.GetVersionDetail(c.Request.Context(), versionID)
	if err != nil {
		if errors.Is(err, common.ErrVersionNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Version not found", err)
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load version", err)
		}
		return
	}

	common.SuccessResponse(c, version)
}

// Compare handles GET /api/content/versions/compare?from=:id&to=:id
func (h *VersionHandler) Compare(c *gin.Context) {
	fromID, err := ginutil.QueryUint64(c, "from")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid 'from' version id", err)
		return
	}
	toID, err := ginutil.QueryUint64(c, "to")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid 'to' version id", err)
		return
	}

	diff, err := h.versionService.CompareVersions(c.Request.Context(), fromID, toID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrVersionNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Version not found", err)
		case errors.Is(err, common.ErrVersionContentMismatch):
			common.ErrorResponse(c, http.StatusBadRequest, "Versions belong to different content", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to compare versions", err)
		}
		return
	}

	common.SuccessResponse(c, diff)
}

// Rollback handles POST /api/content/:id/rollback/:version_id
func (h *VersionHandler) Rollback(c *gin.Context) {
	contentID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}
	versionID, err := ginutil.ParamUint64(c, "version_id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version id", err)
		return
	}

	result, err := h.versionService.Rollback(c.Request.Context(), contentID, versionID, middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrContentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
		case errors.Is(err, common.ErrVersionNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "Version not found", err)
		case errors.Is(err, common.ErrVersionContentMismatch):
			common.ErrorResponse(c, http.StatusBadRequest, "Version belongs to different content", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "Rollback failed", err)
		}
		return
	}

	common.SuccessResponse(c, result)
}
