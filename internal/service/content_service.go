package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
	"github.com/naebak/content-service/internal/repository"
	"github.com/naebak/content-service/pkg/cache"
	"github.com/naebak/content-service/pkg/fingerprint"
	"github.com/naebak/content-service/pkg/logger"
)

// CreateContentRequest payload for creating a page or article
type CreateContentRequest struct {
	Slug            string                 `json:"slug" binding:"required"`
	ContentType     string                 `json:"content_type" binding:"required"`
	Title           string                 `json:"title" binding:"required"`
	Body            string                 `json:"body" binding:"required"`
	Excerpt         string                 `json:"excerpt"`
	MetaTitle       string                 `json:"meta_title"`
	MetaDescription string                 `json:"meta_description"`
	Metadata        map[string]interface{} `json:"metadata"`
	AuthorName      string                 `json:"author_name"`
}

// UpdateContentRequest payload for editing content fields. Nil pointers leave
// the field untouched.
type UpdateContentRequest struct {
	Title           *string                `json:"title"`
	Body            *string                `json:"body"`
	Excerpt         *string                `json:"excerpt"`
	MetaTitle       *string                `json:"meta_title"`
	MetaDescription *string                `json:"meta_description"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// PublishResult reports a publish call, including the moderation outcome that
// ran as part of it
type PublishResult struct {
	Content    *domain.Content          `json:"content"`
	Moderation *domain.ModerationResult `json:"moderation,omitempty"`
	Queued     *domain.QueuedResult     `json:"queued,omitempty"`
}

// ContentService owns the content-serving layer: CRUD over pages/articles and
// the publish flow. Every mutation snapshots current state first, inside the
// same transaction as the mutation itself.
type ContentService struct {
	db          *gorm.DB
	contentRepo repository.ContentRepository
	versions    *VersionService
	moderation  *ModerationService
	cache       cache.Service
}

// NewContentService creates a new ContentService
func NewContentService(db *gorm.DB, contentRepo repository.ContentRepository, versions *VersionService, moderation *ModerationService) *ContentService {
	return &ContentService{
		db:          db,
		contentRepo: contentRepo,
		versions:    versions,
		moderation:  moderation,
	}
}

// SetCache sets the cache service (optional dependency)
func (s *ContentService) SetCache(c cache.Service) {
	s.cache = c
}

// CreateContent creates a new page or article in draft state with moderation
// status pending
func (s *ContentService) CreateContent(ctx context.Context, authorID uint64, req *CreateContentRequest) (*domain.Content, error) {
	if req.ContentType != domain.ContentTypePage && req.ContentType != domain.ContentTypeArticle {
		return nil, fmt.Errorf("%w: content_type must be page or article", common.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: body must not be empty", common.ErrInvalidInput)
	}

	if _, err := s.contentRepo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, common.ErrSlugTaken
	} else if !errors.Is(err, common.ErrContentNotFound) {
		return nil, err
	}

	metadata, err := marshalMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	content := &domain.Content{
		Slug:             req.Slug,
		ContentType:      req.ContentType,
		Title:            req.Title,
		Body:             req.Body,
		Excerpt:          req.Excerpt,
		MetaTitle:        req.MetaTitle,
		MetaDescription:  req.MetaDescription,
		Metadata:         metadata,
		AuthorID:         authorID,
		AuthorName:       req.AuthorName,
		PublicationState: domain.PublicationDraft,
		ModerationStatus: domain.ModerationPending,
		ContentHash:      fingerprint.Body(req.Body),
		UpdatedBy:        authorID,
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		return nil, err
	}

	logger.Get().Info().Uint64("content_id", content.ID).Str("slug", content.Slug).Msg("content created")
	return content, nil
}

// GetContent returns a content item by id, served from cache when possible
func (s *ContentService) GetContent(ctx context.Context, id uint64) (*domain.Content, error) {
	if s.cache != nil {
		var cached domain.Content
		if err := s.cache.GetContent(ctx, id, &cached); err == nil {
			return &cached, nil
		}
	}

	content, err := s.contentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetContent(ctx, id, content)
	}
	return content, nil
}

// GetContentBySlug returns a content item by slug, served from cache when
// possible
func (s *ContentService) GetContentBySlug(ctx context.Context, slug string) (*domain.Content, error) {
	if s.cache != nil {
		var cached domain.Content
		if err := s.cache.GetContentBySlug(ctx, slug, &cached); err == nil {
			return &cached, nil
		}
	}

	content, err := s.contentRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetContentBySlug(ctx, slug, content)
	}
	return content, nil
}

// ListContent returns paginated content, optionally filtered by type
func (s *ContentService) ListContent(ctx context.Context, contentType string, page, limit int) ([]*domain.Content, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.contentRepo.List(ctx, contentType, page, limit)
}

// UpdateContent applies field edits. Protocol: snapshot current state, then
// mutate, both in one transaction, so a crash can never leave a mutation
// without its "before" snapshot.
func (s *ContentService) UpdateContent(ctx context.Context, id, userID uint64, req *UpdateContentRequest) (*domain.Content, error) {
	if req.Body != nil && strings.TrimSpace(*req.Body) == "" {
		return nil, fmt.Errorf("%w: body must not be empty", common.ErrInvalidInput)
	}

	var updated *domain.Content
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content, err := s.contentRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			return err
		}

		if _, err := s.versions.snapshotLocked(tx, content, userID, domain.VersionAuto, "Snapshot before edit"); err != nil {
			return err
		}

		if req.Title != nil {
			content.Title = *req.Title
		}
		if req.Body != nil {
			content.Body = *req.Body
			content.ContentHash = fingerprint.Body(*req.Body)
		}
		if req.Excerpt != nil {
			content.Excerpt = *req.Excerpt
		}
		if req.MetaTitle != nil {
			content.MetaTitle = *req.MetaTitle
		}
		if req.MetaDescription != nil {
			content.MetaDescription = *req.MetaDescription
		}
		if req.Metadata != nil {
			metadata, err := marshalMetadata(req.Metadata)
			if err != nil {
				return err
			}
			content.Metadata = metadata
		}
		content.UpdatedBy = userID

		if err := s.contentRepo.UpdateEditableFields(tx, content); err != nil {
			return err
		}

		updated = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateContent(ctx, id, updated.Slug)
	}

	return updated, nil
}

// Publish marks content as published, records a durable publish milestone
// version, and runs automated moderation on the published state
func (s *ContentService) Publish(ctx context.Context, id, userID uint64) (*PublishResult, error) {
	var slug string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content, err := s.contentRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			return err
		}
		slug = content.Slug

		if _, err := s.versions.snapshotLocked(tx, content, userID, domain.VersionPublish, "Published"); err != nil {
			return err
		}

		return s.contentRepo.SetPublicationState(tx, id, domain.PublicationPublished)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateContent(ctx, id, slug)
	}

	// Automated pass; content needing human review lands in the queue
	moderationResult, queued, err := s.moderation.Moderate(ctx, id, nil, "")
	if err != nil {
		return nil, err
	}

	content, err := s.contentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Get().Info().Uint64("content_id", id).Msg("content published")
	return &PublishResult{
		Content:    content,
		Moderation: moderationResult,
		Queued:     queued,
	}, nil
}

func marshalMetadata(metadata map[string]interface{}) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("%w: metadata: %v", common.ErrInvalidInput, err)
	}
	return string(data), nil
}
