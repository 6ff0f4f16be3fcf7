package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
)

// ContentRepository content data access
type ContentRepository interface {
	Create(ctx context.Context, content *domain.Content) error
	FindByID(ctx context.Context, id uint64) (*domain.Content, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Content, error)
	List(ctx context.Context, contentType string, page, limit int) ([]*domain.Content, int64, error)

	// FindByIDForUpdate locks the content row for the duration of the
	// enclosing transaction. Serializes version numbering per content id.
	FindByIDForUpdate(tx *gorm.DB, id uint64) (*domain.Content, error)
	UpdateEditableFields(tx *gorm.DB, content *domain.Content) error
	SetPublicationState(tx *gorm.DB, id uint64, state string) error
	SetModeration(tx *gorm.DB, id uint64, status string, moderatedBy *uint64, moderatedAt time.Time) error

	SetUnderReview(ctx context.Context, id uint64, priority int) error
	HasDuplicateBody(ctx context.Context, bodyHash string, excludeID uint64) (bool, error)
	ListUnderReview(ctx context.Context, limit int) ([]*domain.Content, error)
	CountByModerationStatusSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, content *domain.Content) error {
	return r.db.WithContext(ctx).Create(content).Error
}

func (r *contentRepository) FindByID(ctx context.Context, id uint64) (*domain.Content, error) {
	var content domain.Content
	err := r.db.WithContext(ctx).First(&content, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrContentNotFound
		}
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) FindBySlug(ctx context.Context, slug string) (*domain.Content, error) {
	var content domain.Content
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrContentNotFound
		}
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) List(ctx context.Context, contentType string, page, limit int) ([]*domain.Content, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Content{})
	if contentType != "" {
		query = query.Where("content_type = ?", contentType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contents []*domain.Content
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&contents).Error
	if err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

func (r *contentRepository) FindByIDForUpdate(tx *gorm.DB, id uint64) (*domain.Content, error) {
	var content domain.Content
	// SQLite has no row locks; its single-writer transactions give the same
	// guarantee in tests
	if tx.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.First(&content, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrContentNotFound
		}
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) UpdateEditableFields(tx *gorm.DB, content *domain.Content) error {
	return tx.Model(&domain.Content{}).
		Where("id = ?", content.ID).
		Updates(map[string]interface{}{
			"title":            content.Title,
			"body":             content.Body,
			"excerpt":          content.Excerpt,
			"meta_title":       content.MetaTitle,
			"meta_description": content.MetaDescription,
			"metadata":         content.Metadata,
			"content_hash":     content.ContentHash,
			"updated_by":       content.UpdatedBy,
			"updated_at":       time.Now(),
		}).Error
}

func (r *contentRepository) SetPublicationState(tx *gorm.DB, id uint64, state string) error {
	return tx.Model(&domain.Content{}).
		Where("id = ?", id).
		Update("publication_state", state).Error
}

func (r *contentRepository) SetModeration(tx *gorm.DB, id uint64, status string, moderatedBy *uint64, moderatedAt time.Time) error {
	return tx.Model(&domain.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"moderation_status": status,
			"moderated_by":      moderatedBy,
			"moderated_at":      moderatedAt,
		}).Error
}

func (r *contentRepository) SetUnderReview(ctx context.Context, id uint64, priority int) error {
	return r.db.WithContext(ctx).Model(&domain.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"moderation_status": domain.ModerationUnderReview,
			"review_priority":   priority,
		}).Error
}

func (r *contentRepository) HasDuplicateBody(ctx context.Context, bodyHash string, excludeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Content{}).
		Where("content_hash = ? AND id != ?", bodyHash, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *contentRepository) ListUnderReview(ctx context.Context, limit int) ([]*domain.Content, error) {
	var contents []*domain.Content
	err := r.db.WithContext(ctx).
		Where("moderation_status = ?", domain.ModerationUnderReview).
		Order("review_priority DESC, created_at ASC").
		Limit(limit).
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (r *contentRepository) CountByModerationStatusSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	type statusCount struct {
		ModerationStatus string
		Count            int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&domain.Content{}).
		Select("moderation_status, COUNT(id) AS count").
		Where("moderated_at >= ?", since).
		Group("moderation_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ModerationStatus] = row.Count
	}
	return counts, nil
}
