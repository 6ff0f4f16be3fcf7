package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/domain"
)

// ModerationLogRepository append-only moderation audit trail. No update or
// delete methods exist on purpose.
type ModerationLogRepository interface {
	Append(tx *gorm.DB, entry *domain.ModerationLog) error
	ListByContent(ctx context.Context, contentID uint64, limit int) ([]*domain.ModerationLog, error)
	CountSince(ctx context.Context, since time.Time, automated bool) (int64, error)
}

type moderationLogRepository struct {
	db *gorm.DB
}

// NewModerationLogRepository creates a new ModerationLogRepository
func NewModerationLogRepository(db *gorm.DB) ModerationLogRepository {
	return &moderationLogRepository{db: db}
}

func (r *moderationLogRepository) Append(tx *gorm.DB, entry *domain.ModerationLog) error {
	return tx.Create(entry).Error
}

func (r *moderationLogRepository) ListByContent(ctx context.Context, contentID uint64, limit int) ([]*domain.ModerationLog, error) {
	var entries []*domain.ModerationLog
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *moderationLogRepository) CountSince(ctx context.Context, since time.Time, automated bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ModerationLog{}).
		Where("created_at >= ? AND is_automated = ?", since, automated).
		Count(&count).Error
	return count, err
}
