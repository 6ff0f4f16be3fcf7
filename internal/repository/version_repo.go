package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
)

// VersionRepository content version data access. Rows are immutable once
// written; the only delete path is pruning of old non-milestone versions.
type VersionRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.ContentVersion, error)
	History(ctx context.Context, contentID uint64, limit int) ([]*domain.ContentVersion, error)
	FindPreceding(ctx context.Context, contentID uint64, versionNumber int) (*domain.ContentVersion, error)

	// Transactional methods. The caller holds a row lock on the owning
	// content row, which serializes numbering per content id.
	NextVersionNumber(tx *gorm.DB, contentID uint64) (int, error)
	Insert(tx *gorm.DB, version *domain.ContentVersion) error
	CountByContent(tx *gorm.DB, contentID uint64) (int64, error)
	PruneOldest(tx *gorm.DB, contentID uint64, deleteCount int) error
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) FindByID(ctx context.Context, id uint64) (*domain.ContentVersion, error) {
	var version domain.ContentVersion
	err := r.db.WithContext(ctx).First(&version, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrVersionNotFound
		}
		return nil, err
	}
	return &version, nil
}

func (r *versionRepository) History(ctx context.Context, contentID uint64, limit int) ([]*domain.ContentVersion, error) {
	var versions []*domain.ContentVersion
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("version_number DESC").
		Limit(limit).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// FindPreceding returns the version with the highest number below
// versionNumber, or nil if none exists
func (r *versionRepository) FindPreceding(ctx context.Context, contentID uint64, versionNumber int) (*domain.ContentVersion, error) {
	var version domain.ContentVersion
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND version_number < ?", contentID, versionNumber).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

func (r *versionRepository) NextVersionNumber(tx *gorm.DB, contentID uint64) (int, error) {
	var maxVersion *int
	err := tx.Model(&domain.ContentVersion{}).
		Where("content_id = ?", contentID).
		Select("MAX(version_number)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	if maxVersion == nil {
		return 1, nil
	}
	return *maxVersion + 1, nil
}

func (r *versionRepository) Insert(tx *gorm.DB, version *domain.ContentVersion) error {
	return tx.Create(version).Error
}

func (r *versionRepository) CountByContent(tx *gorm.DB, contentID uint64) (int64, error) {
	var count int64
	err := tx.Model(&domain.ContentVersion{}).
		Where("content_id = ?", contentID).
		Count(&count).Error
	return count, err
}

// PruneOldest deletes up to deleteCount of the oldest versions, skipping
// publish milestones which are retained indefinitely
func (r *versionRepository) PruneOldest(tx *gorm.DB, contentID uint64, deleteCount int) error {
	if deleteCount <= 0 {
		return nil
	}

	var ids []uint64
	err := tx.Model(&domain.ContentVersion{}).
		Where("content_id = ? AND version_type != ?", contentID, domain.VersionPublish).
		Order("version_number ASC").
		Limit(deleteCount).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	return tx.Delete(&domain.ContentVersion{}, ids).Error
}
