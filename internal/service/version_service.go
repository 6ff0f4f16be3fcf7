package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
	"github.com/naebak/content-service/internal/repository"
	"github.com/naebak/content-service/pkg/fingerprint"
	"github.com/naebak/content-service/pkg/logger"
)

// pruneSlack: pruning deletes down to cap minus this many slots so it does
// not run on every single insert once the cap is reached
const pruneSlack = 5

var validVersionTypes = map[string]bool{
	domain.VersionAuto:           true,
	domain.VersionManual:         true,
	domain.VersionPublish:        true,
	domain.VersionRollback:       true,
	domain.VersionRollbackBackup: true,
}

// VersionService maintains the append-only numbered snapshot history of
// content items and performs diffs and rollbacks
type VersionService struct {
	db          *gorm.DB
	contentRepo repository.ContentRepository
	versionRepo repository.VersionRepository
	maxVersions int
}

// NewVersionService creates a new VersionService
func NewVersionService(db *gorm.DB, contentRepo repository.ContentRepository, versionRepo repository.VersionRepository, maxVersions int) *VersionService {
	return &VersionService{
		db:          db,
		contentRepo: contentRepo,
		versionRepo: versionRepo,
		maxVersions: maxVersions,
	}
}

// CreateVersion snapshots the current state of a content item. The content
// row is locked for the duration of the transaction, so concurrent calls for
// the same content id serialize and version numbers stay contiguous.
func (s *VersionService) CreateVersion(ctx context.Context, contentID, userID uint64, versionType, notes string) (*domain.VersionMeta, error) {
	if !validVersionTypes[versionType] {
		return nil, fmt.Errorf("%w: unknown version type %q", common.ErrInvalidInput, versionType)
	}

	var created *domain.ContentVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content, err := s.contentRepo.FindByIDForUpdate(tx, contentID)
		if err != nil {
			return err
		}

		created, err = s.snapshotLocked(tx, content, userID, versionType, notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.VersionMeta{
		VersionID:     created.ID,
		VersionNumber: created.VersionNumber,
		CreatedAt:     created.CreatedAt,
	}, nil
}

// snapshotLocked appends a snapshot of the given content and prunes old
// versions. The caller must hold the row lock on the content row within tx.
func (s *VersionService) snapshotLocked(tx *gorm.DB, content *domain.Content, userID uint64, versionType, notes string) (*domain.ContentVersion, error) {
	next, err := s.versionRepo.NextVersionNumber(tx, content.ID)
	if err != nil {
		return nil, err
	}

	version := &domain.ContentVersion{
		ContentID:       content.ID,
		VersionNumber:   next,
		Title:           content.Title,
		Body:            content.Body,
		Excerpt:         content.Excerpt,
		MetaTitle:       content.MetaTitle,
		MetaDescription: content.MetaDescription,
		Metadata:        content.Metadata,
		ContentHash:     fingerprint.Snapshot(content.Title, content.Body, content.Metadata),
		VersionType:     versionType,
		Notes:           notes,
		CreatedBy:       userID,
	}
	if err := s.versionRepo.Insert(tx, version); err != nil {
		return nil, err
	}

	if err := s.pruneLocked(tx, content.ID); err != nil {
		return nil, err
	}

	return version, nil
}

// pruneLocked removes the oldest non-publish versions once the count reaches
// the configured cap, keeping cap-pruneSlack rows. Publish milestones are
// never deleted; version numbers are never reused.
func (s *VersionService) pruneLocked(tx *gorm.DB, contentID uint64) error {
	count, err := s.versionRepo.CountByContent(tx, contentID)
	if err != nil {
		return err
	}
	if count < int64(s.maxVersions) {
		return nil
	}

	deleteCount := int(count) - s.maxVersions + pruneSlack
	return s.versionRepo.PruneOldest(tx, contentID, deleteCount)
}

// GetVersionHistory returns version summaries, newest first. Each entry
// reports whether its snapshot fingerprint differs from the immediately
// preceding version.
func (s *VersionService) GetVersionHistory(ctx context.Context, contentID uint64, limit int) ([]domain.VersionSummary, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if _, err := s.contentRepo.FindByID(ctx, contentID); err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.History(ctx, contentID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.VersionSummary, len(versions))
	for i, version := range versions {
		hasChanges := true
		if i+1 < len(versions) {
			hasChanges = version.ContentHash != versions[i+1].ContentHash
		} else {
			// Oldest fetched row: its predecessor may exist beyond the page
			preceding, err := s.versionRepo.FindPreceding(ctx, contentID, version.VersionNumber)
			if err != nil {
				return nil, err
			}
			if preceding != nil {
				hasChanges = version.ContentHash != preceding.ContentHash
			}
		}

		summaries[i] = domain.VersionSummary{
			ID:            version.ID,
			VersionNumber: version.VersionNumber,
			VersionType:   version.VersionType,
			Notes:         version.Notes,
			CreatedBy:     version.CreatedBy,
			CreatedAt:     version.CreatedAt,
			HasChanges:    hasChanges,
		}
	}

	return summaries, nil
}

// GetVersionDetail returns the full snapshot for a version id
func (s *VersionService) GetVersionDetail(ctx context.Context, versionID uint64) (*domain.ContentVersion, error) {
	return s.versionRepo.FindByID(ctx, versionID)
}

// CompareVersions diffs two versions of the same content item. Body values
// are reported as lengths only; full values are included for short fields.
func (s *VersionService) CompareVersions(ctx context.Context, fromID, toID uint64) (*domain.VersionDiff, error) {
	from, err := s.versionRepo.FindByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.versionRepo.FindByID(ctx, toID)
	if err != nil {
		return nil, err
	}

	if from.ContentID != to.ContentID {
		return nil, common.ErrVersionContentMismatch
	}

	diff := &domain.VersionDiff{
		ContentID:       from.ContentID,
		FromVersion:     from.VersionNumber,
		ToVersion:       to.VersionNumber,
		TitleChanged:    from.Title != to.Title,
		BodyChanged:     from.Body != to.Body,
		MetadataChanged: from.Metadata != to.Metadata,
		Changes:         []domain.FieldChange{},
	}

	if diff.TitleChanged {
		diff.Changes = append(diff.Changes, domain.FieldChange{
			Field:    "title",
			OldValue: from.Title,
			NewValue: to.Title,
		})
	}

	if diff.BodyChanged {
		diff.Changes = append(diff.Changes, domain.FieldChange{
			Field:      "body",
			ChangeType: "content_modified",
			OldLength:  len(from.Body),
			NewLength:  len(to.Body),
		})
	}

	return diff, nil
}

// Rollback restores a content item from a chosen version. One transaction:
// backup snapshot of live state, field restore, then a rollback snapshot of
// the new live state. The backup makes the rollback itself undoable.
func (s *VersionService) Rollback(ctx context.Context, contentID, versionID, userID uint64) (*domain.RollbackResult, error) {
	version, err := s.versionRepo.FindByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.ContentID != contentID {
		return nil, common.ErrVersionContentMismatch
	}

	var result *domain.RollbackResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content, err := s.contentRepo.FindByIDForUpdate(tx, contentID)
		if err != nil {
			return err
		}

		backupNote := fmt.Sprintf("Backup before rollback to version %d", version.VersionNumber)
		if _, err := s.snapshotLocked(tx, content, userID, domain.VersionRollbackBackup, backupNote); err != nil {
			return err
		}

		content.Title = version.Title
		content.Body = version.Body
		content.Excerpt = version.Excerpt
		content.MetaTitle = version.MetaTitle
		content.MetaDescription = version.MetaDescription
		content.Metadata = version.Metadata
		content.ContentHash = fingerprint.Body(version.Body)
		content.UpdatedBy = userID
		if err := s.contentRepo.UpdateEditableFields(tx, content); err != nil {
			return err
		}

		rollbackNote := fmt.Sprintf("Rolled back to version %d", version.VersionNumber)
		rollbackVersion, err := s.snapshotLocked(tx, content, userID, domain.VersionRollback, rollbackNote)
		if err != nil {
			return err
		}

		result = &domain.RollbackResult{
			RolledBackTo: version.VersionNumber,
			NewVersion:   rollbackVersion.VersionNumber,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) || errors.Is(err, common.ErrVersionNotFound) {
			return nil, err
		}
		logger.Get().Error().Err(err).Uint64("content_id", contentID).Uint64("version_id", versionID).Msg("rollback failed")
		return nil, fmt.Errorf("%w: %v", common.ErrRollbackFailure, err)
	}

	return result, nil
}
