package migration

import (
	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/domain"
)

// Run executes AutoMigrate for the content, version and moderation tables.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Content{},
		&domain.ContentVersion{},
		&domain.ModerationLog{},
	)
}
