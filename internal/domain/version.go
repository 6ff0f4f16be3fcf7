package domain

import "time"

// Version types. Publish versions are durable milestones and survive pruning.
const (
	VersionAuto           = "auto"
	VersionManual         = "manual"
	VersionPublish        = "publish"
	VersionRollback       = "rollback"
	VersionRollbackBackup = "rollback_backup"
)

// ContentVersion is an immutable snapshot of a content item's editable fields.
// Version numbers are contiguous and strictly increasing per content id and
// are never reused, even after pruning.
type ContentVersion struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentID       uint64    `gorm:"column:content_id;index:idx_content_version,priority:1" json:"content_id"`
	VersionNumber   int       `gorm:"column:version_number;index:idx_content_version,priority:2" json:"version_number"`
	Title           string    `gorm:"column:title;type:varchar(200)" json:"title"`
	Body            string    `gorm:"column:body;type:mediumtext" json:"body"`
	Excerpt         string    `gorm:"column:excerpt;type:varchar(500)" json:"excerpt"`
	MetaTitle       string    `gorm:"column:meta_title;type:varchar(200)" json:"meta_title"`
	MetaDescription string    `gorm:"column:meta_description;type:varchar(300)" json:"meta_description"`
	Metadata        string    `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	ContentHash     string    `gorm:"column:content_hash;type:char(64)" json:"content_hash"`
	VersionType     string    `gorm:"column:version_type;type:varchar(20)" json:"version_type"`
	Notes           string    `gorm:"column:notes;type:varchar(500)" json:"notes"`
	CreatedBy       uint64    `gorm:"column:created_by" json:"created_by"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ContentVersion) TableName() string { return "content_versions" }

// VersionMeta is returned after creating a version
type VersionMeta struct {
	VersionID     uint64    `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// VersionSummary is one entry of a content item's version history
type VersionSummary struct {
	ID            uint64    `json:"id"`
	VersionNumber int       `json:"version_number"`
	VersionType   string    `json:"version_type"`
	Notes         string    `json:"notes"`
	CreatedBy     uint64    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	HasChanges    bool      `json:"has_changes"`
}

// FieldChange describes one changed field in a version diff. Body values are
// reported as lengths only to keep payloads small.
type FieldChange struct {
	Field      string `json:"field"`
	ChangeType string `json:"change_type,omitempty"`
	OldValue   string `json:"old_value,omitempty"`
	NewValue   string `json:"new_value,omitempty"`
	OldLength  int    `json:"old_length,omitempty"`
	NewLength  int    `json:"new_length,omitempty"`
}

// VersionDiff is the result of comparing two versions of the same content
type VersionDiff struct {
	ContentID       uint64        `json:"content_id"`
	FromVersion     int           `json:"from_version"`
	ToVersion       int           `json:"to_version"`
	TitleChanged    bool          `json:"title_changed"`
	BodyChanged     bool          `json:"body_changed"`
	MetadataChanged bool          `json:"metadata_changed"`
	Changes         []FieldChange `json:"changes"`
}

// RollbackResult reports a completed rollback
type RollbackResult struct {
	RolledBackTo int `json:"rolled_back_to"`
	NewVersion   int `json:"new_version"`
}
