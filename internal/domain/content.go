package domain

import "time"

// Content type discriminator. Pages and articles share one table and are
// treated uniformly by moderation and versioning.
const (
	ContentTypePage    = "page"
	ContentTypeArticle = "article"
)

// Publication status axis, owned by the content-serving layer.
// Moderation never touches this field.
const (
	PublicationDraft     = "draft"
	PublicationPublished = "published"
	PublicationArchived  = "archived"
)

// Moderation status axis, owned by the moderation engine.
const (
	ModerationPending     = "pending"
	ModerationApproved    = "approved"
	ModerationRejected    = "rejected"
	ModerationFlagged     = "flagged"
	ModerationUnderReview = "under_review"
)

// Content represents a page or article managed by the content service
type Content struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug             string     `gorm:"column:slug;type:varchar(100);uniqueIndex" json:"slug"`
	ContentType      string     `gorm:"column:content_type;type:varchar(20)" json:"content_type"`
	Title            string     `gorm:"column:title;type:varchar(200)" json:"title"`
	Body             string     `gorm:"column:body;type:mediumtext" json:"body"`
	Excerpt          string     `gorm:"column:excerpt;type:varchar(500)" json:"excerpt"`
	MetaTitle        string     `gorm:"column:meta_title;type:varchar(200)" json:"meta_title"`
	MetaDescription  string     `gorm:"column:meta_description;type:varchar(300)" json:"meta_description"`
	Metadata         string     `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	AuthorID         uint64     `gorm:"column:author_id" json:"author_id"`
	AuthorName       string     `gorm:"column:author_name;type:varchar(100)" json:"author_name"`
	PublicationState string     `gorm:"column:publication_state;type:varchar(20);default:draft" json:"publication_state"`
	ModerationStatus string     `gorm:"column:moderation_status;type:varchar(20);default:pending;index" json:"moderation_status"`
	ReviewPriority   int        `gorm:"column:review_priority;default:0" json:"review_priority"`
	ContentHash      string     `gorm:"column:content_hash;type:char(64);index" json:"content_hash"`
	ModeratedBy      *uint64    `gorm:"column:moderated_by" json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time `gorm:"column:moderated_at" json:"moderated_at,omitempty"`
	UpdatedBy        uint64     `gorm:"column:updated_by" json:"updated_by"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Content) TableName() string { return "contents" }

// ReviewQueueItem is one row of the human review queue
type ReviewQueueItem struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Priority  int       `json:"priority"`
	Type      string    `json:"type"`
}
