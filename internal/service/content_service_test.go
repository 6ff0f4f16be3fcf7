package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
	"github.com/naebak/content-service/internal/repository"
	"github.com/naebak/content-service/pkg/cache"
	"github.com/naebak/content-service/pkg/fingerprint"
)

func newTestContentService(db *gorm.DB) *ContentService {
	contentRepo := repository.NewContentRepository(db)
	versions := newTestVersionService(db, 50)
	moderation := newTestModerationService(db)
	return NewContentService(db, contentRepo, versions, moderation)
}

// memoryCache implements cache.Service over a plain map so cache behavior can
// be asserted without Redis
type memoryCache struct {
	store map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.store[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = data
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.store, key)
	}
	return nil
}

func (m *memoryCache) GetQueue(ctx context.Context, limit int, dest interface{}) error {
	return m.Get(ctx, cache.PrefixQueue+"q", dest)
}

func (m *memoryCache) SetQueue(ctx context.Context, limit int, data interface{}) error {
	return m.Set(ctx, cache.PrefixQueue+"q", data, 0)
}

func (m *memoryCache) GetStats(ctx context.Context, days int, dest interface{}) error {
	return m.Get(ctx, cache.PrefixStats+"s", dest)
}

func (m *memoryCache) SetStats(ctx context.Context, days int, data interface{}) error {
	return m.Set(ctx, cache.PrefixStats+"s", data, 0)
}

func (m *memoryCache) InvalidateModeration(ctx context.Context) error {
	for key := range m.store {
		if strings.HasPrefix(key, cache.PrefixQueue) || strings.HasPrefix(key, cache.PrefixStats) {
			delete(m.store, key)
		}
	}
	return nil
}

func (m *memoryCache) GetContent(ctx context.Context, contentID uint64, dest interface{}) error {
	return m.Get(ctx, cache.ContentKey(contentID), dest)
}

func (m *memoryCache) SetContent(ctx context.Context, contentID uint64, data interface{}) error {
	return m.Set(ctx, cache.ContentKey(contentID), data, 0)
}

func (m *memoryCache) GetContentBySlug(ctx context.Context, slug string, dest interface{}) error {
	return m.Get(ctx, cache.ContentSlugKey(slug), dest)
}

func (m *memoryCache) SetContentBySlug(ctx context.Context, slug string, data interface{}) error {
	return m.Set(ctx, cache.ContentSlugKey(slug), data, 0)
}

func (m *memoryCache) InvalidateContent(ctx context.Context, contentID uint64, slug string) error {
	return m.Delete(ctx, cache.ContentKey(contentID), cache.ContentSlugKey(slug))
}

func (m *memoryCache) IsAvailable() bool { return true }

func TestCreateContent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	content, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug:        "about-us",
		ContentType: domain.ContentTypePage,
		Title:       "من نحن",
		Body:        "صفحة تعريفية عن الموقع",
		Metadata:    map[string]interface{}{"layout": "wide"},
	})
	if err != nil {
		t.Fatalf("CreateContent failed: %v", err)
	}

	if content.PublicationState != domain.PublicationDraft {
		t.Errorf("publication state = %q, want draft", content.PublicationState)
	}
	if content.ModerationStatus != domain.ModerationPending {
		t.Errorf("moderation status = %q, want pending", content.ModerationStatus)
	}
	if content.ContentHash != fingerprint.Body(content.Body) {
		t.Error("content hash must fingerprint the body")
	}
	if content.AuthorID != 1 || content.UpdatedBy != 1 {
		t.Errorf("author/updater not stamped: %+v", content)
	}
}

func TestCreateContent_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	if _, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "x", ContentType: "video", Title: "t", Body: "b",
	}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("bad content type: expected ErrInvalidInput, got %v", err)
	}

	if _, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "x", ContentType: domain.ContentTypePage, Title: "t", Body: "   ",
	}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("blank body: expected ErrInvalidInput, got %v", err)
	}

	if _, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "taken", ContentType: domain.ContentTypePage, Title: "t", Body: "نص أول",
	}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "taken", ContentType: domain.ContentTypePage, Title: "t", Body: "نص ثان",
	}); !errors.Is(err, common.ErrSlugTaken) {
		t.Errorf("duplicate slug: expected ErrSlugTaken, got %v", err)
	}
}

func TestUpdateContent_SnapshotsBeforeMutation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	content, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug:        "post-1",
		ContentType: domain.ContentTypeArticle,
		Title:       "العنوان الأصلي",
		Body:        "النص الأصلي",
	})
	if err != nil {
		t.Fatalf("CreateContent failed: %v", err)
	}

	newTitle := "عنوان محدث"
	newBody := "نص محدث بالكامل"
	updated, err := svc.UpdateContent(ctx, content.ID, 2, &UpdateContentRequest{
		Title: &newTitle,
		Body:  &newBody,
	})
	if err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	if updated.Title != newTitle || updated.Body != newBody {
		t.Errorf("fields not applied: %+v", updated)
	}
	if updated.ContentHash != fingerprint.Body(newBody) {
		t.Error("content hash must track the new body")
	}
	if updated.UpdatedBy != 2 {
		t.Errorf("updated_by = %d, want 2", updated.UpdatedBy)
	}

	// The snapshot taken inside the same transaction holds the old state
	var version domain.ContentVersion
	if err := db.Where("content_id = ?", content.ID).Order("version_number DESC").First(&version).Error; err != nil {
		t.Fatalf("expected a pre-edit snapshot: %v", err)
	}
	if version.Title != "العنوان الأصلي" || version.Body != "النص الأصلي" {
		t.Errorf("snapshot holds %q/%q, want the pre-edit state", version.Title, version.Body)
	}
	if version.VersionType != domain.VersionAuto {
		t.Errorf("snapshot type = %q, want auto", version.VersionType)
	}
}

func TestUpdateContent_PartialEdit(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	content, _ := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug:        "post-2",
		ContentType: domain.ContentTypeArticle,
		Title:       "عنوان ثابت",
		Body:        "نص ثابت",
		Excerpt:     "مقتطف",
	})

	newExcerpt := "مقتطف جديد"
	updated, err := svc.UpdateContent(ctx, content.ID, 1, &UpdateContentRequest{Excerpt: &newExcerpt})
	if err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	if updated.Title != "عنوان ثابت" || updated.Body != "نص ثابت" {
		t.Error("nil pointer fields must stay untouched")
	}
	if updated.Excerpt != newExcerpt {
		t.Errorf("excerpt = %q, want %q", updated.Excerpt, newExcerpt)
	}
}

func TestUpdateContent_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	blank := " "
	if _, err := svc.UpdateContent(ctx, 1, 1, &UpdateContentRequest{Body: &blank}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("blank body: expected ErrInvalidInput, got %v", err)
	}

	title := "x"
	if _, err := svc.UpdateContent(ctx, 999, 1, &UpdateContentRequest{Title: &title}); !errors.Is(err, common.ErrContentNotFound) {
		t.Errorf("missing content: expected ErrContentNotFound, got %v", err)
	}
}

func TestPublish_CleanContent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	content, _ := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug:        "news-1",
		ContentType: domain.ContentTypeArticle,
		Title:       "خبر عادي",
		Body:        "تفاصيل خبر عادي عن الطقس",
	})

	result, err := svc.Publish(ctx, content.ID, 1)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if result.Content.PublicationState != domain.PublicationPublished {
		t.Errorf("publication state = %q, want published", result.Content.PublicationState)
	}
	if result.Queued != nil {
		t.Fatal("clean content must not queue for review")
	}
	if result.Moderation == nil || result.Moderation.Status != domain.ModerationApproved {
		t.Errorf("moderation outcome = %+v, want automated approval", result.Moderation)
	}

	// Publishing records a durable milestone version
	var version domain.ContentVersion
	if err := db.Where("content_id = ? AND version_type = ?", content.ID, domain.VersionPublish).First(&version).Error; err != nil {
		t.Fatalf("expected a publish milestone version: %v", err)
	}
}

func TestPublish_SuspiciousContentQueues(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	content, _ := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug:        "news-2",
		ContentType: domain.ContentTypeArticle,
		Title:       "خبر مشكوك فيه",
		Body:        "ادعاءات خطيرة بدون مصدر",
	})

	result, err := svc.Publish(ctx, content.ID, 1)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Publication succeeds; moderation suspends awaiting a human decision
	if result.Content.PublicationState != domain.PublicationPublished {
		t.Errorf("publication state = %q, want published", result.Content.PublicationState)
	}
	if result.Queued == nil {
		t.Fatal("expected content to queue for human review")
	}
	if result.Content.ModerationStatus != domain.ModerationUnderReview {
		t.Errorf("moderation status = %q, want under_review", result.Content.ModerationStatus)
	}
}

func TestListContent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	svc.CreateContent(ctx, 1, &CreateContentRequest{Slug: "p1", ContentType: domain.ContentTypePage, Title: "a", Body: "نص صفحة"})
	svc.CreateContent(ctx, 1, &CreateContentRequest{Slug: "a1", ContentType: domain.ContentTypeArticle, Title: "b", Body: "نص مقال"})
	svc.CreateContent(ctx, 1, &CreateContentRequest{Slug: "a2", ContentType: domain.ContentTypeArticle, Title: "c", Body: "نص مقال آخر"})

	articles, total, err := svc.ListContent(ctx, domain.ContentTypeArticle, 1, 10)
	if err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if total != 2 || len(articles) != 2 {
		t.Errorf("expected 2 articles, got total=%d len=%d", total, len(articles))
	}

	all, total, err := svc.ListContent(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("ListContent failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("expected 3 items, got total=%d len=%d", total, len(all))
	}
}

func TestGetContent_CachedReads(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	mc := newMemoryCache()
	svc.SetCache(mc)
	ctx := context.Background()

	content, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "cached", ContentType: domain.ContentTypePage, Title: "العنوان الأول", Body: "نص للقراءة المتكررة",
	})
	if err != nil {
		t.Fatalf("CreateContent failed: %v", err)
	}

	first, err := svc.GetContent(ctx, content.ID)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if _, ok := mc.store[cache.ContentKey(content.ID)]; !ok {
		t.Fatal("a read must fill the content cache entry")
	}

	// Change the row behind the cache's back; the cached copy is still served
	if err := db.Model(&domain.Content{}).Where("id = ?", content.ID).Update("title", "عنوان خلفي").Error; err != nil {
		t.Fatalf("direct update failed: %v", err)
	}
	second, err := svc.GetContent(ctx, content.ID)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if second.Title != first.Title {
		t.Errorf("expected the cached copy, got title %q", second.Title)
	}

	// An update through the service invalidates, so the next read is fresh
	newTitle := "عنوان جديد"
	if _, err := svc.UpdateContent(ctx, content.ID, 1, &UpdateContentRequest{Title: &newTitle}); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}
	third, err := svc.GetContent(ctx, content.ID)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if third.Title != newTitle {
		t.Errorf("title = %q, want %q after invalidation", third.Title, newTitle)
	}
}

func TestGetContentBySlug_CachedReads(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	mc := newMemoryCache()
	svc.SetCache(mc)
	ctx := context.Background()

	content, err := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "cached-slug", ContentType: domain.ContentTypePage, Title: "t", Body: "نص",
	})
	if err != nil {
		t.Fatalf("CreateContent failed: %v", err)
	}

	if _, err := svc.GetContentBySlug(ctx, "cached-slug"); err != nil {
		t.Fatalf("GetContentBySlug failed: %v", err)
	}
	if _, ok := mc.store[cache.ContentSlugKey("cached-slug")]; !ok {
		t.Fatal("a slug read must fill the slug cache entry")
	}

	// Invalidation drops the slug key alongside the id key
	body := "نص معدل"
	if _, err := svc.UpdateContent(ctx, content.ID, 1, &UpdateContentRequest{Body: &body}); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}
	if _, ok := mc.store[cache.ContentSlugKey("cached-slug")]; ok {
		t.Error("an update must drop the slug cache entry")
	}

	fresh, err := svc.GetContentBySlug(ctx, "cached-slug")
	if err != nil {
		t.Fatalf("GetContentBySlug failed: %v", err)
	}
	if fresh.Body != body {
		t.Errorf("body = %q, want the updated body", fresh.Body)
	}
}

func TestModerate_InvalidatesContentCache(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestModerationService(db)
	mc := newMemoryCache()
	svc.SetCache(mc)
	ctx := context.Background()

	content := seedContent(t, db, "cached-mod", "نص سليم عن الطقس")
	if err := mc.SetContent(ctx, content.ID, content); err != nil {
		t.Fatalf("prefill cache failed: %v", err)
	}

	if _, _, err := svc.Moderate(ctx, content.ID, nil, ""); err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if _, ok := mc.store[cache.ContentKey(content.ID)]; ok {
		t.Error("a moderation decision must drop the content cache entry")
	}
}

func TestGetContentBySlug(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestContentService(db)
	ctx := context.Background()

	created, _ := svc.CreateContent(ctx, 1, &CreateContentRequest{
		Slug: "findme", ContentType: domain.ContentTypePage, Title: "t", Body: "نص",
	})

	found, err := svc.GetContentBySlug(ctx, "findme")
	if err != nil {
		t.Fatalf("GetContentBySlug failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found id %d, want %d", found.ID, created.ID)
	}

	if _, err := svc.GetContentBySlug(ctx, "ghost"); !errors.Is(err, common.ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
}
