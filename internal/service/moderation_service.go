package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/naebak/content-service/internal/common"
	"github.com/naebak/content-service/internal/domain"
	"github.com/naebak/content-service/internal/repository"
	"github.com/naebak/content-service/pkg/cache"
	"github.com/naebak/content-service/pkg/fingerprint"
	"github.com/naebak/content-service/pkg/logger"
)

// Deliberately simple, deterministic rule-based matching. This is not an NLP
// classifier and must stay reproducible for audit purposes.
var (
	inappropriateWords = []string{
		"كلمات غير لائقة", "محتوى مسيء", "لغة عدائية",
	}

	biasIndicators = []string{
		"متطرف", "عدو", "خائن", "فاسد", "مؤامرة",
	}

	factualConcernPhrases = []string{
		"بدون مصدر", "شائعات", "غير مؤكد", "قيل أن",
	}

	promoWords = []string{
		"اشتري", "خصم", "عرض", "مجاني", "اتصل الآن",
	}
)

// Score thresholds for individual checks
const (
	biasTriggerThreshold = 0.7
	spamLinkLimit        = 3

	inappropriateConfidence = 0.9
	factualConfidence       = 0.6
	duplicateConfidence     = 0.8
)

// ModerationService evaluates content against the rule catalog and applies
// moderation decisions. The rule catalog is read-only after construction.
type ModerationService struct {
	db          *gorm.DB
	contentRepo repository.ContentRepository
	logRepo     repository.ModerationLogRepository
	rules       []domain.ModerationRule
	cache       cache.Service

	humanReviewThreshold float64
	spamTriggerThreshold float64
}

// NewModerationService creates a new ModerationService
func NewModerationService(
	db *gorm.DB,
	contentRepo repository.ContentRepository,
	logRepo repository.ModerationLogRepository,
	rules []domain.ModerationRule,
	humanReviewThreshold, spamTriggerThreshold float64,
) *ModerationService {
	return &ModerationService{
		db:                   db,
		contentRepo:          contentRepo,
		logRepo:              logRepo,
		rules:                rules,
		humanReviewThreshold: humanReviewThreshold,
		spamTriggerThreshold: spamTriggerThreshold,
	}
}

// SetCache sets the cache service (optional dependency)
func (s *ModerationService) SetCache(c cache.Service) {
	s.cache = c
}

func (s *ModerationService) ruleByName(name string) (domain.ModerationRule, bool) {
	for _, rule := range s.rules {
		if rule.Name == name {
			return rule, true
		}
	}
	return domain.ModerationRule{}, false
}

// Evaluate runs all automated checks against a content item. Checks are
// independent; overall confidence is the maximum of the fired scores, or 1.0
// when nothing fired (fully confident the content is clean). Max rather than
// average: any single strong signal should dominate.
func (s *ModerationService) Evaluate(ctx context.Context, content *domain.Content) (*domain.EvaluationResult, error) {
	result := &domain.EvaluationResult{}
	var confidences []float64

	trigger := func(name string, confidence float64, recommendation string) {
		rule, ok := s.ruleByName(name)
		if !ok {
			return
		}
		result.TriggeredRules = append(result.TriggeredRules, rule)
		confidences = append(confidences, confidence)
		result.Recommendations = append(result.Recommendations, recommendation)
	}

	if checkInappropriateLanguage(content.Body) {
		trigger(domain.RuleInappropriateLanguage, inappropriateConfidence, "Review language for appropriateness")
	}

	result.BiasScore = checkPoliticalBias(content.Body)
	if result.BiasScore > biasTriggerThreshold {
		trigger(domain.RulePoliticalBias, result.BiasScore, "Review for political neutrality")
	}

	if checkFactualConcerns(content.Body) {
		trigger(domain.RuleFactualAccuracy, factualConfidence, "Verify factual claims")
	}

	result.SpamScore = checkSpamIndicators(content.Body)
	if result.SpamScore > s.spamTriggerThreshold {
		trigger(domain.RuleSpamContent, result.SpamScore, "Content appears promotional")
	}

	isDuplicate, err := s.contentRepo.HasDuplicateBody(ctx, fingerprint.Body(content.Body), content.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check: %v", common.ErrModerationFailure, err)
	}
	if isDuplicate {
		trigger(domain.RuleDuplicateContent, duplicateConfidence, "Similar content exists")
	}

	result.Confidence = 1.0
	if len(confidences) > 0 {
		result.Confidence = confidences[0]
		for _, c := range confidences[1:] {
			if c > result.Confidence {
				result.Confidence = c
			}
		}
	}

	return result, nil
}

func checkInappropriateLanguage(body string) bool {
	lower := strings.ToLower(body)
	for _, word := range inappropriateWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// checkPoliticalBias counts indicator phrase occurrences, score capped at 1.0
func checkPoliticalBias(body string) float64 {
	lower := strings.ToLower(body)
	matches := 0
	for _, indicator := range biasIndicators {
		if strings.Contains(lower, indicator) {
			matches++
		}
	}
	score := float64(matches) * 0.3
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func checkFactualConcerns(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range factualConcernPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// checkSpamIndicators returns a weighted spam score in [0,1]:
// +0.3 for more than 3 link markers, +0.2 per promotional phrase match,
// +0.4 when less than half of the words are unique.
func checkSpamIndicators(body string) float64 {
	score := 0.0

	if strings.Count(body, "http") > spamLinkLimit {
		score += 0.3
	}

	lower := strings.ToLower(body)
	for _, word := range promoWords {
		if strings.Contains(lower, word) {
			score += 0.2
		}
	}

	words := strings.Fields(body)
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique)) < float64(len(words))*0.5 {
			score += 0.4
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Moderate runs one moderation cycle for a content item.
//
// Without a moderator id, content needing human review transitions to
// under_review and a QueuedResult is returned; the caller finalizes later by
// re-invoking with a moderator id and an explicit decision. Otherwise the
// final status is persisted together with exactly one audit log entry, in one
// transaction.
func (s *ModerationService) Moderate(ctx context.Context, contentID uint64, moderatorID *uint64, decision string) (*domain.ModerationResult, *domain.QueuedResult, error) {
	content, err := s.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		return nil, nil, err
	}

	evaluation, err := s.Evaluate(ctx, content)
	if err != nil {
		return nil, nil, err
	}

	needsHumanReview := evaluation.Confidence < s.humanReviewThreshold
	for _, rule := range evaluation.TriggeredRules {
		if rule.RequiresHumanReview {
			needsHumanReview = true
			break
		}
	}

	if needsHumanReview && moderatorID == nil {
		queued, err := s.queueForReview(ctx, content, evaluation)
		if err != nil {
			return nil, nil, err
		}
		return nil, queued, nil
	}

	finalStatus, err := s.determineFinalStatus(evaluation, moderatorID, decision)
	if err != nil {
		return nil, nil, err
	}

	if err := s.persistDecision(ctx, content.ID, finalStatus, moderatorID, evaluation); err != nil {
		return nil, nil, err
	}

	s.invalidateCache(ctx, content)

	return &domain.ModerationResult{
		Status:           finalStatus,
		Confidence:       evaluation.Confidence,
		TriggeredRules:   evaluation.RuleNames(),
		Recommendations:  evaluation.Recommendations,
		NeedsHumanReview: needsHumanReview,
	}, nil, nil
}

// queueForReview parks the content for human review. Suspend point, not a
// failure: no audit entry is written until a decision is made.
func (s *ModerationService) queueForReview(ctx context.Context, content *domain.Content, evaluation *domain.EvaluationResult) (*domain.QueuedResult, error) {
	priority := reviewPriority(evaluation)

	if err := s.contentRepo.SetUnderReview(ctx, content.ID, priority); err != nil {
		return nil, fmt.Errorf("%w: queue for review: %v", common.ErrModerationFailure, err)
	}

	s.invalidateCache(ctx, content)

	return &domain.QueuedResult{
		Status:     domain.QueuedStatus,
		Priority:   priority,
		Evaluation: evaluation,
	}, nil
}

// reviewPriority ranks review urgency 1-5, 5 being highest
func reviewPriority(evaluation *domain.EvaluationResult) int {
	for _, rule := range evaluation.TriggeredRules {
		if rule.Severity == domain.SeverityHigh || rule.Severity == domain.SeverityCritical {
			return 5
		}
	}
	if evaluation.Confidence < 0.3 {
		return 4
	}
	if len(evaluation.TriggeredRules) > 2 {
		return 3
	}
	return 2
}

// determineFinalStatus resolves the final moderation status. A human decision
// must be explicit; the engine never infers approval from the mere presence
// of a moderator id.
func (s *ModerationService) determineFinalStatus(evaluation *domain.EvaluationResult, moderatorID *uint64, decision string) (string, error) {
	if moderatorID != nil {
		switch decision {
		case domain.DecisionApprove:
			return domain.ModerationApproved, nil
		case domain.DecisionReject:
			return domain.ModerationRejected, nil
		case domain.DecisionFlag:
			return domain.ModerationFlagged, nil
		case "":
			return "", common.ErrDecisionRequired
		default:
			return "", common.ErrInvalidDecision
		}
	}

	// Automated decision: only high/critical rules carry enough weight to
	// reject or flag; reject wins over flag.
	hasFlag := false
	for _, rule := range evaluation.TriggeredRules {
		if rule.Severity != domain.SeverityHigh && rule.Severity != domain.SeverityCritical {
			continue
		}
		switch rule.AutoAction {
		case domain.AutoActionReject:
			return domain.ModerationRejected, nil
		case domain.AutoActionFlag:
			hasFlag = true
		}
	}
	if hasFlag {
		return domain.ModerationFlagged, nil
	}
	return domain.ModerationApproved, nil
}

// persistDecision writes the status change and the audit log entry in one
// transaction. No partial writes: either both land or neither does.
func (s *ModerationService) persistDecision(ctx context.Context, contentID uint64, status string, moderatorID *uint64, evaluation *domain.EvaluationResult) error {
	details, err := json.Marshal(map[string]interface{}{
		"triggered_rules": evaluation.RuleNames(),
		"confidence":      evaluation.Confidence,
		"recommendations": evaluation.Recommendations,
		"scores": map[string]float64{
			"bias": evaluation.BiasScore,
			"spam": evaluation.SpamScore,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: marshal details: %v", common.ErrModerationFailure, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := s.contentRepo.SetModeration(tx, contentID, status, moderatorID, now); err != nil {
			return err
		}
		return s.logRepo.Append(tx, &domain.ModerationLog{
			ContentID:   contentID,
			ModeratorID: moderatorID,
			Action:      status,
			Details:     string(details),
			IsAutomated: moderatorID == nil,
		})
	})
	if err != nil {
		logger.Get().Error().Err(err).Uint64("content_id", contentID).Msg("moderation persist failed")
		return fmt.Errorf("%w: %v", common.ErrModerationFailure, err)
	}
	return nil
}

// GetModerationQueue returns content awaiting human review, highest priority
// first, oldest first within a priority
func (s *ModerationService) GetModerationQueue(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if s.cache != nil {
		var cached []domain.ReviewQueueItem
		if err := s.cache.GetQueue(ctx, limit, &cached); err == nil {
			return cached, nil
		}
	}

	contents, err := s.contentRepo.ListUnderReview(ctx, limit)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReviewQueueItem, len(contents))
	for i, content := range contents {
		items[i] = domain.ReviewQueueItem{
			ID:        content.ID,
			Title:     content.Title,
			Author:    content.AuthorName,
			CreatedAt: content.CreatedAt,
			Priority:  content.ReviewPriority,
			Type:      content.ContentType,
		}
	}

	if s.cache != nil {
		_ = s.cache.SetQueue(ctx, limit, items)
	}

	return items, nil
}

// GetModerationStats returns moderation statistics for the given trailing
// period in days
func (s *ModerationService) GetModerationStats(ctx context.Context, days int) (*domain.ModerationStats, error) {
	if days < 1 || days > 365 {
		days = 30
	}

	if s.cache != nil {
		var cached domain.ModerationStats
		if err := s.cache.GetStats(ctx, days, &cached); err == nil {
			return &cached, nil
		}
	}

	since := time.Now().AddDate(0, 0, -days)

	distribution, err := s.contentRepo.CountByModerationStatusSince(ctx, since)
	if err != nil {
		return nil, err
	}

	automated, err := s.logRepo.CountSince(ctx, since, true)
	if err != nil {
		return nil, err
	}
	manual, err := s.logRepo.CountSince(ctx, since, false)
	if err != nil {
		return nil, err
	}

	total := automated + manual
	rate := 0.0
	if total > 0 {
		rate = float64(automated) / float64(total)
	}

	stats := &domain.ModerationStats{
		PeriodDays:         days,
		StatusDistribution: distribution,
		AutomatedDecisions: automated,
		ManualDecisions:    manual,
		TotalModerated:     total,
		AutomationRate:     rate,
	}

	if s.cache != nil {
		_ = s.cache.SetStats(ctx, days, stats)
	}

	return stats, nil
}

// GetModerationHistory returns the audit trail for one content item, newest
// first
func (s *ModerationService) GetModerationHistory(ctx context.Context, contentID uint64, limit int) ([]*domain.ModerationLog, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if _, err := s.contentRepo.FindByID(ctx, contentID); err != nil {
		return nil, err
	}

	return s.logRepo.ListByContent(ctx, contentID, limit)
}

// invalidateCache drops the moderation dashboards and the content item's own
// cache entries; a decision changes what both would return
func (s *ModerationService) invalidateCache(ctx context.Context, content *domain.Content) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateModeration(ctx); err != nil {
		logger.Get().Warn().Err(err).Msg("moderation cache invalidation failed")
	}
	if err := s.cache.InvalidateContent(ctx, content.ID, content.Slug); err != nil {
		logger.Get().Warn().Err(err).Msg("content cache invalidation failed")
	}
}
