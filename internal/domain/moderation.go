package domain

import "time"

// Rule severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Automatic actions a rule may carry
const (
	AutoActionFlag   = "flag"
	AutoActionReject = "reject"
)

// Explicit human moderation decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionFlag    = "flag"
)

// ModerationRule is an immutable catalog entry. The catalog is built once at
// process start and shared read-only.
type ModerationRule struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	Severity            string `json:"severity"`
	AutoAction          string `json:"auto_action,omitempty"`
	RequiresHumanReview bool   `json:"requires_human_review"`
}

// Rule names referenced by the engine checks
const (
	RuleInappropriateLanguage = "inappropriate_language"
	RulePoliticalBias         = "political_bias"
	RuleFactualAccuracy       = "factual_accuracy"
	RuleSpamContent           = "spam_content"
	RuleDuplicateContent      = "duplicate_content"
)

// DefaultModerationRules returns the ordered rule catalog
func DefaultModerationRules() []ModerationRule {
	return []ModerationRule{
		{
			Name:                RuleInappropriateLanguage,
			Description:         "Content contains inappropriate or offensive language",
			Severity:            SeverityHigh,
			AutoAction:          AutoActionFlag,
			RequiresHumanReview: true,
		},
		{
			Name:                RulePoliticalBias,
			Description:         "Content shows extreme political bias",
			Severity:            SeverityMedium,
			RequiresHumanReview: true,
		},
		{
			Name:                RuleFactualAccuracy,
			Description:         "Content may contain factual inaccuracies",
			Severity:            SeverityHigh,
			RequiresHumanReview: true,
		},
		{
			Name:        RuleSpamContent,
			Description: "Content appears to be spam or promotional",
			Severity:    SeverityMedium,
			AutoAction:  AutoActionReject,
		},
		{
			Name:        RuleDuplicateContent,
			Description: "Content is duplicate or near-duplicate",
			Severity:    SeverityLow,
			AutoAction:  AutoActionFlag,
		},
	}
}

// ModerationLog is an append-only audit record of a moderation decision.
// Rows are never updated or deleted.
type ModerationLog struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentID   uint64    `gorm:"column:content_id;index" json:"content_id"`
	ModeratorID *uint64   `gorm:"column:moderator_id" json:"moderator_id,omitempty"`
	Action      string    `gorm:"column:action;type:varchar(20)" json:"action"`
	Details     string    `gorm:"column:details;type:json" json:"details,omitempty"`
	IsAutomated bool      `gorm:"column:is_automated" json:"is_automated"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (ModerationLog) TableName() string { return "moderation_logs" }

// EvaluationResult is the output of the automated rule engine
type EvaluationResult struct {
	TriggeredRules  []ModerationRule `json:"triggered_rules"`
	Confidence      float64          `json:"confidence"`
	Recommendations []string         `json:"recommendations"`
	BiasScore       float64          `json:"bias_score"`
	SpamScore       float64          `json:"spam_score"`
}

// RuleNames returns the names of the triggered rules
func (r *EvaluationResult) RuleNames() []string {
	names := make([]string, len(r.TriggeredRules))
	for i, rule := range r.TriggeredRules {
		names[i] = rule.Name
	}
	return names
}

// ModerationResult is returned when a moderation cycle finishes with a decision
type ModerationResult struct {
	Status           string   `json:"status"`
	Confidence       float64  `json:"confidence"`
	TriggeredRules   []string `json:"triggered_rules"`
	Recommendations  []string `json:"recommendations"`
	NeedsHumanReview bool     `json:"needs_human_review"`
}

// QueuedResult is returned when content is parked for human review. This is a
// suspend point, not a failure: the caller re-invokes with a moderator
// decision to finalize.
type QueuedResult struct {
	Status     string            `json:"status"`
	Priority   int               `json:"priority"`
	Evaluation *EvaluationResult `json:"auto_analysis"`
}

// QueuedStatus marks a QueuedResult
const QueuedStatus = "queued_for_review"

// ModerationStats summarizes moderation activity over a period
type ModerationStats struct {
	PeriodDays         int              `json:"period_days"`
	StatusDistribution map[string]int64 `json:"status_distribution"`
	AutomatedDecisions int64            `json:"automated_decisions"`
	ManualDecisions    int64            `json:"manual_decisions"`
	TotalModerated     int64            `json:"total_moderated"`
	AutomationRate     float64          `json:"automation_rate"`
}
