package models

import (
	"time"
)

// MatchType selects how a rule's pattern is interpreted.
type MatchType string

const (
	MatchKeywords MatchType = "keywords" // "|"-delimited literal terms
	MatchRegex    MatchType = "regex"    // regular expression, compiled case-insensitively
)

// Valid reports whether the match type is one of the known values.
func (m MatchType) Valid() bool {
	return m == MatchKeywords || m == MatchRegex
}

// Severity is the coarse threat rating assigned to rules and propagated
// to the alerts they produce.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SourceType identifies an indicator feed kind. Types without a registered
// adapter or field mapping are accepted but produce no matches.
type SourceType string

const (
	SourceThreatFox   SourceType = "threatfox"
	SourceURLHaus     SourceType = "urlhaus"
	SourceRansomwatch SourceType = "ransomwatch"
	SourceForums      SourceType = "forums"
	SourceTelegram    SourceType = "telegram"
	SourceGitHub      SourceType = "github"
	SourcePastebin    SourceType = "pastebin"
	SourceCustom      SourceType = "custom"
)

// SourceStatus tracks the health of one configured source.
type SourceStatus string

const (
	SourceStatusActive SourceStatus = "active"
	SourceStatusError  SourceStatus = "error"
	SourceStatusPaused SourceStatus = "paused"
)

// MonitoringSource is a named, typed feed a rule polls for matching records.
// Each rule owns its own source configuration by value.
type MonitoringSource struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	Type                   SourceType   `json:"source_type"`
	Enabled                bool         `json:"enabled"`
	RefreshIntervalMinutes int          `json:"refresh_interval_minutes"`
	LastCheckedAt          *time.Time   `json:"last_checked_at,omitempty"`
	Status                 SourceStatus `json:"status"`
	ErrorMessage           string       `json:"error_message,omitempty"`
}

// ActionType identifies a delivery channel for fired alerts.
type ActionType string

const (
	ActionWebhook   ActionType = "webhook"
	ActionEmail     ActionType = "email"
	ActionSlack     ActionType = "slack"
	ActionTeams     ActionType = "teams"
	ActionPagerDuty ActionType = "pagerduty"
	ActionLog       ActionType = "log"
	ActionUI        ActionType = "ui"
)

// AlertAction is a delivery directive attached to a rule. Delivery is
// independent of alert persistence and never blocks the emission path.
type AlertAction struct {
	Type    ActionType     `json:"type"`
	Config  map[string]any `json:"config"`
	Enabled bool           `json:"enabled"`
}

// MonitoringRule is one configured watch: a pattern evaluated against a set
// of indicator sources on every monitoring cycle.
type MonitoringRule struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	MatchType       MatchType          `json:"match_type"`
	Pattern         string             `json:"pattern"`
	Enabled         bool               `json:"enabled"`
	Severity        Severity           `json:"severity"`
	Sources         []MonitoringSource `json:"sources"`
	Actions         []AlertAction      `json:"actions"`
	CooldownMinutes int                `json:"cooldown_minutes"`
	LastTriggeredAt *time.Time         `json:"last_triggered_at,omitempty"`
	TriggerCount    int                `json:"trigger_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Cooldown returns the rule's minimum spacing between trigger events.
func (r *MonitoringRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

// InCooldown reports whether the rule is still inside its cooldown window at
// the given instant. Rules that never triggered are never in cooldown.
func (r *MonitoringRule) InCooldown(now time.Time) bool {
	if r.LastTriggeredAt == nil || r.CooldownMinutes <= 0 {
		return false
	}
	return now.Before(r.LastTriggeredAt.Add(r.Cooldown()))
}

// Clone returns a deep copy so store callers never observe shared state.
func (r MonitoringRule) Clone() MonitoringRule {
	out := r
	if r.LastTriggeredAt != nil {
		t := *r.LastTriggeredAt
		out.LastTriggeredAt = &t
	}
	out.Sources = make([]MonitoringSource, len(r.Sources))
	for i, src := range r.Sources {
		out.Sources[i] = src
		if src.LastCheckedAt != nil {
			t := *src.LastCheckedAt
			out.Sources[i].LastCheckedAt = &t
		}
	}
	out.Actions = make([]AlertAction, len(r.Actions))
	for i, act := range r.Actions {
		out.Actions[i] = act
		out.Actions[i].Config = cloneMap(act.Config)
	}
	return out
}

// RuleCreate is the input structure for creating a new monitoring rule.
type RuleCreate struct {
	Name            string             `json:"name" binding:"required"`
	Description     string             `json:"description"`
	MatchType       MatchType          `json:"match_type" binding:"required"`
	Pattern         string             `json:"pattern" binding:"required"`
	Enabled         *bool              `json:"enabled"`
	Severity        Severity           `json:"severity" binding:"required"`
	Sources         []MonitoringSource `json:"sources"`
	Actions         []AlertAction      `json:"actions"`
	CooldownMinutes int                `json:"cooldown_minutes"`
}

// RulePatch is the input structure for partially updating an existing rule.
// Nil fields are left untouched.
type RulePatch struct {
	Name            *string             `json:"name,omitempty"`
	Description     *string             `json:"description,omitempty"`
	MatchType       *MatchType          `json:"match_type,omitempty"`
	Pattern         *string             `json:"pattern,omitempty"`
	Enabled         *bool               `json:"enabled,omitempty"`
	Severity        *Severity           `json:"severity,omitempty"`
	Sources         *[]MonitoringSource `json:"sources,omitempty"`
	Actions         *[]AlertAction      `json:"actions,omitempty"`
	CooldownMinutes *int                `json:"cooldown_minutes,omitempty"`
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
