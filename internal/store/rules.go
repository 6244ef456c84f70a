package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"threat-monitor/internal/models"
)

// RuleStore holds the set of monitoring rules and their trigger bookkeeping.
// Every accessor returns independent copies so callers never observe
// mutation of stored records.
type RuleStore struct {
	mu    sync.RWMutex
	rules []models.MonitoringRule
}

// NewRuleStore creates an empty rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// List returns a snapshot copy of all rules in insertion order.
func (s *RuleStore) List() []models.MonitoringRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MonitoringRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Clone())
	}
	return out
}

// Get returns a copy of the rule with the given id.
func (s *RuleStore) Get(id string) (models.MonitoringRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			return s.rules[i].Clone(), true
		}
	}
	return models.MonitoringRule{}, false
}

// Add assigns identity and timestamps, initializes trigger bookkeeping,
// stores the rule and returns the full record.
func (s *RuleStore) Add(draft models.RuleCreate) models.MonitoringRule {
	now := time.Now()
	rule := models.MonitoringRule{
		ID:              uuid.New().String(),
		Name:            draft.Name,
		Description:     draft.Description,
		MatchType:       draft.MatchType,
		Pattern:         draft.Pattern,
		Enabled:         true,
		Severity:        draft.Severity,
		Sources:         append([]models.MonitoringSource(nil), draft.Sources...),
		Actions:         append([]models.AlertAction(nil), draft.Actions...),
		CooldownMinutes: draft.CooldownMinutes,
		TriggerCount:    0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if draft.Enabled != nil {
		rule.Enabled = *draft.Enabled
	}
	for i := range rule.Sources {
		if rule.Sources[i].ID == "" {
			rule.Sources[i].ID = uuid.New().String()
		}
		if rule.Sources[i].Status == "" {
			rule.Sources[i].Status = models.SourceStatusActive
		}
	}

	s.mu.Lock()
	s.rules = append(s.rules, rule)
	s.mu.Unlock()
	return rule.Clone()
}

// Update merges the non-nil patch fields into the rule, refreshes UpdatedAt
// and returns the updated copy. The second result is false when no rule has
// the given id.
func (s *RuleStore) Update(id string, patch models.RulePatch) (models.MonitoringRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}
		r := &s.rules[i]
		if patch.Name != nil {
			r.Name = *patch.Name
		}
		if patch.Description != nil {
			r.Description = *patch.Description
		}
		if patch.MatchType != nil {
			r.MatchType = *patch.MatchType
		}
		if patch.Pattern != nil {
			r.Pattern = *patch.Pattern
		}
		if patch.Enabled != nil {
			r.Enabled = *patch.Enabled
		}
		if patch.Severity != nil {
			r.Severity = *patch.Severity
		}
		if patch.Sources != nil {
			r.Sources = append([]models.MonitoringSource(nil), (*patch.Sources)...)
			for j := range r.Sources {
				if r.Sources[j].ID == "" {
					r.Sources[j].ID = uuid.New().String()
				}
				if r.Sources[j].Status == "" {
					r.Sources[j].Status = models.SourceStatusActive
				}
			}
		}
		if patch.Actions != nil {
			r.Actions = append([]models.AlertAction(nil), (*patch.Actions)...)
		}
		if patch.CooldownMinutes != nil {
			r.CooldownMinutes = *patch.CooldownMinutes
		}
		r.UpdatedAt = time.Now()
		return r.Clone(), true
	}
	return models.MonitoringRule{}, false
}

// Delete removes the rule and reports whether it existed.
func (s *RuleStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return true
		}
	}
	return false
}

// RecordTrigger advances the rule's cooldown window after a cycle that
// produced alerts. Cycles with zero matches never call this, so the window
// only ever extends from a real trigger.
func (s *RuleStore) RecordTrigger(id string, at time.Time, produced int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			t := at
			s.rules[i].LastTriggeredAt = &t
			s.rules[i].TriggerCount += produced
			s.rules[i].UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// RecordSourceCheck records the outcome of one source fetch against the
// rule's embedded source configuration.
func (s *RuleStore) RecordSourceCheck(ruleID, sourceID string, at time.Time, fetchErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID != ruleID {
			continue
		}
		for j := range s.rules[i].Sources {
			src := &s.rules[i].Sources[j]
			if src.ID != sourceID {
				continue
			}
			t := at
			src.LastCheckedAt = &t
			if fetchErr != nil {
				src.Status = models.SourceStatusError
				src.ErrorMessage = fetchErr.Error()
			} else {
				src.Status = models.SourceStatusActive
				src.ErrorMessage = ""
			}
			return true
		}
		return false
	}
	return false
}
