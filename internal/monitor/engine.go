package monitor

import (
	"context"
	"sync"
	"time"

	"threat-monitor/internal/actions"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/sources"
	"threat-monitor/internal/store"
)

// Engine runs monitoring cycles: it walks the enabled rules, applies
// cooldown gating, fetches each rule's enabled sources through the adapter
// registry, matches the records against the rule's pattern and emits alerts
// into the alert store.
//
// Cycles are serialized internally: an invocation that arrives while
// another cycle is running (the manual API trigger racing the background
// poller) waits for it and then observes its cooldown state, so a rule can
// never double-fire across overlapping callers.
type Engine struct {
	rules      *store.RuleStore
	alerts     *store.AlertStore
	registry   *sources.Registry
	dispatcher *actions.Dispatcher
	logger     *logging.Logger

	runMu        sync.Mutex
	fetchTimeout time.Duration
	now          func() time.Time
}

// New constructs an engine. The dispatcher may be nil when no delivery
// channels are configured.
func New(rules *store.RuleStore, alerts *store.AlertStore, registry *sources.Registry, dispatcher *actions.Dispatcher, logger *logging.Logger, fetchTimeout time.Duration) *Engine {
	return &Engine{
		rules:        rules,
		alerts:       alerts,
		registry:     registry,
		dispatcher:   dispatcher,
		logger:       logger,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// SetClock overrides the engine's time source. Used in tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// RunMonitoringCycle evaluates every enabled rule once and returns the
// alerts created during this invocation. The alert store holds them
// independently; the return value is a convenience for the caller.
// Concurrent invocations block until the running cycle finishes.
func (e *Engine) RunMonitoringCycle(ctx context.Context) []models.ThreatAlert {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	created := []models.ThreatAlert{}
	for _, rule := range e.rules.List() {
		if !rule.Enabled {
			continue
		}
		created = append(created, e.evaluateRule(ctx, rule)...)
	}
	return created
}

type fetchResult struct {
	src     models.MonitoringSource
	records []models.Record
	err     error
}

// evaluateRule runs one rule through the full cycle: cooldown gate, source
// fetches, pattern matching, alert emission and trigger bookkeeping.
func (e *Engine) evaluateRule(ctx context.Context, rule models.MonitoringRule) []models.ThreatAlert {
	now := e.now()
	if rule.InCooldown(now) {
		e.logger.Debugf("Rule %q in cooldown until %s, skipping",
			rule.Name, rule.LastTriggeredAt.Add(rule.Cooldown()).Format(time.RFC3339))
		return nil
	}

	matcher, err := newRuleMatcher(&rule)
	if err != nil {
		e.logger.Errorf("Rule %q skipped for this cycle: %v", rule.Name, err)
		return nil
	}

	results := e.fetchSources(ctx, rule)

	var created []models.ThreatAlert
	for _, res := range results {
		e.rules.RecordSourceCheck(rule.ID, res.src.ID, now, res.err)
		if res.err != nil {
			e.logger.Errorf("Rule %q source %q fetch failed: %v", rule.Name, res.src.Name, res.err)
			continue
		}
		for _, cand := range matcher.MatchRecords(res.src.Type, res.records) {
			alert := e.alerts.Append(models.AlertDraft{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Severity:    rule.Severity,
				Title:       cand.Title,
				Description: cand.Description,
				Source:      res.src.Name,
				Indicators:  cand.Indicators,
				Context:     cand.Context,
			})
			created = append(created, alert)
		}
	}

	if len(created) > 0 {
		e.rules.RecordTrigger(rule.ID, now, len(created))
		e.logger.Infof("Rule %q produced %d alert(s)", rule.Name, len(created))
		if e.dispatcher != nil {
			for _, alert := range created {
				e.dispatcher.Dispatch(rule.Actions, alert)
			}
		}
	}
	return created
}

// fetchSources fetches all enabled sources of a rule concurrently. Results
// come back in source order so alert emission stays deterministic. A fetch
// failure is recorded per source and never aborts the rule.
func (e *Engine) fetchSources(ctx context.Context, rule models.MonitoringRule) []fetchResult {
	var enabled []models.MonitoringSource
	for _, src := range rule.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	results := make([]fetchResult, len(enabled))
	var wg sync.WaitGroup
	for i, src := range enabled {
		wg.Add(1)
		go func(i int, src models.MonitoringSource) {
			defer wg.Done()
			results[i] = e.fetchOne(ctx, src)
		}(i, src)
	}
	wg.Wait()
	return results
}

func (e *Engine) fetchOne(ctx context.Context, src models.MonitoringSource) fetchResult {
	adapter, ok := e.registry.Lookup(src.Type)
	if !ok {
		// Intentional extension point: types without an adapter are
		// accepted but produce no records.
		e.logger.Debugf("No adapter registered for source type %q, skipping %q", src.Type, src.Name)
		return fetchResult{src: src}
	}

	fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	records, err := adapter.Fetch(fctx, src)
	return fetchResult{src: src, records: records, err: err}
}
