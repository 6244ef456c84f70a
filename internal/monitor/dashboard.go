package monitor

import (
	"time"

	"threat-monitor/internal/models"
	"threat-monitor/internal/store"
)

const recentAlertLimit = 10

// trendDays is the fixed width of the threat-trend window.
const trendDays = 7

// Aggregator computes point-in-time dashboard statistics from rule and
// alert store snapshots. It never mutates either store.
type Aggregator struct {
	rules  *store.RuleStore
	alerts *store.AlertStore
	now    func() time.Time
}

// NewAggregator constructs a dashboard aggregator over the two stores.
func NewAggregator(rules *store.RuleStore, alerts *store.AlertStore) *Aggregator {
	return &Aggregator{rules: rules, alerts: alerts, now: time.Now}
}

// SetClock overrides the aggregator's time source. Used in tests.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Summary builds the full dashboard snapshot.
func (a *Aggregator) Summary() models.DashboardSummary {
	rules := a.rules.List()
	alerts := a.alerts.List()
	now := a.now()

	s := models.DashboardSummary{
		RecentAlerts:    recent(alerts),
		RulePerformance: rulePerformance(rules, alerts, now),
		ThreatTrends:    threatTrends(alerts, now),
	}

	for _, r := range rules {
		if r.Enabled {
			s.ActiveRuleCount++
		}
		// Sources are owned per rule, so a feed referenced by two rules
		// counts twice here.
		for _, src := range r.Sources {
			s.SourcesTotal++
			if src.Status == models.SourceStatusActive {
				s.SourcesHealthy++
			}
		}
	}

	s.TotalAlerts = len(alerts)
	for _, al := range alerts {
		if al.Severity == models.SeverityCritical {
			s.CriticalAlerts++
		}
		if !al.Status.Resolved() {
			s.UnresolvedAlerts++
		}
	}
	return s
}

func recent(alerts []models.ThreatAlert) []models.ThreatAlert {
	if len(alerts) <= recentAlertLimit {
		return alerts
	}
	return alerts[:recentAlertLimit]
}

// rulePerformance computes trailing-window trigger counts and the false
// positive rate per rule, against alert timestamps.
func rulePerformance(rules []models.MonitoringRule, alerts []models.ThreatAlert, now time.Time) []models.RulePerformance {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	out := make([]models.RulePerformance, 0, len(rules))
	for _, r := range rules {
		perf := models.RulePerformance{RuleID: r.ID, RuleName: r.Name}
		falsePositives := 0
		for _, al := range alerts {
			if al.RuleID != r.ID {
				continue
			}
			perf.TotalAlerts++
			if !al.Timestamp.Before(dayAgo) {
				perf.Triggers24h++
			}
			if !al.Timestamp.Before(weekAgo) {
				perf.Triggers7d++
			}
			if al.Status == models.AlertStatusFalsePositive {
				falsePositives++
			}
		}
		if perf.TotalAlerts > 0 {
			perf.FalsePositiveRate = float64(falsePositives) / float64(perf.TotalAlerts) * 100
		}
		out = append(out, perf)
	}
	return out
}

// threatTrends buckets alerts into exactly seven calendar days, oldest
// first, covering six days ago through today. Day boundaries are
// midnight-to-midnight UTC.
func threatTrends(alerts []models.ThreatAlert, now time.Time) []models.TrendBucket {
	today := now.UTC().Truncate(24 * time.Hour)

	buckets := make([]models.TrendBucket, trendDays)
	starts := make([]time.Time, trendDays)
	for i := 0; i < trendDays; i++ {
		start := today.AddDate(0, 0, i-(trendDays-1))
		starts[i] = start
		buckets[i] = models.TrendBucket{Date: start.Format("2006-01-02")}
	}

	windowStart := starts[0]
	windowEnd := today.AddDate(0, 0, 1)
	for _, al := range alerts {
		ts := al.Timestamp.UTC()
		if ts.Before(windowStart) || !ts.Before(windowEnd) {
			continue
		}
		i := int(ts.Sub(windowStart).Hours() / 24)
		if i < 0 || i >= trendDays {
			continue
		}
		b := &buckets[i]
		switch al.Severity {
		case models.SeverityLow:
			b.Low++
		case models.SeverityMedium:
			b.Medium++
		case models.SeverityHigh:
			b.High++
		case models.SeverityCritical:
			b.Critical++
		}
		b.Total++
	}
	return buckets
}
