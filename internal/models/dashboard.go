package models

// RulePerformance summarizes one rule's recent output, computed against
// alert timestamps rather than rule metadata.
type RulePerformance struct {
	RuleID            string  `json:"rule_id"`
	RuleName          string  `json:"rule_name"`
	Triggers24h       int     `json:"triggers_24h"`
	Triggers7d        int     `json:"triggers_7d"`
	TotalAlerts       int     `json:"total_alerts"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// TrendBucket is one calendar day of alert volume broken down by severity.
// Day boundaries are midnight-to-midnight UTC.
type TrendBucket struct {
	Date     string `json:"date"`
	Low      int    `json:"low"`
	Medium   int    `json:"medium"`
	High     int    `json:"high"`
	Critical int    `json:"critical"`
	Total    int    `json:"total"`
}

// DashboardSummary is the point-in-time snapshot served to the UI layer.
type DashboardSummary struct {
	ActiveRuleCount  int               `json:"active_rule_count"`
	TotalAlerts      int               `json:"total_alerts"`
	CriticalAlerts   int               `json:"critical_alerts"`
	UnresolvedAlerts int               `json:"unresolved_alerts"`
	SourcesHealthy   int               `json:"sources_healthy"`
	SourcesTotal     int               `json:"sources_total"`
	RecentAlerts     []ThreatAlert     `json:"recent_alerts"`
	RulePerformance  []RulePerformance `json:"rule_performance"`
	ThreatTrends     []TrendBucket     `json:"threat_trends"`
}
