package monitor

import (
	"threat-monitor/internal/models"
)

// DefaultRules returns the built-in monitoring rules seeded on startup.
// They are ordinary rules, not hardwired behavior: operators can edit or
// delete every one of them.
func DefaultRules() []models.RuleCreate {
	return []models.RuleCreate{
		{
			Name:        "Ransomware group activity",
			Description: "Watches leak-site listings and forum chatter for active ransomware operations",
			MatchType:   models.MatchKeywords,
			Pattern:     "lockbit|blackcat|alphv|cl0p|akira|play|bianlian|royal",
			Severity:    models.SeverityCritical,
			Sources: []models.MonitoringSource{
				{Name: "Ransomwatch leak sites", Type: models.SourceRansomwatch, Enabled: true, RefreshIntervalMinutes: 30},
				{Name: "Underground forums", Type: models.SourceForums, Enabled: true, RefreshIntervalMinutes: 60},
			},
			Actions: []models.AlertAction{
				{Type: models.ActionUI, Enabled: true},
				{Type: models.ActionLog, Enabled: true},
			},
			CooldownMinutes: 60,
		},
		{
			Name:        "Stealer malware chatter",
			Description: "Tracks mentions of commodity infostealer families",
			MatchType:   models.MatchKeywords,
			Pattern:     "redline|raccoon|vidar|lumma|stealc",
			Severity:    models.SeverityHigh,
			Sources: []models.MonitoringSource{
				{Name: "Underground forums", Type: models.SourceForums, Enabled: true, RefreshIntervalMinutes: 60},
				{Name: "Telegram channels", Type: models.SourceTelegram, Enabled: true, RefreshIntervalMinutes: 15},
			},
			Actions: []models.AlertAction{
				{Type: models.ActionUI, Enabled: true},
			},
			CooldownMinutes: 120,
		},
		{
			Name:        "Data breach mentions",
			Description: "Flags offers of leaked databases and credential dumps",
			MatchType:   models.MatchKeywords,
			Pattern:     "database leak|data breach|fullz|combo list|stealer logs",
			Severity:    models.SeverityHigh,
			Sources: []models.MonitoringSource{
				{Name: "Underground forums", Type: models.SourceForums, Enabled: true, RefreshIntervalMinutes: 60},
				{Name: "Paste sites", Type: models.SourcePastebin, Enabled: false, RefreshIntervalMinutes: 30},
			},
			Actions: []models.AlertAction{
				{Type: models.ActionUI, Enabled: true},
			},
			CooldownMinutes: 240,
		},
		{
			Name:        "CVE exploitation watch",
			Description: "Catches CVE identifiers discussed alongside exploit chatter",
			MatchType:   models.MatchRegex,
			Pattern:     `CVE-20\d{2}-\d{4,7}`,
			Severity:    models.SeverityMedium,
			Sources: []models.MonitoringSource{
				{Name: "Underground forums", Type: models.SourceForums, Enabled: true, RefreshIntervalMinutes: 60},
				{Name: "GitHub activity", Type: models.SourceGitHub, Enabled: false, RefreshIntervalMinutes: 120},
			},
			Actions: []models.AlertAction{
				{Type: models.ActionUI, Enabled: true},
			},
			CooldownMinutes: 1440,
		},
		{
			Name:        "Cobalt Strike infrastructure",
			Description: "Watches IOC feeds for fresh Cobalt Strike beacons and team servers",
			MatchType:   models.MatchKeywords,
			Pattern:     "cobalt strike|cobaltstrike|beacon|team server",
			Severity:    models.SeverityHigh,
			Sources: []models.MonitoringSource{
				{Name: "ThreatFox IOCs", Type: models.SourceThreatFox, Enabled: true, RefreshIntervalMinutes: 60},
				{Name: "URLhaus payloads", Type: models.SourceURLHaus, Enabled: true, RefreshIntervalMinutes: 60},
			},
			Actions: []models.AlertAction{
				{Type: models.ActionUI, Enabled: true},
				{Type: models.ActionLog, Enabled: true},
			},
			CooldownMinutes: 720,
		},
	}
}
