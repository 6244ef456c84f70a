package monitor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"threat-monitor/internal/models"
)

// Candidate is one pattern match produced from a single record. A record
// yields at most one candidate no matter how many terms or fields matched.
type Candidate struct {
	Title       string
	Description string
	Indicators  []string
	Context     map[string]any
}

// FieldMapping declares which text fields of a record are tested for a given
// source type and how a matching record is summarized into an alert.
type FieldMapping struct {
	Fields      []string
	Title       func(models.Record) string
	Description func(models.Record) string
}

var (
	fieldMappingsMu sync.RWMutex
	fieldMappings   = map[models.SourceType]FieldMapping{}
)

// RegisterFieldMapping wires a source type into the matcher. Adding a source
// type is a registration, not a code-path change; unregistered types yield
// zero candidates.
func RegisterFieldMapping(t models.SourceType, m FieldMapping) {
	fieldMappingsMu.Lock()
	fieldMappings[t] = m
	fieldMappingsMu.Unlock()
}

func lookupFieldMapping(t models.SourceType) (FieldMapping, bool) {
	fieldMappingsMu.RLock()
	defer fieldMappingsMu.RUnlock()
	m, ok := fieldMappings[t]
	return m, ok
}

func init() {
	RegisterFieldMapping(models.SourceRansomwatch, FieldMapping{
		Fields: []string{"group", "victim"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("Ransomware victim listed: %s", r.Field("victim"))
		},
		Description: func(r models.Record) string {
			return fmt.Sprintf("Group %q listed victim %q on its leak site", r.Field("group"), r.Field("victim"))
		},
	})
	RegisterFieldMapping(models.SourceForums, FieldMapping{
		Fields: []string{"title", "content"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("Forum activity: %s", r.Field("title"))
		},
		Description: func(r models.Record) string {
			return excerpt(r.Field("content"), 200)
		},
	})
	RegisterFieldMapping(models.SourceThreatFox, FieldMapping{
		Fields: []string{"ioc", "malware", "threat_type"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("ThreatFox IOC: %s", r.Field("ioc"))
		},
		Description: func(r models.Record) string {
			return fmt.Sprintf("%s indicator attributed to %s", r.Field("threat_type"), r.Field("malware"))
		},
	})
	RegisterFieldMapping(models.SourceURLHaus, FieldMapping{
		Fields: []string{"url", "host", "threat"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("URLhaus listing: %s", r.Field("host"))
		},
		Description: func(r models.Record) string {
			return fmt.Sprintf("%s serving %s", r.Field("url"), r.Field("threat"))
		},
	})
	RegisterFieldMapping(models.SourceTelegram, FieldMapping{
		Fields: []string{"channel", "text"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("Telegram post in %s", r.Field("channel"))
		},
		Description: func(r models.Record) string {
			return excerpt(r.Field("text"), 200)
		},
	})
	RegisterFieldMapping(models.SourceCustom, FieldMapping{
		Fields: []string{"title", "content"},
		Title: func(r models.Record) string {
			return fmt.Sprintf("Custom feed match: %s", r.Field("title"))
		},
		Description: func(r models.Record) string {
			return excerpt(r.Field("content"), 200)
		},
	})
}

// ruleMatcher is a rule's pattern compiled once per cycle and reused across
// every source and record the rule evaluates.
type ruleMatcher struct {
	terms []string       // keyword mode, lowercased
	re    *regexp.Regexp // regex mode
}

// newRuleMatcher compiles the rule's pattern. An invalid regular expression
// fails here so the orchestrator can skip the rule for the cycle before any
// source call is made.
func newRuleMatcher(rule *models.MonitoringRule) (*ruleMatcher, error) {
	switch rule.MatchType {
	case models.MatchKeywords:
		var terms []string
		for _, t := range strings.Split(rule.Pattern, "|") {
			t = strings.TrimSpace(t)
			if t != "" {
				terms = append(terms, strings.ToLower(t))
			}
		}
		if len(terms) == 0 {
			return nil, fmt.Errorf("keyword pattern %q has no terms", rule.Pattern)
		}
		return &ruleMatcher{terms: terms}, nil
	case models.MatchRegex:
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", rule.Pattern, err)
		}
		return &ruleMatcher{re: re}, nil
	default:
		return nil, fmt.Errorf("unknown match type %q", rule.MatchType)
	}
}

// MatchRecords evaluates one source's records and returns the candidate
// matches. Source types without a field mapping yield zero candidates.
func (m *ruleMatcher) MatchRecords(sourceType models.SourceType, records []models.Record) []Candidate {
	mapping, ok := lookupFieldMapping(sourceType)
	if !ok {
		return nil
	}

	var out []Candidate
	for _, rec := range records {
		indicators := m.matchRecord(mapping.Fields, rec)
		if len(indicators) == 0 {
			continue
		}
		out = append(out, Candidate{
			Title:       mapping.Title(rec),
			Description: mapping.Description(rec),
			Indicators:  indicators,
			Context:     rec.Raw,
		})
	}
	return out
}

// matchRecord returns the matched values across the mapped fields, or nil
// when the record does not match.
func (m *ruleMatcher) matchRecord(fields []string, rec models.Record) []string {
	var indicators []string
	seen := map[string]bool{}
	for _, f := range fields {
		v := rec.Field(f)
		if v == "" {
			continue
		}
		var hit string
		if m.re != nil {
			hit = m.re.FindString(v)
		} else {
			lower := strings.ToLower(v)
			for _, term := range m.terms {
				if strings.Contains(lower, term) {
					hit = v
					break
				}
			}
		}
		if hit != "" && !seen[hit] {
			seen[hit] = true
			indicators = append(indicators, hit)
		}
	}
	return indicators
}

// excerpt truncates s to at most max bytes, backing off to the previous
// rune boundary so multibyte text never gets split mid-character.
func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
