package monitor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-monitor/internal/models"
)

func keywordRule(pattern string) *models.MonitoringRule {
	return &models.MonitoringRule{
		Name:      "test",
		MatchType: models.MatchKeywords,
		Pattern:   pattern,
	}
}

func regexRule(pattern string) *models.MonitoringRule {
	return &models.MonitoringRule{
		Name:      "test",
		MatchType: models.MatchRegex,
		Pattern:   pattern,
	}
}

func victimRecord(group, victim string) models.Record {
	return models.Record{
		Fields: map[string]string{"group": group, "victim": victim},
		Raw:    map[string]any{"group_name": group, "post_title": victim},
	}
}

func TestKeywordMatchCaseInsensitive(t *testing.T) {
	m, err := newRuleMatcher(keywordRule("lockbit|blackcat"))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceRansomwatch, []models.Record{
		victimRecord("LockBit", "Acme Corp"),
	})
	require.Len(t, cands, 1)
	assert.Contains(t, cands[0].Title, "Acme Corp")
	assert.Equal(t, []string{"LockBit"}, cands[0].Indicators)
	assert.Equal(t, "LockBit", cands[0].Context["group_name"])
}

func TestKeywordTermsTrimmed(t *testing.T) {
	m, err := newRuleMatcher(keywordRule(" lockbit | blackcat "))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceRansomwatch, []models.Record{
		victimRecord("BlackCat", "Initech"),
	})
	assert.Len(t, cands, 1)
}

func TestKeywordNoMatch(t *testing.T) {
	m, err := newRuleMatcher(keywordRule("lockbit|blackcat"))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceRansomwatch, []models.Record{
		victimRecord("Cl0p", "Initech"),
	})
	assert.Empty(t, cands)
}

func TestRecordYieldsAtMostOneCandidate(t *testing.T) {
	// both fields match different terms; the record still produces a
	// single candidate
	m, err := newRuleMatcher(keywordRule("lockbit|acme"))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceRansomwatch, []models.Record{
		victimRecord("LockBit", "Acme Corp"),
	})
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"LockBit", "Acme Corp"}, cands[0].Indicators)
}

func TestRegexMatchCaseInsensitive(t *testing.T) {
	m, err := newRuleMatcher(regexRule(`cve-20\d{2}-\d{4,7}`))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceForums, []models.Record{
		{
			Fields: map[string]string{
				"title":   "Exploit drop",
				"content": "PoC for CVE-2024-12345 attached",
			},
			Raw: map[string]any{},
		},
	})
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"CVE-2024-12345"}, cands[0].Indicators)
}

func TestInvalidRegexFailsAtCompile(t *testing.T) {
	_, err := newRuleMatcher(regexRule("(unclosed"))
	assert.Error(t, err)
}

func TestEmptyKeywordPatternRejected(t *testing.T) {
	_, err := newRuleMatcher(keywordRule(" | "))
	assert.Error(t, err)
}

func TestUnmappedSourceTypeYieldsNoCandidates(t *testing.T) {
	m, err := newRuleMatcher(keywordRule("lockbit"))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceGitHub, []models.Record{
		{Fields: map[string]string{"title": "lockbit sample"}},
	})
	assert.Empty(t, cands)
}

func TestExcerptKeepsRuneBoundaries(t *testing.T) {
	m, err := newRuleMatcher(keywordRule("lockbit"))
	require.NoError(t, err)

	content := "lockbit партнёрская программа " + strings.Repeat("ж", 200)
	cands := m.MatchRecords(models.SourceForums, []models.Record{
		{Fields: map[string]string{"title": "thread", "content": content}},
	})
	require.Len(t, cands, 1)
	assert.True(t, utf8.ValidString(cands[0].Description),
		"truncation must not split a multibyte rune")
	assert.True(t, strings.HasSuffix(cands[0].Description, "..."))
}

func TestMatchSkipsEmptyFields(t *testing.T) {
	m, err := newRuleMatcher(keywordRule("lockbit"))
	require.NoError(t, err)

	cands := m.MatchRecords(models.SourceForums, []models.Record{
		{Fields: map[string]string{"title": "", "content": "lockbit affiliate panel"}},
	})
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"lockbit affiliate panel"}, cands[0].Indicators)
}
