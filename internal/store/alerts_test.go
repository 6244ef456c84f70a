package store

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
)

func sampleAlertDraft() models.AlertDraft {
	return models.AlertDraft{
		RuleID:      "rule-1",
		RuleName:    "Ransomware watch",
		Severity:    models.SeverityCritical,
		Title:       "Ransomware victim listed: Acme Corp",
		Description: "Group LockBit listed victim Acme Corp",
		Source:      "Ransomwatch",
		Indicators:  []string{"LockBit"},
		Context:     map[string]any{"group_name": "LockBit"},
	}
}

func TestAlertStoreAppend(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	alert := s.Append(sampleAlertDraft())

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, models.AlertStatusNew, alert.Status)
	assert.NotNil(t, alert.Notes)
	assert.Empty(t, alert.Notes)
	assert.False(t, alert.Timestamp.IsZero())
}

func TestAlertStoreNotesStayEmptyNotNil(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	alert := s.Append(sampleAlertDraft())

	got, ok := s.Get(alert.ID)
	require.True(t, ok)
	require.NotNil(t, got.Notes)
	assert.Empty(t, got.Notes)

	list := s.List()
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Notes)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"notes":[]`)
}

func TestAlertStoreListMostRecentFirst(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	first := s.Append(sampleAlertDraft())
	second := s.Append(sampleAlertDraft())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAlertStoreConcurrentAppendUniqueIDs(t *testing.T) {
	s := NewAlertStore(logging.Nop())

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(sampleAlertDraft())
		}()
	}
	wg.Wait()

	list := s.List()
	require.Len(t, list, n)
	seen := map[string]bool{}
	for _, a := range list {
		assert.False(t, seen[a.ID], "duplicate alert id %s", a.ID)
		seen[a.ID] = true
	}
}

func TestAlertStoreUpdateStatusPreservesImmutableFields(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	alert := s.Append(sampleAlertDraft())

	assignee := "analyst"
	updated, ok := s.UpdateStatus(alert.ID, models.AlertStatusInvestigating, &assignee)
	require.True(t, ok)
	assert.Equal(t, models.AlertStatusInvestigating, updated.Status)
	assert.Equal(t, "analyst", updated.Assignee)

	_, ok = s.AddNote(alert.ID, "analyst", "looking into it")
	require.True(t, ok)

	got, ok := s.Get(alert.ID)
	require.True(t, ok)
	assert.Equal(t, alert.RuleID, got.RuleID)
	assert.True(t, got.Timestamp.Equal(alert.Timestamp))
	assert.Equal(t, alert.Indicators, got.Indicators)
	assert.Equal(t, alert.Context, got.Context)
}

func TestAlertStoreUpdateStatusNotFound(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	_, ok := s.UpdateStatus("missing", models.AlertStatusResolved, nil)
	assert.False(t, ok)
}

func TestAlertStoreAddNote(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	alert := s.Append(sampleAlertDraft())

	updated, ok := s.AddNote(alert.ID, "analyst", "confirmed victim")
	require.True(t, ok)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "analyst", updated.Notes[0].Author)
	assert.Equal(t, "confirmed victim", updated.Notes[0].Content)
	assert.False(t, updated.Notes[0].Timestamp.IsZero())

	_, ok = s.AddNote("missing", "analyst", "nope")
	assert.False(t, ok)
}

func TestAlertStoreSubscribe(t *testing.T) {
	s := NewAlertStore(logging.Nop())

	var received []models.ThreatAlert
	unsubscribe := s.Subscribe(func(a models.ThreatAlert) {
		received = append(received, a)
	})

	first := s.Append(sampleAlertDraft())
	require.Len(t, received, 1)
	assert.Equal(t, first.ID, received[0].ID)

	unsubscribe()
	s.Append(sampleAlertDraft())
	assert.Len(t, received, 1)
}

func TestAlertStorePanickingListenerIsolated(t *testing.T) {
	s := NewAlertStore(logging.Nop())

	s.Subscribe(func(models.ThreatAlert) {
		panic("listener exploded")
	})
	called := false
	s.Subscribe(func(models.ThreatAlert) {
		called = true
	})

	require.NotPanics(t, func() {
		s.Append(sampleAlertDraft())
	})
	assert.True(t, called, "second listener must still run")
	assert.Len(t, s.List(), 1, "store must not be corrupted")
}

func TestAlertStoreDraftTimestampOverride(t *testing.T) {
	s := NewAlertStore(logging.Nop())
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	draft := sampleAlertDraft()
	draft.Timestamp = ts
	alert := s.Append(draft)
	assert.True(t, alert.Timestamp.Equal(ts))
}
