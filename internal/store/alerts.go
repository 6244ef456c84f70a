package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
)

// Listener receives every alert appended to the store.
type Listener func(models.ThreatAlert)

// AlertStore holds the ordered list of emitted alerts, most-recent-first,
// and fans new alerts out to subscribed listeners.
type AlertStore struct {
	mu        sync.RWMutex
	alerts    []models.ThreatAlert
	listeners map[int]Listener
	nextSub   int
	logger    *logging.Logger
}

// NewAlertStore creates an empty alert store.
func NewAlertStore(logger *logging.Logger) *AlertStore {
	return &AlertStore{
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Append assigns identity, sets the initial lifecycle state, inserts the
// alert at the head of the list and synchronously notifies all subscribed
// listeners. Identity assignment and insertion are atomic with respect to
// concurrent appends.
func (s *AlertStore) Append(draft models.AlertDraft) models.ThreatAlert {
	ts := draft.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	alert := models.ThreatAlert{
		ID:          uuid.New().String(),
		RuleID:      draft.RuleID,
		RuleName:    draft.RuleName,
		Timestamp:   ts,
		Severity:    draft.Severity,
		Title:       draft.Title,
		Description: draft.Description,
		Source:      draft.Source,
		Indicators:  append([]string(nil), draft.Indicators...),
		Context:     draft.Context,
		Status:      models.AlertStatusNew,
		Notes:       []models.AlertNote{},
	}

	s.mu.Lock()
	s.alerts = append([]models.ThreatAlert{alert}, s.alerts...)
	subs := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	stored := alert.Clone()
	for _, fn := range subs {
		s.notify(fn, stored)
	}
	return stored
}

// notify isolates one listener invocation so a panicking listener cannot
// prevent delivery to the others.
func (s *AlertStore) notify(fn Listener, alert models.ThreatAlert) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Alert listener panicked: %v", r)
		}
	}()
	fn(alert.Clone())
}

// List returns a snapshot copy of all alerts, most-recent-first.
func (s *AlertStore) List() []models.ThreatAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ThreatAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a.Clone())
	}
	return out
}

// Get returns a copy of the alert with the given id.
func (s *AlertStore) Get(id string) (models.ThreatAlert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			return s.alerts[i].Clone(), true
		}
	}
	return models.ThreatAlert{}, false
}

// UpdateStatus changes the alert's lifecycle state in place. The assignee is
// updated when non-nil. Returns false when the id is unknown.
func (s *AlertStore) UpdateStatus(id string, status models.AlertStatus, assignee *string) (models.ThreatAlert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Status = status
			if assignee != nil {
				s.alerts[i].Assignee = *assignee
			}
			return s.alerts[i].Clone(), true
		}
	}
	return models.ThreatAlert{}, false
}

// AddNote appends a timestamped note to the alert's investigation log.
// Returns false when the id is unknown.
func (s *AlertStore) AddNote(id, author, content string) (models.ThreatAlert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Notes = append(s.alerts[i].Notes, models.AlertNote{
				Author:    author,
				Content:   content,
				Timestamp: time.Now(),
			})
			return s.alerts[i].Clone(), true
		}
	}
	return models.ThreatAlert{}, false
}

// Subscribe registers a listener invoked synchronously on every Append and
// returns the matching unsubscribe function.
func (s *AlertStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
