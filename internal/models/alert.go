package models

import "time"

// AlertStatus is the lifecycle state of a threat alert. Creation always
// starts at "new"; beyond that transitions are unconstrained so operators
// can move alerts freely between states.
type AlertStatus string

const (
	AlertStatusNew           AlertStatus = "new"
	AlertStatusAcknowledged  AlertStatus = "acknowledged"
	AlertStatusInvestigating AlertStatus = "investigating"
	AlertStatusResolved      AlertStatus = "resolved"
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusNew, AlertStatusAcknowledged, AlertStatusInvestigating,
		AlertStatusResolved, AlertStatusFalsePositive:
		return true
	}
	return false
}

// Resolved reports whether the status is terminal.
func (s AlertStatus) Resolved() bool {
	return s == AlertStatusResolved || s == AlertStatusFalsePositive
}

// AlertNote is one entry in an alert's append-only investigation log.
type AlertNote struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ThreatAlert is an emitted match. RuleName and Severity are frozen copies
// taken from the rule at emission time; RuleID, Timestamp, Indicators and
// Context never change after creation. Only Status, Assignee and Notes are
// mutable.
type ThreatAlert struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	RuleName    string         `json:"rule_name"`
	Timestamp   time.Time      `json:"timestamp"`
	Severity    Severity       `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	Indicators  []string       `json:"indicators"`
	Context     map[string]any `json:"context"`
	Status      AlertStatus    `json:"status"`
	Assignee    string         `json:"assignee,omitempty"`
	Notes       []AlertNote    `json:"notes"`
}

// Clone returns a deep copy of the alert. Empty slices stay empty rather
// than collapsing to nil, so a fresh alert's notes serialize as [] and not
// null.
func (a ThreatAlert) Clone() ThreatAlert {
	out := a
	if a.Indicators != nil {
		out.Indicators = append([]string{}, a.Indicators...)
	}
	out.Context = cloneMap(a.Context)
	if a.Notes != nil {
		out.Notes = append([]AlertNote{}, a.Notes...)
	}
	return out
}

// AlertDraft carries the fields the orchestrator provides when emitting an
// alert; the store assigns identity, timestamp and lifecycle state.
type AlertDraft struct {
	RuleID      string
	RuleName    string
	Severity    Severity
	Title       string
	Description string
	Source      string
	Indicators  []string
	Context     map[string]any

	// Timestamp overrides the emission time when non-zero. Used by tests
	// and by replayed imports; normal emission leaves it zero.
	Timestamp time.Time
}

// AlertStatusUpdate is the input structure for lifecycle changes.
type AlertStatusUpdate struct {
	Status   AlertStatus `json:"status" binding:"required"`
	Assignee *string     `json:"assignee,omitempty"`
}

// AlertNoteCreate is the input structure for appending a note.
type AlertNoteCreate struct {
	Author  string `json:"author" binding:"required"`
	Content string `json:"content" binding:"required"`
}
