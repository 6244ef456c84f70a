package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/store"
)

const archiveTimeout = 3 * time.Second

const createArchiveTable = `
CREATE TABLE IF NOT EXISTS threat_alerts (
    id          TEXT PRIMARY KEY,
    rule_id     TEXT NOT NULL,
    rule_name   TEXT NOT NULL,
    timestamp   TIMESTAMPTZ NOT NULL,
    severity    TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT,
    source      TEXT,
    indicators  JSONB,
    context     JSONB,
    status      TEXT NOT NULL
)`

// Archiver mirrors emitted alerts into Postgres for long-term retention.
// The in-memory alert store remains the source of truth; archive writes
// are best-effort and never surface into the emission path.
type Archiver struct {
	db     *DB
	logger *logging.Logger
}

// NewArchiver ensures the archive table exists and returns the archiver.
func NewArchiver(db *DB, logger *logging.Logger) (*Archiver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if _, err := db.Pool.Exec(ctx, createArchiveTable); err != nil {
		return nil, fmt.Errorf("failed to ensure archive table: %w", err)
	}
	return &Archiver{db: db, logger: logger}, nil
}

// Listener returns the alert-store subscription callback that archives
// every newly emitted alert.
func (a *Archiver) Listener() store.Listener {
	return func(alert models.ThreatAlert) {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := a.ArchiveAlert(ctx, alert); err != nil {
			a.logger.Errorf("Failed to archive alert %s: %v", alert.ID, err)
		}
	}
}

// ArchiveAlert inserts one alert into the archive.
func (a *Archiver) ArchiveAlert(ctx context.Context, alert models.ThreatAlert) error {
	indicators, err := json.Marshal(alert.Indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal indicators: %w", err)
	}
	contextJSON, err := json.Marshal(alert.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	query := `
    INSERT INTO threat_alerts (
        id, rule_id, rule_name, timestamp, severity, title, description,
        source, indicators, context, status
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = a.db.Pool.Exec(ctx, query,
		alert.ID,
		alert.RuleID,
		alert.RuleName,
		alert.Timestamp,
		alert.Severity,
		alert.Title,
		alert.Description,
		alert.Source,
		indicators,
		contextJSON,
		alert.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// UpdateAlertStatus mirrors a lifecycle change into the archive.
func (a *Archiver) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) error {
	query := `UPDATE threat_alerts SET status = $1 WHERE id = $2`
	if _, err := a.db.Pool.Exec(ctx, query, status, id); err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	return nil
}
