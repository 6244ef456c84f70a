package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"threat-monitor/internal/db"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/monitor"
	"threat-monitor/internal/store"
)

const archiveUpdateTimeout = 3 * time.Second

// Handler exposes the engine, the stores and the dashboard aggregator over
// HTTP. The archiver is optional and nil when no database is configured.
type Handler struct {
	rules      *store.RuleStore
	alerts     *store.AlertStore
	engine     *monitor.Engine
	aggregator *monitor.Aggregator
	archiver   *db.Archiver
	logger     *logging.Logger
}

// NewHandler wires the HTTP handler over the engine components.
func NewHandler(rules *store.RuleStore, alerts *store.AlertStore, engine *monitor.Engine, aggregator *monitor.Aggregator, archiver *db.Archiver, logger *logging.Logger) *Handler {
	return &Handler{
		rules:      rules,
		alerts:     alerts,
		engine:     engine,
		aggregator: aggregator,
		archiver:   archiver,
		logger:     logger,
	}
}

func (h *Handler) ListRules(c *gin.Context) {
	rules := h.rules.List()
	h.logger.Debugf("Retrieved %d rules", len(rules))
	c.JSON(http.StatusOK, rules)
}

func (h *Handler) GetRule(c *gin.Context) {
	id := c.Param("id")
	rule, ok := h.rules.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *Handler) CreateRule(c *gin.Context) {
	var draft models.RuleCreate
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.logger.Errorf("Invalid rule request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !draft.MatchType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match_type"})
		return
	}
	if !draft.Severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
		return
	}
	if draft.CooldownMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cooldown_minutes must be non-negative"})
		return
	}

	rule := h.rules.Add(draft)
	h.logger.Infof("Created rule %s (%s)", rule.ID, rule.Name)
	c.JSON(http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var patch models.RulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Errorf("Invalid rule patch: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.MatchType != nil && !patch.MatchType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match_type"})
		return
	}
	if patch.Severity != nil && !patch.Severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity"})
		return
	}
	if patch.CooldownMinutes != nil && *patch.CooldownMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cooldown_minutes must be non-negative"})
		return
	}

	rule, ok := h.rules.Update(id, patch)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	h.logger.Infof("Updated rule %s", id)
	c.JSON(http.StatusOK, rule)
}

func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	if !h.rules.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	h.logger.Infof("Deleted rule %s", id)
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAlerts(c *gin.Context) {
	alerts := h.alerts.List()
	h.logger.Debugf("Retrieved %d alerts", len(alerts))
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) UpdateAlertStatus(c *gin.Context) {
	id := c.Param("id")
	var update models.AlertStatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Errorf("Invalid status update: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !update.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	alert, ok := h.alerts.UpdateStatus(id, update.Status, update.Assignee)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	if h.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveUpdateTimeout)
		defer cancel()
		if err := h.archiver.UpdateAlertStatus(ctx, id, update.Status); err != nil {
			h.logger.Errorf("Failed to mirror status of alert %s: %v", id, err)
		}
	}
	h.logger.Infof("Alert %s moved to %s", id, update.Status)
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) AddAlertNote(c *gin.Context) {
	id := c.Param("id")
	var note models.AlertNoteCreate
	if err := c.ShouldBindJSON(&note); err != nil {
		h.logger.Errorf("Invalid note request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, ok := h.alerts.AddNote(id, note.Author, note.Content)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) RunCycle(c *gin.Context) {
	created := h.engine.RunMonitoringCycle(c.Request.Context())
	h.logger.Infof("Manual cycle produced %d alert(s)", len(created))
	c.JSON(http.StatusOK, gin.H{"alerts": created, "count": len(created)})
}

func (h *Handler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.aggregator.Summary())
}
