package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-monitor/internal/config"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/monitor"
	"threat-monitor/internal/sources"
	"threat-monitor/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	rules  *store.RuleStore
	alerts *store.AlertStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	rules := store.NewRuleStore()
	alerts := store.NewAlertStore(logging.Nop())
	registry := sources.NewRegistry()
	engine := monitor.New(rules, alerts, registry, nil, logging.Nop(), time.Second)
	aggregator := monitor.NewAggregator(rules, alerts)

	cfg := config.Config{}
	cfg.API.BasePath = "/api/v1"

	h := NewHandler(rules, alerts, engine, aggregator, nil, logging.Nop())
	return &testAPI{
		router: NewRouter(h, NewHub(logging.Nop()), logging.Nop(), cfg),
		rules:  rules,
		alerts: alerts,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func validRulePayload() map[string]any {
	return map[string]any{
		"name":       "Ransomware group activity",
		"match_type": "keywords",
		"pattern":    "lockbit|blackcat",
		"severity":   "critical",
		"sources": []map[string]any{
			{"name": "Ransomwatch", "source_type": "ransomwatch", "enabled": true},
		},
		"cooldown_minutes": 30,
	}
}

func TestCreateAndGetRule(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/rules", validRulePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.MonitoringRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)

	w = api.do(t, http.MethodGet, "/api/v1/rules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.MonitoringRule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateRuleValidation(t *testing.T) {
	api := newTestAPI(t)

	payload := validRulePayload()
	payload["match_type"] = "glob"
	w := api.do(t, http.MethodPost, "/api/v1/rules", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = validRulePayload()
	payload["severity"] = "urgent"
	w = api.do(t, http.MethodPost, "/api/v1/rules", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = validRulePayload()
	payload["cooldown_minutes"] = -5
	w = api.do(t, http.MethodPost, "/api/v1/rules", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload = validRulePayload()
	delete(payload, "name")
	w = api.do(t, http.MethodPost, "/api/v1/rules", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRule(t *testing.T) {
	api := newTestAPI(t)
	rule := api.rules.Add(models.RuleCreate{
		Name: "r", MatchType: models.MatchKeywords, Pattern: "x", Severity: models.SeverityLow,
	})

	w := api.do(t, http.MethodPut, "/api/v1/rules/"+rule.ID, map[string]any{
		"name": "renamed", "enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, ok := api.rules.Get(rule.ID)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)
	assert.False(t, got.Enabled)

	w = api.do(t, http.MethodPut, "/api/v1/rules/missing", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRule(t *testing.T) {
	api := newTestAPI(t)
	rule := api.rules.Add(models.RuleCreate{
		Name: "r", MatchType: models.MatchKeywords, Pattern: "x", Severity: models.SeverityLow,
	})

	w := api.do(t, http.MethodDelete, "/api/v1/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/rules/"+rule.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertLifecycleEndpoints(t *testing.T) {
	api := newTestAPI(t)
	alert := api.alerts.Append(models.AlertDraft{
		RuleID: "r", RuleName: "rule", Severity: models.SeverityHigh,
		Title: "hit", Source: "Ransomwatch",
	})

	w := api.do(t, http.MethodGet, "/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/alerts/"+alert.ID+"/status", map[string]any{
		"status": "acknowledged", "assignee": "analyst",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.ThreatAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.AlertStatusAcknowledged, updated.Status)
	assert.Equal(t, "analyst", updated.Assignee)

	w = api.do(t, http.MethodPut, "/api/v1/alerts/"+alert.ID+"/status", map[string]any{
		"status": "escalated",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/alerts/missing/status", map[string]any{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/notes", map[string]any{
		"author": "analyst", "content": "confirmed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "confirmed", updated.Notes[0].Content)

	w = api.do(t, http.MethodPost, "/api/v1/alerts/"+alert.ID+"/notes", map[string]any{
		"author": "analyst",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunCycleEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/monitor/run", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Alerts []models.ThreatAlert `json:"alerts"`
		Count  int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
	assert.Empty(t, resp.Alerts)
}

func TestDashboardEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.rules.Add(models.RuleCreate{
		Name: "r", MatchType: models.MatchKeywords, Pattern: "x", Severity: models.SeverityCritical,
	})
	api.alerts.Append(models.AlertDraft{
		RuleID: "r", RuleName: "rule", Severity: models.SeverityCritical,
		Title: "hit", Source: "Ransomwatch",
	})

	w := api.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.ActiveRuleCount)
	assert.Equal(t, 1, summary.TotalAlerts)
	assert.Equal(t, 1, summary.CriticalAlerts)
	assert.Len(t, summary.ThreatTrends, 7)
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
