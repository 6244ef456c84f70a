package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"threat-monitor/internal/models"
)

// ThreatFoxAdapter pulls recent IOCs from the abuse.ch ThreatFox API.
type ThreatFoxAdapter struct {
	BaseURL string
	Client  *http.Client
	Days    int
}

type threatFoxResponse struct {
	QueryStatus string `json:"query_status"`
	Data        []struct {
		IOC             string   `json:"ioc"`
		IOCType         string   `json:"ioc_type"`
		ThreatType      string   `json:"threat_type"`
		Malware         string   `json:"malware_printable"`
		ConfidenceLevel int      `json:"confidence_level"`
		FirstSeen       string   `json:"first_seen"`
		Tags            []string `json:"tags"`
	} `json:"data"`
}

func (a *ThreatFoxAdapter) Fetch(ctx context.Context, _ models.MonitoringSource) ([]models.Record, error) {
	days := a.Days
	if days <= 0 {
		days = 1
	}
	body := fmt.Sprintf(`{"query":"get_iocs","days":%d}`, days)

	var parsed threatFoxResponse
	if err := postAbuseCh(ctx, a.Client, a.BaseURL, body, &parsed); err != nil {
		return nil, fmt.Errorf("threatfox fetch failed: %w", err)
	}
	if parsed.QueryStatus != "ok" {
		return nil, fmt.Errorf("threatfox API returned query_status %q", parsed.QueryStatus)
	}

	records := make([]models.Record, 0, len(parsed.Data))
	for _, ioc := range parsed.Data {
		records = append(records, models.Record{
			Fields: map[string]string{
				"ioc":         ioc.IOC,
				"malware":     ioc.Malware,
				"threat_type": ioc.ThreatType,
			},
			Raw: map[string]any{
				"ioc":              ioc.IOC,
				"ioc_type":         ioc.IOCType,
				"threat_type":      ioc.ThreatType,
				"malware":          ioc.Malware,
				"confidence_level": ioc.ConfidenceLevel,
				"first_seen":       ioc.FirstSeen,
				"tags":             ioc.Tags,
			},
		})
	}
	return records, nil
}

// URLHausAdapter pulls recently submitted malicious URLs from the abuse.ch
// URLhaus API.
type URLHausAdapter struct {
	BaseURL string
	Client  *http.Client
	Limit   int
}

type urlHausResponse struct {
	QueryStatus string `json:"query_status"`
	URLs        []struct {
		URL       string   `json:"url"`
		Host      string   `json:"host"`
		Threat    string   `json:"threat"`
		URLStatus string   `json:"url_status"`
		DateAdded string   `json:"date_added"`
		Tags      []string `json:"tags"`
	} `json:"urls"`
}

func (a *URLHausAdapter) Fetch(ctx context.Context, _ models.MonitoringSource) ([]models.Record, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = 100
	}
	url := a.BaseURL + "/urls/recent/limit/" + strconv.Itoa(limit) + "/"

	var parsed urlHausResponse
	if err := postAbuseCh(ctx, a.Client, url, "", &parsed); err != nil {
		return nil, fmt.Errorf("urlhaus fetch failed: %w", err)
	}
	if parsed.QueryStatus != "ok" {
		return nil, fmt.Errorf("urlhaus API returned query_status %q", parsed.QueryStatus)
	}

	records := make([]models.Record, 0, len(parsed.URLs))
	for _, u := range parsed.URLs {
		records = append(records, models.Record{
			Fields: map[string]string{
				"url":    u.URL,
				"host":   u.Host,
				"threat": u.Threat,
			},
			Raw: map[string]any{
				"url":        u.URL,
				"host":       u.Host,
				"threat":     u.Threat,
				"url_status": u.URLStatus,
				"date_added": u.DateAdded,
				"tags":       u.Tags,
			},
		})
	}
	return records, nil
}

func postAbuseCh(ctx context.Context, client *http.Client, url, body string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
