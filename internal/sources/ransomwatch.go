package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"threat-monitor/internal/models"
)

// RansomwatchAdapter pulls recent ransomware-victim listings from a
// ransomwatch-compatible API.
type RansomwatchAdapter struct {
	BaseURL string
	Client  *http.Client
}

type ransomwatchPost struct {
	PostTitle  string `json:"post_title"`
	GroupName  string `json:"group_name"`
	Discovered string `json:"discovered"`
	PostURL    string `json:"post_url"`
}

func (a *RansomwatchAdapter) Fetch(ctx context.Context, _ models.MonitoringSource) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/posts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ransomwatch request: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ransomwatch fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ransomwatch API returned status %d", resp.StatusCode)
	}

	var posts []ransomwatchPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("failed to decode ransomwatch response: %w", err)
	}

	records := make([]models.Record, 0, len(posts))
	for _, p := range posts {
		records = append(records, models.Record{
			Fields: map[string]string{
				"group":  p.GroupName,
				"victim": p.PostTitle,
			},
			Raw: map[string]any{
				"group_name": p.GroupName,
				"post_title": p.PostTitle,
				"discovered": p.Discovered,
				"post_url":   p.PostURL,
			},
		})
	}
	return records, nil
}
