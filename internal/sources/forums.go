package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"threat-monitor/internal/models"
)

// ForumsAdapter pulls recent thread activity from a dark-web forum
// aggregation API.
type ForumsAdapter struct {
	BaseURL string
	Client  *http.Client
}

type forumPost struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Forum    string `json:"forum"`
	Author   string `json:"author"`
	URL      string `json:"url"`
	PostedAt string `json:"posted_at"`
}

func (a *ForumsAdapter) Fetch(ctx context.Context, _ models.MonitoringSource) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/posts/recent", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create forums request: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forums fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forums API returned status %d", resp.StatusCode)
	}

	var posts []forumPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("failed to decode forums response: %w", err)
	}

	records := make([]models.Record, 0, len(posts))
	for _, p := range posts {
		records = append(records, models.Record{
			Fields: map[string]string{
				"title":   p.Title,
				"content": p.Content,
			},
			Raw: map[string]any{
				"title":     p.Title,
				"content":   p.Content,
				"forum":     p.Forum,
				"author":    p.Author,
				"url":       p.URL,
				"posted_at": p.PostedAt,
			},
		})
	}
	return records, nil
}
