// Package surveillance fetches daily case-count series from the government
// disease surveillance feed.
package surveillance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

// Provider supplies an ordered sequence of daily case counts for a
// (disease, region) pair. At least 7 entries are expected for a meaningful
// assessment, ideally 14.
type Provider interface {
	GetCaseSeries(ctx context.Context, disease, region string) ([]models.CasePoint, error)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type seriesResponse struct {
	Disease    string       `json:"disease"`
	Region     string       `json:"region"`
	DailyCases []dailyCount `json:"daily_cases"`
}

type dailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Cases int    `json:"cases"`
}

func (c *Client) GetCaseSeries(ctx context.Context, disease, region string) ([]models.CasePoint, error) {
	u := fmt.Sprintf("%s/surveillance/cases?disease=%s&region=%s",
		c.baseURL, url.QueryEscape(disease), url.QueryEscape(region))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	series := make([]models.CasePoint, 0, len(data.DailyCases))
	for _, d := range data.DailyCases {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("error parsing date %q: %w", d.Date, err)
		}
		series = append(series, models.CasePoint{Date: date, Cases: d.Cases})
	}

	return series, nil
}
