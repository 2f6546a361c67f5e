package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// apiClient talks to the visibility tracking HTTP API.
type apiClient struct {
	BaseURL    string
	APIKey     string
	CronSecret string
	HTTPClient *http.Client
}

func newClient() *apiClient {
	return &apiClient{
		BaseURL:    viper.GetString("url"),
		APIKey:     viper.GetString("api_key"),
		CronSecret: viper.GetString("cron_secret"),
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// apiError is the decoded error envelope the API returns.
type apiError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type jobView struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	MaxAttempts    int        `json:"maxAttempts"`
	ScheduledFor   time.Time  `json:"scheduledFor"`
	LockedAt       *time.Time `json:"lockedAt"`
	LockedBy       string     `json:"lockedBy"`
	Error          string     `json:"error"`
	ProjectID      string     `json:"projectId"`
	OrganizationID string     `json:"organizationId"`
	Payload        struct {
		PromptID string `json:"promptId"`
		Provider string `json:"provider"`
		Model    string `json:"model"`
	} `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type tickView struct {
	Enqueued           int `json:"enqueued"`
	SkippedBudget      int `json:"skippedBudget"`
	SkippedConcurrency int `json:"skippedConcurrency"`
	Processed          int `json:"processed"`
	Failed             int `json:"failed"`
	Retried            int `json:"retried"`
}

type runView struct {
	ID             string  `json:"id"`
	PromptID       string  `json:"promptId"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Status         string  `json:"status"`
	Cost           float64 `json:"cost"`
	ParsedMentions struct {
		BrandMentioned     bool   `json:"brandMentioned"`
		BrandMentionCount  int    `json:"brandMentionCount"`
		Sentiment          string `json:"sentiment"`
		CompetitorMentions []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"competitorMentions"`
		CitedDomains []struct {
			Domain string `json:"domain"`
			Count  int    `json:"count"`
		} `json:"citedDomains"`
	} `json:"parsedMentions"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type runOutcome struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Run     runView `json:"run"`
}

// ListJobs fetches queue entries, optionally filtered by status.
func (c *apiClient) ListJobs(status string, limit int) ([]jobView, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.BaseURL + "/api/v1/jobs"
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var out struct {
		Jobs []jobView `json:"jobs"`
	}
	if err := c.do(http.MethodGet, endpoint, nil, false, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// GetJob fetches a single queue entry.
func (c *apiClient) GetJob(id string) (*jobView, error) {
	var out jobView
	if err := c.do(http.MethodGet, c.BaseURL+"/api/v1/jobs/"+url.PathEscape(id), nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tick forces a scheduler cycle through the cron endpoint.
func (c *apiClient) Tick() (*tickView, error) {
	var out tickView
	if err := c.do(http.MethodPost, c.BaseURL+"/api/cron/tick", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunPrompt executes a stored prompt immediately.
func (c *apiClient) RunPrompt(promptID, providerName, model string) (*runOutcome, error) {
	body := map[string]string{}
	if providerName != "" {
		body["provider"] = providerName
	}
	if model != "" {
		body["model"] = model
	}

	var payload io.Reader
	if len(body) > 0 {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	var out runOutcome
	endpoint := c.BaseURL + "/api/v1/prompts/" + url.PathEscape(promptID) + "/run"
	if err := c.do(http.MethodPost, endpoint, payload, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(method, endpoint string, body io.Reader, cron bool, out any) error {
	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cron {
		if c.CronSecret != "" {
			req.Header.Set("X-Cron-Secret", c.CronSecret)
		}
	} else if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return &apiError{StatusCode: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &apiError{StatusCode: status, Message: string(raw)}
}
