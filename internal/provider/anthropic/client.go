package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/provider"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	maxTokens      = 1024
)

// Client implements provider.Adapter using the Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewClient constructs an Anthropic adapter.
func NewClient(apiKey, baseURL, defaultModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic: %w", provider.ErrMissingAPIKey)
	}
	if strings.TrimSpace(defaultModel) == "" {
		return nil, fmt.Errorf("anthropic: default model is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return "anthropic" }

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []messageContent `json:"messages"`
}

type messageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type      string `json:"type"`
		Text      string `json:"text,omitempty"`
		Citations []struct {
			Type  string `json:"type"`
			URL   string `json:"url,omitempty"`
			Title string `json:"title,omitempty"`
		} `json:"citations,omitempty"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// RunPrompt executes the prompt text as a single user turn.
func (c *Client) RunPrompt(ctx context.Context, promptText string, pctx provider.Context, model string) (*provider.Answer, error) {
	if model == "" {
		model = c.defaultModel
	}

	reqBody := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemInstructions(pctx),
		Messages: []messageContent{
			{Role: "user", Content: promptText},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("anthropic request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	duration := time.Since(started)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("anthropic response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, &provider.APIError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Type:       parsed.Error.Type,
			Message:    parsed.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.APIError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var text strings.Builder
	var citations []provider.Citation
	for _, block := range parsed.Content {
		if block.Type != "text" {
			continue
		}
		text.WriteString(block.Text)
		for _, cit := range block.Citations {
			if cit.URL != "" {
				citations = append(citations, provider.Citation{URL: cit.URL, Title: cit.Title})
			}
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, fmt.Errorf("anthropic response empty content")
	}

	answer := &provider.Answer{
		RawText:   content,
		Citations: citations,
		Model:     parsed.Model,
		Duration:  duration,
	}
	if answer.Model == "" {
		answer.Model = model
	}
	if parsed.Usage != nil {
		answer.Usage = &provider.Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		}
		answer.CostEstimate = provider.EstimateCost("anthropic", answer.Model, answer.Usage)
	}
	return answer, nil
}

func systemInstructions(pctx provider.Context) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering a consumer research question. Answer naturally and cite sources where you can.")
	if locale := strings.TrimSpace(pctx.Locale); locale != "" {
		fmt.Fprintf(&b, " Answer for the %s market.", locale)
	}
	names := append(append([]string{}, pctx.BrandNames...), pctx.CompetitorNames...)
	if len(names) > 0 {
		fmt.Fprintf(&b, " Relevant products in this space include: %s. Mention them only where genuinely relevant.", strings.Join(names, ", "))
	}
	return b.String()
}

var _ provider.Adapter = (*Client)(nil)
