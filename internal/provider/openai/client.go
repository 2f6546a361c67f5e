package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements provider.Adapter using the Chat Completions API.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewClient constructs an OpenAI adapter. The timeout bounds every request;
// a zero timeout falls back to 60s rather than waiting forever.
func NewClient(apiKey, baseURL, defaultModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", provider.ErrMissingAPIKey)
	}
	if strings.TrimSpace(defaultModel) == "" {
		return nil, fmt.Errorf("openai: default model is required")
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
func (c *Client) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role        string `json:"role"`
			Content     string `json:"content"`
			Annotations []struct {
				Type        string `json:"type"`
				URLCitation *struct {
					URL   string `json:"url"`
					Title string `json:"title"`
				} `json:"url_citation,omitempty"`
			} `json:"annotations,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// RunPrompt executes the prompt text as a single user turn.
func (c *Client) RunPrompt(ctx context.Context, promptText string, pctx provider.Context, model string) (*provider.Answer, error) {
	if model == "" {
		model = c.defaultModel
	}

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstructions(pctx)},
			{Role: "user", Content: promptText},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	duration := time.Since(started)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, &provider.APIError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Type:       parsed.Error.Type,
			Message:    parsed.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.APIError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}

	answer := &provider.Answer{
		RawText:  content,
		Model:    parsed.Model,
		Duration: duration,
	}
	if answer.Model == "" {
		answer.Model = model
	}
	for _, ann := range parsed.Choices[0].Message.Annotations {
		if ann.Type == "url_citation" && ann.URLCitation != nil && ann.URLCitation.URL != "" {
			answer.Citations = append(answer.Citations, provider.Citation{
				URL:   ann.URLCitation.URL,
				Title: ann.URLCitation.Title,
			})
		}
	}
	if parsed.Usage != nil {
		answer.Usage = &provider.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
		answer.CostEstimate = provider.EstimateCost("openai", answer.Model, answer.Usage)
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
