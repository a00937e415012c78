package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/Slidewise/internal/core"
)

const anthropicVersion = "2023-06-01"

// ClaudeConfig holds configuration for the Anthropic messages API.
type ClaudeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ClaudeLLM calls the Anthropic /v1/messages endpoint.
type ClaudeLLM struct {
	client *resty.Client
	model  string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *messagesError `json:"error,omitempty"`
}

type messagesError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewClaudeLLM(cfg ClaudeConfig) (*ClaudeLLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-latest"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 529 is Anthropic's overloaded status.
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return &ClaudeLLM{client: client, model: cfg.Model}, nil
}

func (c *ClaudeLLM) Name() string { return ProviderClaude }

func (c *ClaudeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var (
		msgResp messagesResponse
		errResp messagesResponse
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(messagesRequest{
			Model:       c.model,
			Messages:    []messagesMessage{{Role: "user", Content: userPrompt}},
			MaxTokens:   maxTokens,
			System:      systemPrompt,
			Temperature: temperature,
		}).
		ForceContentType("application/json").
		SetResult(&msgResp).
		SetError(&errResp).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	if resp.IsError() {
		if errResp.Error != nil {
			return "", fmt.Errorf("claude error (status %d): %s", resp.StatusCode(), errResp.Error.Message)
		}
		return "", fmt.Errorf("claude error (status %d)", resp.StatusCode())
	}
	if msgResp.Error != nil {
		return "", fmt.Errorf("claude error: %s", msgResp.Error.Message)
	}

	var b strings.Builder
	for _, part := range msgResp.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("claude: empty response")
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*ClaudeLLM)(nil)
