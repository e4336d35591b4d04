// Package openrouter calls an OpenAI-compatible /chat/completions endpoint,
// OpenRouter by default.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"labsafety/internal/domain"
)

var _ domain.ChatModel = (*Client)(nil)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "x-ai/grok-4.1-fast:free"
	DefaultAPIKeyEnv = "OPENROUTER_API_KEY"
	DefaultTimeout   = 30 * time.Second
)

// Config configures the client. APIKey wins over APIKeyEnv.
type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
}

// Client performs one request per completion. It never retries.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	referer string
	title   string
	client  *http.Client
}

// NewClient creates a client, reading the API key from the environment when
// cfg.APIKey is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  key,
		model:   cfg.Model,
		referer: cfg.Referer,
		title:   cfg.Title,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the identifier of this model provider.
func (c *Client) Name() string { return "openrouter" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatMessage content is a plain string for single-text messages and a list
// of typed parts otherwise.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func toChatMessage(m domain.Message) chatMessage {
	if len(m.Parts) == 1 {
		if tp, ok := m.Parts[0].(domain.TextPart); ok {
			return chatMessage{Role: string(m.Role), Content: tp.Text}
		}
	}
	parts := make([]contentPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch v := p.(type) {
		case domain.TextPart:
			parts = append(parts, contentPart{Type: "text", Text: v.Text})
		case domain.ImagePart:
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: v.URL}})
		}
	}
	return chatMessage{Role: string(m.Role), Content: parts}
}

// Complete sends req and returns the first choice's content. Every failure
// wraps domain.ErrModelCall.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model:       model,
		Messages:    make([]chatMessage, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for i, m := range req.Messages {
		body.Messages[i] = toChatMessage(m)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: marshal request: %w", domain.ErrModelCall, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: create request: %w", domain.ErrModelCall, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: send request: %w", domain.ErrModelCall, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: read response: %w", domain.ErrModelCall, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ChatResponse{}, fmt.Errorf("%w: status %s: %s", domain.ErrModelCall, resp.Status, truncate(payload, 512))
	}

	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: decode response: %w", domain.ErrModelCall, err)
	}
	if out.Error != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: provider error: %s", domain.ErrModelCall, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("%w: %w", domain.ErrModelCall, errors.New("no choices in response"))
	}
	return domain.ChatResponse{Content: out.Choices[0].Message.Content, Raw: payload}, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
