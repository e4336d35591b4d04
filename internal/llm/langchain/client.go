// Package langchain adapts a langchaingo chat model to domain.ChatModel.
package langchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"labsafety/internal/domain"
)

var _ domain.ChatModel = (*Client)(nil)

// Config configures the OpenAI-compatible backend.
type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// JSONMode asks the backend for a JSON object response.
	JSONMode bool
}

// Client sends completions through a langchaingo model.
type Client struct {
	llm      llms.Model
	jsonMode bool
}

// NewClient builds a langchaingo OpenAI client for cfg.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain openai client: %w", err)
	}
	return &Client{llm: llm, jsonMode: cfg.JSONMode}, nil
}

// NewFromModel wraps an existing langchaingo model.
func NewFromModel(llm llms.Model, jsonMode bool) *Client {
	return &Client{llm: llm, jsonMode: jsonMode}
}

// Name returns the identifier of this model provider.
func (c *Client) Name() string { return "langchain" }

// Complete converts req to langchaingo messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if c.jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	log.Debug().Int("messages", len(req.Messages)).Msg("langchain generate content")
	resp, err := c.llm.GenerateContent(ctx, toMessageContent(req.Messages), opts...)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: generate content: %w", domain.ErrModelCall, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: %w", domain.ErrModelCall, errors.New("no choices in response"))
	}
	raw, err := json.Marshal(resp.Choices[0])
	if err != nil {
		raw = []byte(resp.Choices[0].Content)
	}
	return domain.ChatResponse{Content: resp.Choices[0].Content, Raw: raw}, nil
}

func toMessageContent(msgs []domain.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		mc := llms.MessageContent{Role: chatRole(m.Role)}
		for _, p := range m.Parts {
			switch v := p.(type) {
			case domain.TextPart:
				mc.Parts = append(mc.Parts, llms.TextPart(v.Text))
			case domain.ImagePart:
				mc.Parts = append(mc.Parts, llms.ImageURLPart(v.URL))
			}
		}
		out = append(out, mc)
	}
	return out
}

func chatRole(r domain.Role) llms.ChatMessageType {
	switch r {
	case domain.RoleSystem:
		return llms.ChatMessageTypeSystem
	case domain.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
