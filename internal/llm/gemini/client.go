// Package gemini sends completions to the Google Gemini API through the genai SDK.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"labsafety/internal/domain"
)

const (
	DefaultModel     = "gemini-2.0-flash"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	DefaultTimeout   = 30 * time.Second
)

var _ domain.ChatModel = (*Client)(nil)

type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Client wraps a genai client bound to one default model.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient creates a Gemini API client. The key is read from cfg.APIKey or,
// when empty, from the cfg.APIKeyEnv environment variable.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
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
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: gc, model: cfg.Model}, nil
}

func (c *Client) Name() string { return "gemini" }

// Complete sends req as a single generateContent call. System messages are
// folded into the system instruction.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	system, contents := toContents(req.Messages)
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temperature,
		MaxOutputTokens:   int32(req.MaxTokens),
	}

	log.Debug().Str("model", model).Int("contents", len(contents)).Msg("gemini generate content")
	resp, err := c.genai.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("%w: generate content: %w", domain.ErrModelCall, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("%w: %w", domain.ErrModelCall, errors.New("no candidates in response"))
	}
	raw, _ := json.Marshal(resp)
	return domain.ChatResponse{Content: resp.Text(), Raw: raw}, nil
}

func toContents(msgs []domain.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		parts := toParts(m.Parts)
		if m.Role == domain.RoleSystem {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, parts...)
			continue
		}
		role := genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return system, contents
}

func toParts(parts []domain.ContentPart) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case domain.TextPart:
			out = append(out, &genai.Part{Text: v.Text})
		case domain.ImagePart:
			out = append(out, imagePart(v.URL))
		}
	}
	return out
}

// imagePart inlines data: URLs and passes anything else as a file reference.
func imagePart(url string) *genai.Part {
	if mimeType, data, ok := decodeDataURL(url); ok {
		return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
	}
	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(url)))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	return &genai.Part{FileData: &genai.FileData{FileURI: url, MIMEType: mimeType}}
}

func decodeDataURL(url string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return mimeType, data, true
}
