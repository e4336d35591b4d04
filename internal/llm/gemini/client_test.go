package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"labsafety/internal/domain"
)

type capturedRequest struct {
	path   string
	apiKey string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, reply string) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		select {
		case reqs <- capturedRequest{path: r.URL.Path, apiKey: r.Header.Get("x-goog-api-key"), body: body}:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestClient_Complete(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"confidence\":\"low\"}"}]}}]}`)

	c, err := NewClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Parts: []domain.ContentPart{domain.TextPart{Text: "be careful"}}},
			{Role: domain.RoleUser, Parts: []domain.ContentPart{domain.TextPart{Text: "is acetone flammable?"}}},
		},
		MaxTokens: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"confidence":"low"}`, resp.Content)
	assert.NotEmpty(t, resp.Raw)

	got := <-reqs
	assert.True(t, strings.HasSuffix(got.path, "models/test-model:generateContent"), got.path)
	assert.Equal(t, "test-key", got.apiKey)
	assert.Contains(t, got.body, "systemInstruction")
	contents, ok := got.body["contents"].([]any)
	require.True(t, ok)
	assert.Len(t, contents, 1)
	gen, ok := got.body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 900, gen["maxOutputTokens"])
}

func TestClient_CompleteRequestModelOverrides(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`)

	c, err := NewClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), domain.ChatRequest{
		Model:    "other-model",
		Messages: []domain.Message{{Role: domain.RoleUser, Parts: []domain.ContentPart{domain.TextPart{Text: "hi"}}}},
	})
	require.NoError(t, err)
	got := <-reqs
	assert.Contains(t, got.path, "other-model")
}

func TestClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.reply)
			c, err := NewClient(context.Background(), Config{BaseURL: srv.URL, APIKey: "k"})
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), domain.ChatRequest{
				Messages: []domain.Message{{Role: domain.RoleUser, Parts: []domain.ContentPart{domain.TextPart{Text: "hi"}}}},
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrModelCall))
		})
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("LABSAFETY_TEST_GEMINI_KEY", "")
	_, err := NewClient(context.Background(), Config{APIKeyEnv: "LABSAFETY_TEST_GEMINI_KEY"})
	assert.ErrorContains(t, err, "LABSAFETY_TEST_GEMINI_KEY")
}

func TestToContents_RolesAndImages(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleSystem, Parts: []domain.ContentPart{domain.TextPart{Text: "sys"}}},
		{Role: domain.RoleAssistant, Parts: []domain.ContentPart{domain.TextPart{Text: "earlier"}}},
		{Role: domain.RoleUser, Parts: []domain.ContentPart{
			domain.TextPart{Text: "what is this"},
			domain.ImagePart{URL: "data:image/png;base64,aGVsbG8="},
			domain.ImagePart{URL: "https://example.com/label.PNG"},
		}},
	}

	system, contents := toContents(msgs)
	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "sys", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleModel, contents[0].Role)
	assert.Equal(t, genai.RoleUser, contents[1].Role)

	parts := contents[1].Parts
	require.Len(t, parts, 3)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("hello"), parts[1].InlineData.Data)
	require.NotNil(t, parts[2].FileData)
	assert.Equal(t, "https://example.com/label.PNG", parts[2].FileData.FileURI)
	assert.Equal(t, "image/png", parts[2].FileData.MIMEType)
}

func TestDecodeDataURL_Rejects(t *testing.T) {
	for _, url := range []string{"https://x/y.jpg", "data:image/png,plain", "data:image/png;base64,%%%"} {
		_, _, ok := decodeDataURL(url)
		assert.False(t, ok, url)
	}
}
