package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"labsafety/internal/domain"
	"labsafety/internal/loader"
	"labsafety/internal/prompt"
	"labsafety/internal/response"
	"labsafety/internal/retrieval"
)

const (
	DefaultMaxTokens = 900
	IntroText        = "Hello, I'm Lab Safety Assistant. Tell me about your planned experiment or share a photo " +
		"(type 'image:<URL or dataURL>'). I'll identify potential hazards, required PPE, and high-level safety " +
		"advice. I will cite SDS passages when available."
)

var ErrNoDocuments = errors.New("no documents found")

var imageInput = regexp.MustCompile(`(?i)^\s*image\s*:\s*(.+)$`)

// Options configures NewAssistant. Zero values select defaults.
type Options struct {
	// DocsDir is loaded when Documents is empty.
	DocsDir         string
	Documents       []domain.Document
	LoadConcurrency int
	Retrieval       retrieval.Options
	TopK            int
	// CacheSize > 0 puts an LRU in front of the retrieval engine.
	CacheSize int
	CacheTTL  time.Duration

	Model       domain.ChatModel
	ModelName   string
	MaxTokens   int
	Temperature float64

	SystemPrompt string
	// Examples defaults to prompt.DefaultExamples when nil.
	Examples     []prompt.Example
	HistoryTurns int
}

// Result is the outcome of one query.
type Result struct {
	Assessment domain.Assessment
	Retrieved  []domain.Passage
	Raw        string
}

// Assistant owns one conversation over a fixed SDS index.
type Assistant struct {
	docs     []domain.Document
	searcher domain.Searcher
	composer *prompt.Composer
	model    domain.ChatModel
	opts     Options
	logger   zerolog.Logger

	mu      sync.Mutex
	history []domain.Turn
}

// NewAssistant loads documents, builds the retrieval index and returns a
// ready assistant. It fails with ErrNoDocuments when the corpus is empty.
func NewAssistant(ctx context.Context, opts Options) (*Assistant, error) {
	if opts.Model == nil {
		return nil, errors.New("chat model is required")
	}
	docs := opts.Documents
	if len(docs) == 0 {
		l := loader.New()
		if opts.LoadConcurrency > 0 {
			l.Concurrency = opts.LoadConcurrency
		}
		loaded, err := l.LoadDirectory(ctx, opts.DocsDir)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		docs = loaded
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, opts.DocsDir)
	}

	engine, err := retrieval.NewEngine(docs, opts.Retrieval)
	if err != nil {
		return nil, fmt.Errorf("build retrieval index: %w", err)
	}
	var searcher domain.Searcher = engine
	if opts.CacheSize > 0 {
		searcher = retrieval.NewCachedSearcher(engine, opts.CacheSize, opts.CacheTTL)
	}

	if opts.TopK < 1 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.MaxTokens < 1 {
		opts.MaxTokens = DefaultMaxTokens
	}
	examples := opts.Examples
	if examples == nil {
		examples = prompt.DefaultExamples()
	}

	sessionID := uuid.NewString()
	a := &Assistant{
		docs:     docs,
		searcher: searcher,
		composer: prompt.NewComposer(opts.SystemPrompt, examples, opts.HistoryTurns),
		model:    opts.Model,
		opts:     opts,
		logger:   log.With().Str("session_id", sessionID).Logger(),
	}
	a.logger.Info().
		Int("documents", len(docs)).
		Str("model", opts.Model.Name()).
		Msg("assistant ready")
	return a, nil
}

// UserInputToTurn converts raw input into the user turn and the retrieval
// query. "image: <url>" input yields an ImageTurn searched by the image
// placeholder.
func UserInputToTurn(raw string) (domain.Turn, string) {
	raw = strings.TrimSpace(raw)
	if m := imageInput.FindStringSubmatch(raw); m != nil {
		return domain.ImageTurn{
			Role:     domain.RoleUser,
			Text:     domain.ImagePlaceholder,
			ImageURL: strings.TrimSpace(m[1]),
		}, domain.ImagePlaceholder
	}
	return domain.StructuredTurn{
		Role:  domain.RoleUser,
		Parts: []domain.ContentPart{domain.TextPart{Text: raw}},
	}, raw
}

// Query answers one user input. On a model failure the error is returned and
// the history is left untouched.
func (a *Assistant) Query(ctx context.Context, raw string) (Result, error) {
	turn, query := UserInputToTurn(raw)

	retrieved, err := a.searcher.Search(query, a.opts.TopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve passages: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	msgs := a.composer.Compose(retrieved, turn, a.history)
	a.logger.Debug().
		Int("retrieved", len(retrieved)).
		Int("history", len(a.history)).
		Msg("calling model")

	start := time.Now()
	resp, err := a.model.Complete(ctx, domain.ChatRequest{
		Model:       a.opts.ModelName,
		Messages:    msgs,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("model call failed")
		return Result{}, err
	}
	a.logger.Debug().Dur("elapsed", time.Since(start)).Int("chars", len(resp.Content)).Msg("model replied")

	a.history = append(a.history, turn, domain.TextTurn{Role: domain.RoleAssistant, Text: resp.Content})

	return Result{
		Assessment: response.Normalize(resp.Content, retrieved),
		Retrieved:  retrieved,
		Raw:        string(resp.Raw),
	}, nil
}

// Search runs retrieval only.
func (a *Assistant) Search(query string, topK int) ([]domain.Passage, error) {
	return a.searcher.Search(query, topK)
}

// Intro returns the greeting shown as the first assistant entry.
func (a *Assistant) Intro() string { return IntroText }

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.logger.Debug().Msg("history cleared")
}

// History returns a copy of the conversation so far.
func (a *Assistant) History() []domain.Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Turn(nil), a.history...)
}

// Documents returns the loaded documents in filename order.
func (a *Assistant) Documents() []domain.Document {
	return append([]domain.Document(nil), a.docs...)
}
