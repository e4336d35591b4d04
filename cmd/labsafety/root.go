package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"labsafety/internal/config"
	"labsafety/internal/domain"
	"labsafety/internal/llm"
	"labsafety/internal/loader"
	"labsafety/internal/prompt"
	"labsafety/internal/retrieval"
	"labsafety/internal/service"
)

type app struct {
	configPath string
	cfg        *config.AppConfig
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "labsafety",
		Short:         "Lab safety assistant grounded on safety data sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/labsafety/config.yaml)")

	chat := a.chatCmd()
	root.RunE = chat.RunE
	root.AddCommand(chat, a.askCmd(), a.searchCmd(), a.docsCmd())
	return root
}

// setup loads configuration and configures logging. The TUI must not log to
// the terminal it draws on.
func (a *app) setup(tui bool) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if a.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(a.configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	closer, err := setupLogging(cfg.Log, tui)
	if err != nil {
		return err
	}
	a.logCloser = closer
	return nil
}

func setupLogging(cfg config.LogConfig, tui bool) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)
	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	case tui:
		out = io.Discard
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.File != ""}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

func (a *app) retrievalOptions() retrieval.Options {
	return retrieval.Options{
		MaxFeatures: a.cfg.Retrieval.MaxFeatures,
		AliasMinLen: a.cfg.Retrieval.AliasMinLen,
		StoreType:   a.cfg.VectorStore.Type,
	}
}

func (a *app) loadDocuments(ctx context.Context) ([]domain.Document, error) {
	l := loader.New()
	if a.cfg.Documents.Concurrency > 0 {
		l.Concurrency = a.cfg.Documents.Concurrency
	}
	docs, err := l.LoadDirectory(ctx, a.cfg.Documents.Dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", service.ErrNoDocuments, a.cfg.Documents.Dir)
	}
	return docs, nil
}

func (a *app) newAssistant(ctx context.Context) (*service.Assistant, error) {
	docs, err := a.loadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	model, err := llm.New(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := prompt.LoadSystemPrompt(a.cfg.Prompt.SystemPromptFile)
	if err != nil {
		return nil, err
	}
	return service.NewAssistant(ctx, service.Options{
		DocsDir:      a.cfg.Documents.Dir,
		Documents:    docs,
		Retrieval:    a.retrievalOptions(),
		TopK:         a.cfg.Retrieval.TopK,
		CacheSize:    a.cfg.Retrieval.CacheSize,
		CacheTTL:     a.cfg.Retrieval.CacheTTL(),
		Model:        model,
		ModelName:    a.cfg.LLM.Model,
		MaxTokens:    a.cfg.LLM.MaxTokens,
		Temperature:  a.cfg.LLM.Temperature,
		SystemPrompt: systemPrompt,
		HistoryTurns: a.cfg.Prompt.HistoryTurns,
	})
}
