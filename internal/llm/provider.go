// Package llm selects a chat model provider by name.
package llm

import (
	"context"
	"fmt"

	"labsafety/internal/config"
	"labsafety/internal/domain"
	"labsafety/internal/llm/gemini"
	"labsafety/internal/llm/langchain"
	"labsafety/internal/llm/openrouter"
)

// New builds the ChatModel named by cfg.Type. An empty type selects openrouter.
func New(ctx context.Context, cfg config.LLMConfig) (domain.ChatModel, error) {
	switch cfg.Type {
	case "", "openrouter":
		c, err := openrouter.NewClient(openrouter.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout(),
			Referer:   cfg.Referer,
			Title:     cfg.Title,
		})
		if err != nil {
			return nil, fmt.Errorf("create openrouter model: %w", err)
		}
		return c, nil
	case "langchain":
		c, err := langchain.NewClient(langchain.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout(),
			JSONMode:  cfg.JSONMode,
		})
		if err != nil {
			return nil, fmt.Errorf("create langchain model: %w", err)
		}
		return c, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm type: %s", cfg.Type)
	}
}
