package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentsConfig points at the directory of safety data sheets.
type DocumentsConfig struct {
	Dir         string `yaml:"dir"`
	Concurrency int    `yaml:"concurrency"`
}

// RetrievalConfig tunes the retrieval cascade.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k"`
	MaxFeatures  int `yaml:"max_features"`
	AliasMinLen  int `yaml:"alias_min_len"`
	CacheSize    int `yaml:"cache_size"`
	CacheTTLSecs int `yaml:"cache_ttl_secs"`
}

// CacheTTL returns the cache entry lifetime.
func (r RetrievalConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSecs) * time.Second
}

// VectorStoreConfig selects the store backing the similarity tier.
type VectorStoreConfig struct {
	Type string `yaml:"type"`
}

// LLMConfig selects and configures the chat model provider.
type LLMConfig struct {
	Type        string  `yaml:"type"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	JSONMode    bool    `yaml:"json_mode"`
	Referer     string  `yaml:"referer,omitempty"`
	Title       string  `yaml:"title,omitempty"`
}

// Timeout returns the per-call model timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// PromptConfig controls the system prompt and history digest.
type PromptConfig struct {
	SystemPromptFile string `yaml:"system_prompt_file"`
	HistoryTurns     int    `yaml:"history_turns"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Documents   DocumentsConfig   `yaml:"documents"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/labsafety/config.yaml.
// If neither exists, it writes defaults to ~/.config/labsafety/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "labsafety", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = "./output_txt"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.MaxFeatures == 0 {
		cfg.Retrieval.MaxFeatures = 20000
	}
	if cfg.Retrieval.AliasMinLen == 0 {
		cfg.Retrieval.AliasMinLen = 3
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openrouter"
	}
	switch cfg.LLM.Type {
	case "openrouter":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
		}
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "x-ai/grok-4.1-fast:free"
		}
	case "langchain":
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "gemini":
		if cfg.LLM.APIKeyEnv == "" {
			cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gemini-2.0-flash"
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 900
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 30
	}
	if cfg.Prompt.HistoryTurns == 0 {
		cfg.Prompt.HistoryTurns = 6
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
