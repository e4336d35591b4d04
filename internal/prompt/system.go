package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed system_prompt.txt
var defaultSystemPrompt string

// DefaultSystemPrompt returns the built-in lab-safety instructions.
func DefaultSystemPrompt() string {
	return strings.TrimSpace(defaultSystemPrompt)
}

// LoadSystemPrompt reads a system prompt override from path. An empty path
// returns the built-in prompt.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return p, nil
}
