package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"labsafety/internal/domain"
	"labsafety/internal/summarizer"
)

// SnippetLen is the number of characters of each passage shown to the model.
const SnippetLen = 600

// Composer assembles the model request for one turn.
type Composer struct {
	SystemPrompt string
	Examples     []Example
	Summarizer   *summarizer.HistorySummarizer
}

// NewComposer returns a Composer with the given prompt and exemplars. An
// empty systemPrompt selects the built-in one.
func NewComposer(systemPrompt string, examples []Example, historyTurns int) *Composer {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt()
	}
	return &Composer{
		SystemPrompt: systemPrompt,
		Examples:     examples,
		Summarizer:   summarizer.NewHistorySummarizer(historyTurns),
	}
}

// Compose returns the system message carrying instructions, history digest,
// retrieved passages and exemplars, followed by every prior turn and then user.
func (c *Composer) Compose(retrieved []domain.Passage, user domain.Turn, history []domain.Turn) []domain.Message {
	msgs := make([]domain.Message, 0, len(history)+2)
	msgs = append(msgs, domain.Message{
		Role:  domain.RoleSystem,
		Parts: []domain.ContentPart{domain.TextPart{Text: c.SystemContent(retrieved, history)}},
	})
	for _, t := range history {
		msgs = append(msgs, domain.MessageFromTurn(t))
	}
	msgs = append(msgs, domain.MessageFromTurn(user))
	return msgs
}

// SystemContent renders the system message text.
func (c *Composer) SystemContent(retrieved []domain.Passage, history []domain.Turn) string {
	var sb strings.Builder
	sb.WriteString(c.SystemPrompt)
	sb.WriteString("\n\n")

	if summary := c.Summarizer.Summarize(history); summary != "" {
		sb.WriteString("\nCONVERSATION_SUMMARY:\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("RETRIEVED PASSAGES:\n")
	for _, p := range retrieved {
		method := p.Method
		if method == "" {
			method = domain.MethodTFIDF
		}
		fmt.Fprintf(&sb, "- Source: %s (score=%.3f; method=%s) (may not be relevant)\n  %s\n\n",
			p.Source, p.Score, method, snippet(p.Text))
	}
	sb.WriteString("\n")

	sb.WriteString("\nFEW_SHOT_EXAMPLES:\n")
	for _, ex := range c.Examples {
		fmt.Fprintf(&sb, "INPUT: %s\nOUTPUT_JSON: %s\n\n", ex.Input, ex.outputJSON())
	}
	return sb.String()
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) > SnippetLen {
		text = string([]rune(text)[:SnippetLen])
	}
	return strings.ReplaceAll(text, "\n", " ")
}
