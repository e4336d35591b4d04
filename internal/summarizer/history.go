package summarizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"labsafety/internal/domain"
)

const (
	DefaultMaxTurns   = 6
	DefaultMaxLineLen = 200
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// HistorySummarizer condenses the tail of a conversation into one line per turn.
type HistorySummarizer struct {
	MaxTurns   int
	MaxLineLen int
}

// NewHistorySummarizer keeps the last maxTurns turns; maxTurns < 1 selects
// DefaultMaxTurns.
func NewHistorySummarizer(maxTurns int) *HistorySummarizer {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	return &HistorySummarizer{MaxTurns: maxTurns, MaxLineLen: DefaultMaxLineLen}
}

// Summarize renders the last MaxTurns turns as "<Role>: <content>" lines.
// It returns "" for an empty history.
func (s *HistorySummarizer) Summarize(turns []domain.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	maxTurns, maxLen := s.MaxTurns, s.MaxLineLen
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	if maxLen < 4 {
		maxLen = DefaultMaxLineLen
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := whitespaceRun.ReplaceAllString(turnText(t), " ")
		if utf8.RuneCountInString(content) > maxLen {
			content = string([]rune(content)[:maxLen-3]) + "..."
		}
		lines = append(lines, capitalize(string(t.TurnRole()))+": "+content)
	}
	return strings.Join(lines, "\n")
}

func turnText(t domain.Turn) string {
	switch v := t.(type) {
	case domain.TextTurn:
		return v.Text
	case domain.StructuredTurn:
		var texts []string
		for _, p := range v.Parts {
			if tp, ok := p.(domain.TextPart); ok {
				texts = append(texts, tp.Text)
			}
		}
		if joined := strings.TrimSpace(strings.Join(texts, " ")); joined != "" {
			return joined
		}
		return domain.ImagePlaceholder
	case domain.ImageTurn:
		if text := strings.TrimSpace(v.Text); text != "" {
			return text
		}
		return domain.ImagePlaceholder
	default:
		return ""
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
