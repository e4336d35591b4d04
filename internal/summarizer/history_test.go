package summarizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"labsafety/internal/domain"
)

func TestSummarize_EmptyHistory(t *testing.T) {
	assert.Equal(t, "", NewHistorySummarizer(6).Summarize(nil))
}

func TestSummarize_FormatsEachTurnVariant(t *testing.T) {
	turns := []domain.Turn{
		domain.StructuredTurn{Role: domain.RoleUser, Parts: []domain.ContentPart{
			domain.TextPart{Text: "Diluting"},
			domain.ImagePart{URL: "https://example.com/a.png"},
			domain.TextPart{Text: "sulfuric\n\tacid"},
		}},
		domain.TextTurn{Role: domain.RoleAssistant, Text: `{"hazards": ["corrosive"]}`},
		domain.StructuredTurn{Role: domain.RoleUser, Parts: []domain.ContentPart{
			domain.ImagePart{URL: "data:image/png;base64,AAAA"},
		}},
		domain.ImageTurn{Role: domain.RoleUser, Text: domain.ImagePlaceholder, ImageURL: "https://example.com/b.png"},
		domain.ImageTurn{Role: domain.RoleUser, ImageURL: "https://example.com/c.png"},
	}

	got := NewHistorySummarizer(6).Summarize(turns)
	assert.Equal(t, strings.Join([]string{
		"User: Diluting sulfuric acid",
		`Assistant: {"hazards": ["corrosive"]}`,
		"User: (image provided)",
		"User: (image provided)",
		"User: (image provided)",
	}, "\n"), got)
}

func TestSummarize_KeepsLastTurns(t *testing.T) {
	var turns []domain.Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, domain.TextTurn{Role: domain.RoleUser, Text: fmt.Sprintf("q%d", i)})
	}

	lines := strings.Split(NewHistorySummarizer(6).Summarize(turns), "\n")
	assert.Len(t, lines, 6)
	assert.Equal(t, "User: q4", lines[0])
	assert.Equal(t, "User: q9", lines[5])
}

func TestSummarize_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := NewHistorySummarizer(6).Summarize([]domain.Turn{domain.TextTurn{Role: domain.RoleAssistant, Text: long}})

	assert.Equal(t, "Assistant: "+strings.Repeat("é", 197)+"...", got)

	exact := strings.Repeat("x", 200)
	got = NewHistorySummarizer(6).Summarize([]domain.Turn{domain.TextTurn{Role: domain.RoleUser, Text: exact}})
	assert.Equal(t, "User: "+exact, got)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "User", capitalize("user"))
	assert.Equal(t, "Assistant", capitalize("ASSISTANT"))
	assert.Equal(t, "", capitalize(""))
}
