package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labsafety/internal/domain"
	"labsafety/internal/service"
)

type fakeAssistant struct {
	result  service.Result
	err     error
	queries []string
	resets  int
}

func (f *fakeAssistant) Query(_ context.Context, raw string) (service.Result, error) {
	f.queries = append(f.queries, raw)
	return f.result, f.err
}

func (f *fakeAssistant) Intro() string { return "hello from the assistant" }

func (f *fakeAssistant) Reset() { f.resets++ }

func hclResult() service.Result {
	return service.Result{
		Assessment: domain.Assessment{
			Hazards:          domain.Some([]string{"corrosive"}),
			Confidence:       domain.Some(domain.ConfidenceHigh),
			ExplainShort:     domain.Some("Add acid to water."),
			OfficialResponse: domain.Some("Hazards: corrosive."),
		},
		Retrieved: []domain.Passage{{
			Text:   "Corrosive to skin and eyes. Causes severe burns.",
			Source: "hydrochloric_acid.txt",
			Score:  1,
			Method: domain.MethodCAS,
		}},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func sized(t *testing.T, fa *fakeAssistant) Model {
	t.Helper()
	m, _ := update(t, New(context.Background(), fa), tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestModel_SeedsIntro(t *testing.T) {
	m := New(context.Background(), &fakeAssistant{})
	assert.Equal(t, "Loading...", m.View())
	require.Len(t, m.entries, 1)
	assert.Equal(t, "hello from the assistant", m.entries[0].text)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "Lab Safety Assistant")
}

func TestModel_QueryRoundTrip(t *testing.T) {
	fa := &fakeAssistant{result: hclResult()}
	m := sized(t, fa)
	m.input.SetValue("  diluting HCl  ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, entry{role: domain.RoleUser, text: "diluting HCl"}, m.entries[len(m.entries)-1])

	m.input.SetValue("second question")
	blocked, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)
	assert.Len(t, blocked.entries, 2)

	m, _ = update(t, m, cmd())
	assert.False(t, m.busy)
	assert.Equal(t, []string{"diluting HCl"}, fa.queries)
	require.Len(t, m.entries, 3)
	assert.Equal(t, "Add acid to water.\nHazards: corrosive.", m.entries[2].text)
	require.NotNil(t, m.last)
	assert.Equal(t, "diluting HCl", m.lastQuery)
}

func TestModel_ModelFailureEntry(t *testing.T) {
	fa := &fakeAssistant{err: errors.New("boom")}
	m := sized(t, fa)
	m.input.SetValue("anything")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	last := m.entries[len(m.entries)-1]
	assert.Equal(t, domain.RoleAssistant, last.role)
	assert.Equal(t, "Model call failed: boom", last.text)
	assert.Nil(t, m.last)
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	m := sized(t, &fakeAssistant{})
	m.input.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, m.entries, 1)
}

func TestModel_ClearChat(t *testing.T) {
	fa := &fakeAssistant{result: hclResult()}
	m := sized(t, fa)
	m.input.SetValue("q")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())
	require.Len(t, m.entries, 3)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, 1, fa.resets)
	require.Len(t, m.entries, 1)
	assert.Equal(t, "hello from the assistant", m.entries[0].text)
	assert.Nil(t, m.last)
}

func TestModel_Quit(t *testing.T) {
	m := sized(t, &fakeAssistant{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderPanel(t *testing.T) {
	assert.Contains(t, renderPanel(nil, ""), "No model output yet.")

	res := hclResult()
	out := renderPanel(&res, "burns")
	assert.Contains(t, out, "corrosive")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "hydrochloric_acid.txt (cas, 1.000)")
	assert.Contains(t, out, "Causes severe burns.")
}

func TestHighlightBestSentence_KeepsAllSentences(t *testing.T) {
	out := highlightBestSentence("Keep cool. Avoid open flames! Store upright.", "flames")
	assert.Contains(t, out, "Keep cool.")
	assert.Contains(t, out, "Avoid open flames!")
	assert.Contains(t, out, "Store upright.")
	assert.Equal(t, 2, tokenOverlapScore(toTokenSet("open flames"), "Avoid open flames!"))
}
