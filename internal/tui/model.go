package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"labsafety/internal/domain"
	"labsafety/internal/service"
)

// AssistantPort is the TUI-facing subset of the assistant.
type AssistantPort interface {
	Query(ctx context.Context, raw string) (service.Result, error)
	Intro() string
	Reset()
}

type entry struct {
	role domain.Role
	text string
}

type queryResultMsg struct {
	query  string
	result service.Result
	err    error
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	ctx        context.Context
	assistant  AssistantPort
	input      textinput.Model
	transcript viewport.Model
	entries    []entry
	last       *service.Result
	lastQuery  string
	status     string
	busy       bool
	ready      bool
	width      int
	panelWidth int
}

// New creates a TUI model seeded with the assistant's intro.
func New(ctx context.Context, assistant AssistantPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe your experiment, or image:<URL or dataURL>"
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		ctx:        ctx,
		assistant:  assistant,
		input:      ti,
		transcript: viewport.New(0, 0),
		status:     "Enter to send, ctrl+l to clear, ctrl+c to quit.",
	}
	m.seed()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and query-result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.panelWidth = max(28, msg.Width/3)
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input line
		tw, _ := transcriptBoxStyle.GetFrameSize()
		m.transcript.Width = max(20, msg.Width-m.panelWidth-tw)
		m.transcript.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case queryResultMsg:
		m.busy = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{role: domain.RoleAssistant, text: "Model call failed: " + msg.err.Error()})
			m.status = "Error: " + msg.err.Error()
		} else {
			res := msg.result
			m.last = &res
			m.lastQuery = msg.query
			m.entries = append(m.entries, entry{role: domain.RoleAssistant, text: assistantText(res.Assessment)})
			m.status = "Ready."
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if m.busy || q == "" {
				return m, nil
			}
			m.busy = true
			m.input.Reset()
			m.entries = append(m.entries, entry{role: domain.RoleUser, text: q})
			m.status = "Querying model..."
			m.refresh()
			return m, m.query(q)
		case "ctrl+l":
			if m.busy {
				return m, nil
			}
			m.assistant.Reset()
			m.last = nil
			m.lastQuery = ""
			m.seed()
			m.status = "Chat cleared."
			m.refresh()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) query(q string) tea.Cmd {
	ctx, assistant := m.ctx, m.assistant
	return func() tea.Msg {
		res, err := assistant.Query(ctx, q)
		return queryResultMsg{query: q, result: res, err: err}
	}
}

// View renders the transcript, the summary panel and the input line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Lab Safety Assistant")
	left := transcriptBoxStyle.Render(m.transcript.View())
	right := panelBoxStyle.Width(m.panelWidth - 2).Height(m.transcript.Height).Render(renderPanel(m.last, m.lastQuery))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) seed() {
	m.entries = []entry{{role: domain.RoleAssistant, text: m.assistant.Intro()}}
}

func (m *Model) refresh() {
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := max(10, m.transcript.Width-2)
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		label := assistantLabelStyle.Render("Assistant:")
		if e.role == domain.RoleUser {
			label = userLabelStyle.Render("You:")
		}
		sb.WriteString(lipgloss.NewStyle().Width(width).Render(label + " " + e.text))
	}
	return sb.String()
}

func assistantText(a domain.Assessment) string {
	official := a.OfficialResponse.Value
	if official == "" {
		official = a.RawText.Value
	}
	if a.ExplainShort.Value == "" {
		return official
	}
	return a.ExplainShort.Value + "\n" + official
}

var (
	transcriptBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	panelBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("9")).Padding(0, 1)
	queryBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
)
