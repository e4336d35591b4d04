package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"labsafety/internal/service"
)

const panelSnippetLen = 240

var (
	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fieldStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// renderPanel shows the structured fields of the last result and the
// passages it was grounded on.
func renderPanel(res *service.Result, query string) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Safety Summary"))
	sb.WriteString("\n")
	if res == nil {
		sb.WriteString(dimStyle.Render("No model output yet."))
		return sb.String()
	}
	a := res.Assessment
	if a.ExplainShort.Value != "" {
		sb.WriteString(a.ExplainShort.Value + "\n")
	}
	rows := []struct {
		title string
		items []string
	}{
		{"Hazards", a.Hazards.Value},
		{"PPE required", a.PPERequired.Value},
		{"PPE recommended", a.PPERecommended.Value},
		{"Immediate actions", a.ImmediateActions.Value},
		{"Safer substitutes", a.SaferSubstitutes.Value},
		{"Citations", a.Citations.Value},
	}
	for _, r := range rows {
		sb.WriteString(listRow(r.title, r.items))
	}
	confidence := string(a.Confidence.Value)
	if confidence == "" {
		confidence = "-"
	}
	fmt.Fprintf(&sb, "%s %s\n", fieldStyle.Render("Confidence:"), confidence)
	if a.OfficialResponse.Value != "" {
		fmt.Fprintf(&sb, "\n%s\n%s\n", fieldStyle.Render("Official summary"), a.OfficialResponse.Value)
	}

	sb.WriteString("\n" + fieldStyle.Render("Retrieved sources") + "\n")
	if len(res.Retrieved) == 0 {
		sb.WriteString(dimStyle.Render("none") + "\n")
	}
	for _, p := range res.Retrieved {
		fmt.Fprintf(&sb, "- %s (%s, %.3f)\n", p.Source, p.Method, p.Score)
	}
	if len(res.Retrieved) > 0 {
		sb.WriteString("\n" + highlightBestSentence(clip(res.Retrieved[0].Text), query))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func listRow(title string, items []string) string {
	if len(items) == 0 {
		return fieldStyle.Render(title+":") + " -\n"
	}
	var sb strings.Builder
	sb.WriteString(fieldStyle.Render(title+":") + "\n")
	for _, it := range items {
		sb.WriteString("  • " + it + "\n")
	}
	return sb.String()
}

func clip(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) > panelSnippetLen {
		return string(r[:panelSnippetLen]) + "..."
	}
	return text
}

// highlightBestSentence emphasises the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
