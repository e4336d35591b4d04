package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"labsafety/internal/domain"
)

const (
	ScoreCAS     = 1.0
	ScoreFormula = 0.98
	ScoreAlias   = 0.95

	DefaultAliasMinLen = 3
)

// Matcher is one tier of the retrieval cascade. A tier that cannot answer the
// query returns an empty slice so the next tier runs.
type Matcher interface {
	Method() domain.Method
	Match(query string, topK int) ([]domain.Passage, error)
}

func passage(doc domain.Document, score float64, method domain.Method) domain.Passage {
	return domain.Passage{Text: doc.Text, Source: doc.Filename, Score: score, Method: method}
}

var queryCAS = regexp.MustCompile(`\b(\d{2,7}-\d{2}-\d)\b`)

// CASMatcher finds documents by the first CAS-shaped identifier in the query.
// It returns every match; topK does not apply.
type CASMatcher struct {
	docs []domain.Document
}

func NewCASMatcher(docs []domain.Document) *CASMatcher { return &CASMatcher{docs: docs} }

func (m *CASMatcher) Method() domain.Method { return domain.MethodCAS }

func (m *CASMatcher) Match(query string, _ int) ([]domain.Passage, error) {
	sub := queryCAS.FindStringSubmatch(query)
	if sub == nil {
		return nil, nil
	}
	var out []domain.Passage
	for _, doc := range m.docs {
		if doc.CAS != "" && strings.Contains(doc.CAS, sub[1]) {
			out = append(out, passage(doc, ScoreCAS, domain.MethodCAS))
		}
	}
	return out, nil
}

var queryToken = regexp.MustCompile(`[A-Za-z0-9()+\-]+`)

// FormulaMatcher finds documents whose formula equals a query token,
// case-insensitively. Hits keep corpus order.
type FormulaMatcher struct {
	docs []domain.Document
}

func NewFormulaMatcher(docs []domain.Document) *FormulaMatcher { return &FormulaMatcher{docs: docs} }

func (m *FormulaMatcher) Method() domain.Method { return domain.MethodFormula }

func (m *FormulaMatcher) Match(query string, topK int) ([]domain.Passage, error) {
	tokens := make(map[string]struct{})
	for _, tok := range queryToken.FindAllString(query, -1) {
		tokens[strings.ToLower(tok)] = struct{}{}
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	var out []domain.Passage
	for _, doc := range m.docs {
		if doc.Formula == "" {
			continue
		}
		if _, ok := tokens[strings.ToLower(doc.Formula)]; ok {
			out = append(out, passage(doc, ScoreFormula, domain.MethodFormula))
			if len(out) == topK {
				break
			}
		}
	}
	return out, nil
}

type aliasRule struct {
	alias string
	word  *regexp.Regexp
}

func (r aliasRule) matches(lowerQuery string) bool {
	if r.word == nil {
		return strings.Contains(lowerQuery, r.alias)
	}
	return r.word.MatchString(lowerQuery)
}

// AliasMatcher finds documents whose aliases appear in the query. Multi-word
// aliases match as substrings; single-word aliases must match a whole word.
type AliasMatcher struct {
	docs  []domain.Document
	rules [][]aliasRule
}

// NewAliasMatcher precompiles the alias rules of every document, ignoring
// aliases shorter than minLen characters. minLen < 1 selects DefaultAliasMinLen.
func NewAliasMatcher(docs []domain.Document, minLen int) *AliasMatcher {
	if minLen < 1 {
		minLen = DefaultAliasMinLen
	}
	rules := make([][]aliasRule, len(docs))
	for i, doc := range docs {
		for _, a := range doc.Aliases {
			if utf8.RuneCountInString(a) < minLen {
				continue
			}
			r := aliasRule{alias: a}
			if !strings.Contains(a, " ") {
				r.word = regexp.MustCompile(`\b` + regexp.QuoteMeta(a) + `\b`)
			}
			rules[i] = append(rules[i], r)
		}
	}
	return &AliasMatcher{docs: docs, rules: rules}
}

func (m *AliasMatcher) Method() domain.Method { return domain.MethodAlias }

func (m *AliasMatcher) Match(query string, topK int) ([]domain.Passage, error) {
	lower := strings.ToLower(query)
	var out []domain.Passage
	for i, doc := range m.docs {
		for _, r := range m.rules[i] {
			if r.matches(lower) {
				out = append(out, passage(doc, ScoreAlias, domain.MethodAlias))
				break
			}
		}
		if len(out) == topK {
			break
		}
	}
	return out, nil
}
