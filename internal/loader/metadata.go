package loader

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"labsafety/internal/domain"
)

var (
	underscoreRun  = regexp.MustCompile(`_+`)
	casPattern     = regexp.MustCompile(`(?i)\bCAS\b(?:\s*(?:No\.?|Number|RN))?\s*[:#]*\s*(\d{2,7}-\d{2}-\d)\b`)
	formulaPattern = regexp.MustCompile(`(?i)Formula\s*[:\s]*([A-Za-z0-9()+\-]+)`)
	synonymPattern = regexp.MustCompile(`(?i)Synonyms/Trade Names[:\s]*([^\n]+)`)
	synonymSplit   = regexp.MustCompile(`[;(),]`)
)

// headerStops end the short form of a header line used as an alias.
const headerStops = "-–—:,("

// ExtractMetadata derives a Document's identity fields from its filename and
// trimmed text.
func ExtractMetadata(filename, text string) domain.Document {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	doc := domain.Document{
		Filename:    filename,
		DisplayName: strings.TrimSpace(underscoreRun.ReplaceAllString(stem, " ")),
		Text:        text,
	}

	doc.Header = doc.DisplayName
	if first, _, _ := strings.Cut(text, "\n"); strings.TrimSpace(first) != "" {
		doc.Header = strings.TrimSpace(first)
	}

	aliases := map[string]struct{}{}
	add := func(a string) {
		if a != "" {
			aliases[a] = struct{}{}
		}
	}
	add(strings.ToLower(doc.DisplayName))

	short := doc.Header
	if i := strings.IndexAny(short, headerStops); i >= 0 {
		short = short[:i]
	}
	add(strings.ToLower(strings.TrimSpace(short)))

	if m := casPattern.FindStringSubmatch(text); m != nil {
		doc.CAS = m[1]
		add(doc.CAS)
	}
	if m := formulaPattern.FindStringSubmatch(text); m != nil {
		doc.Formula = strings.TrimSpace(m[1])
		add(strings.ToLower(doc.Formula))
	}
	if m := synonymPattern.FindStringSubmatch(text); m != nil {
		for _, frag := range synonymSplit.Split(m[1], -1) {
			frag = strings.TrimSpace(frag)
			if utf8.RuneCountInString(frag) > 2 {
				doc.Synonyms = append(doc.Synonyms, frag)
				add(strings.ToLower(frag))
			}
		}
	}

	doc.Aliases = make([]string, 0, len(aliases))
	for a := range aliases {
		doc.Aliases = append(doc.Aliases, a)
	}
	sort.Strings(doc.Aliases)
	return doc
}
