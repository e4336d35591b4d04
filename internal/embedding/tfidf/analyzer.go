package tfidf

import (
	"regexp"
	"strings"
)

// Analyzer turns a document into the list of terms it contributes.
type Analyzer func(text string) []string

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// WordAnalyzer lowercases text, extracts tokens of two or more word
// characters, drops English stop words and emits n-grams from minN to maxN.
// Unigrams come first, followed by each higher order in document order.
func WordAnalyzer(minN, maxN int) Analyzer {
	return func(text string) []string {
		raw := wordPattern.FindAllString(strings.ToLower(text), -1)
		tokens := raw[:0]
		for _, t := range raw {
			if _, isStop := englishStopWords[t]; isStop {
				continue
			}
			tokens = append(tokens, t)
		}
		return wordNGrams(tokens, minN, maxN)
	}
}

func wordNGrams(tokens []string, minN, maxN int) []string {
	if maxN == 1 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*(maxN-minN+1))
	if minN == 1 {
		out = append(out, tokens...)
		minN++
	}
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// CharWBAnalyzer lowercases text and emits character n-grams of length minN
// to maxN from each whitespace-separated word padded with one space on each
// side. A word shorter than n contributes itself once.
func CharWBAnalyzer(minN, maxN int) Analyzer {
	return func(text string) []string {
		var out []string
		for _, word := range strings.Fields(strings.ToLower(text)) {
			w := []rune(" " + word + " ")
			for n := minN; n <= maxN; n++ {
				offset := 0
				out = append(out, sliceRunes(w, offset, n))
				for offset+n < len(w) {
					offset++
					out = append(out, sliceRunes(w, offset, n))
				}
				if offset == 0 {
					break
				}
			}
		}
		return out
	}
}

func sliceRunes(w []rune, offset, n int) string {
	end := offset + n
	if end > len(w) {
		end = len(w)
	}
	return string(w[offset:end])
}
