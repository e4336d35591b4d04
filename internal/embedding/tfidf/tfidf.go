package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultMaxFeatures caps the vocabulary size when none is configured.
const DefaultMaxFeatures = 20000

var (
	ErrEmptyCorpus = errors.New("empty corpus for TF-IDF prepare")
	ErrNotPrepared = errors.New("tfidf vectorizer not prepared")
)

// Vectorizer implements a TF-IDF vectorizer over a pluggable analyzer.
// It builds a vocabulary from the corpus and computes smoothed IDF values.
type Vectorizer struct {
	name        string
	analyze     Analyzer
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
	dimension   int
	prepared    bool
}

// NewVectorizer creates an unprepared vectorizer. maxFeatures < 1 selects
// DefaultMaxFeatures.
func NewVectorizer(name string, analyze Analyzer, maxFeatures int) *Vectorizer {
	if maxFeatures < 1 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{
		name:        name,
		analyze:     analyze,
		maxFeatures: maxFeatures,
		vocabulary:  make(map[string]int),
	}
}

// NewWordVectorizer returns a vectorizer over word unigrams and bigrams with
// English stop words removed.
func NewWordVectorizer(maxFeatures int) *Vectorizer {
	return NewVectorizer("tfidf-word", WordAnalyzer(1, 2), maxFeatures)
}

// NewCharVectorizer returns a vectorizer over 3..6 character n-grams taken
// inside word boundaries.
func NewCharVectorizer(maxFeatures int) *Vectorizer {
	return NewVectorizer("tfidf-char", CharWBAnalyzer(3, 6), maxFeatures)
}

// Name returns the identifier of this vectorizer.
func (v *Vectorizer) Name() string { return v.name }

// Prepare builds the vocabulary and IDF values from the provided corpus.
// When the corpus yields more distinct terms than maxFeatures, the terms with
// the highest total frequency are kept; ties go to the alphabetically smaller.
func (v *Vectorizer) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.analyze(text) {
			tf[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("%w: corpus contains only stop words or no tokens", ErrEmptyCorpus)
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}
	// Stable ordering for vocabulary
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.dimension = len(terms)
	v.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced vectors.
func (v *Vectorizer) Dimension() int { return v.dimension }

// Vocabulary reports the column index of term, if it was kept.
func (v *Vectorizer) Vocabulary(term string) (int, bool) {
	idx, ok := v.vocabulary[term]
	return idx, ok
}

// Embed computes the L2-normalized TF-IDF vector for text. Text with no
// in-vocabulary terms yields the zero vector.
func (v *Vectorizer) Embed(text string) ([]float64, error) {
	if !v.prepared {
		return nil, ErrNotPrepared
	}
	vec := make([]float64, v.dimension)
	counts := make(map[int]int)
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return vec, nil
	}
	for idx, count := range counts {
		vec[idx] = float64(count) * v.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
