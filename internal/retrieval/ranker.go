package retrieval

import (
	"fmt"
	"sort"

	"labsafety/internal/domain"
	"labsafety/internal/embedding/tfidf"
)

const (
	WordWeight = 0.45
	CharWeight = 0.55
	// MinScore is the admission threshold of the similarity tier.
	MinScore = 0.06
)

// BuildVectorizers fits the word and character TF-IDF vectorizers on corpus.
func BuildVectorizers(corpus []string, maxFeatures int) (word, char *tfidf.Vectorizer, err error) {
	word = tfidf.NewWordVectorizer(maxFeatures)
	if err := word.Prepare(corpus); err != nil {
		return nil, nil, fmt.Errorf("fit word vectorizer: %w", err)
	}
	char = tfidf.NewCharVectorizer(maxFeatures)
	if err := char.Prepare(corpus); err != nil {
		return nil, nil, fmt.Errorf("fit char vectorizer: %w", err)
	}
	return word, char, nil
}

// representation pairs a vectorizer with the store holding its document vectors.
type representation struct {
	vectorizer domain.Vectorizer
	store      domain.VectorStore
	weight     float64
}

func newRepresentation(docs []domain.Document, v domain.Vectorizer, store domain.VectorStore, weight float64) (representation, error) {
	if err := store.Init(v.Dimension()); err != nil {
		return representation{}, fmt.Errorf("init %s store: %w", v.Name(), err)
	}
	ids := make([]int, len(docs))
	vectors := make([][]float64, len(docs))
	for i, doc := range docs {
		vec, err := v.Embed(doc.Text)
		if err != nil {
			return representation{}, fmt.Errorf("embed %s: %w", doc.Filename, err)
		}
		ids[i] = i
		vectors[i] = vec
	}
	if err := store.Upsert(ids, vectors); err != nil {
		return representation{}, fmt.Errorf("index %s vectors: %w", v.Name(), err)
	}
	return representation{vectorizer: v, store: store, weight: weight}, nil
}

// scores adds this representation's weighted cosine for every document into acc.
func (r representation) scores(query string, acc []float64) error {
	q, err := r.vectorizer.Embed(query)
	if err != nil {
		return err
	}
	hits, err := r.store.Search(q, 0)
	if err != nil {
		return err
	}
	for _, h := range hits {
		if h.Index >= 0 && h.Index < len(acc) {
			acc[h.Index] += r.weight * h.Score
		}
	}
	return nil
}

// SimilarityRanker is the fuzzy last tier: a weighted blend of word and
// character TF-IDF cosine similarity, gated by MinScore.
type SimilarityRanker struct {
	docs []domain.Document
	reps []representation
}

// NewSimilarityRanker indexes every document in wordStore and charStore.
func NewSimilarityRanker(docs []domain.Document, word, char domain.Vectorizer, wordStore, charStore domain.VectorStore) (*SimilarityRanker, error) {
	w, err := newRepresentation(docs, word, wordStore, WordWeight)
	if err != nil {
		return nil, err
	}
	c, err := newRepresentation(docs, char, charStore, CharWeight)
	if err != nil {
		return nil, err
	}
	return &SimilarityRanker{docs: docs, reps: []representation{w, c}}, nil
}

func (r *SimilarityRanker) Method() domain.Method { return domain.MethodTFIDF }

func (r *SimilarityRanker) Match(query string, topK int) ([]domain.Passage, error) {
	combined := make([]float64, len(r.docs))
	for _, rep := range r.reps {
		if err := rep.scores(query, combined); err != nil {
			return nil, fmt.Errorf("score %s: %w", rep.vectorizer.Name(), err)
		}
	}

	best := 0.0
	for _, s := range combined {
		if s > best {
			best = s
		}
	}
	if best < MinScore {
		return nil, nil
	}

	idxs := make([]int, 0, len(combined))
	for i, s := range combined {
		if s >= MinScore {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool { return combined[idxs[a]] > combined[idxs[b]] })
	if len(idxs) > topK {
		idxs = idxs[:topK]
	}

	out := make([]domain.Passage, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, passage(r.docs[i], combined[i], domain.MethodTFIDF))
	}
	return out, nil
}
