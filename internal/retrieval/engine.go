package retrieval

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"labsafety/internal/domain"
	"labsafety/internal/vectorstore"
)

// DefaultTopK is used whenever a caller asks for fewer than one result.
const DefaultTopK = 4

var _ domain.Searcher = (*Engine)(nil)

// Options configures NewEngine. Zero values select defaults.
type Options struct {
	MaxFeatures int
	AliasMinLen int
	// StoreType names the vector store backing the similarity tier: memory or chromem.
	StoreType string
}

// Engine runs the retrieval cascade: the first matcher that returns any
// passages answers the query.
type Engine struct {
	matchers []Matcher
}

// NewEngine builds the full cascade over docs: CAS, formula, alias, then
// TF-IDF similarity.
func NewEngine(docs []domain.Document, opts Options) (*Engine, error) {
	corpus := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Text
	}
	word, char, err := BuildVectorizers(corpus, opts.MaxFeatures)
	if err != nil {
		return nil, err
	}
	wordStore, err := vectorstore.New(opts.StoreType, "sds-word")
	if err != nil {
		return nil, err
	}
	charStore, err := vectorstore.New(opts.StoreType, "sds-char")
	if err != nil {
		return nil, err
	}
	ranker, err := NewSimilarityRanker(docs, word, char, wordStore, charStore)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("documents", len(docs)).
		Int("word_features", word.Dimension()).
		Int("char_features", char.Dimension()).
		Str("store", opts.StoreType).
		Msg("retrieval index built")

	return NewCascade(
		NewCASMatcher(docs),
		NewFormulaMatcher(docs),
		NewAliasMatcher(docs, opts.AliasMinLen),
		ranker,
	), nil
}

// NewCascade returns an Engine trying matchers in the given order.
func NewCascade(matchers ...Matcher) *Engine {
	return &Engine{matchers: matchers}
}

// Search returns the passages of the first tier that answers query.
// An empty result means no tier found grounding for the query.
func (e *Engine) Search(query string, topK int) ([]domain.Passage, error) {
	if topK < 1 {
		topK = DefaultTopK
	}
	for _, m := range e.matchers {
		out, err := m.Match(query, topK)
		if err != nil {
			return nil, fmt.Errorf("%s tier: %w", m.Method(), err)
		}
		if len(out) > 0 {
			log.Debug().Str("method", string(m.Method())).Int("results", len(out)).Msg("retrieval hit")
			return out, nil
		}
	}
	log.Debug().Msg("retrieval miss")
	return nil, nil
}
