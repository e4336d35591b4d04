package domain

import (
	"context"
	"errors"
)

// Document is a single SDS excerpt loaded into the index, together with the
// identity metadata derived from it. Documents are immutable once loaded.
type Document struct {
	Filename    string
	DisplayName string
	Header      string
	Aliases     []string
	CAS         string
	Formula     string
	Synonyms    []string
	Text        string
}

// Method names the retrieval tier that produced a passage.
type Method string

const (
	MethodCAS     Method = "cas"
	MethodFormula Method = "formula"
	MethodAlias   Method = "alias"
	MethodTFIDF   Method = "tfidf"
)

// Passage is one retrieved document with its relevance score.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
	Method Method  `json:"method"`
}

// VectorHit is a similarity score for one indexed document.
type VectorHit struct {
	Index int
	Score float64
}

// Vectorizer converts free text into a numeric vector representation.
// Implementations require a preparation phase over the corpus.
type Vectorizer interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// VectorStore holds document vectors and scores them against a query vector.
type VectorStore interface {
	Init(dimension int) error
	Upsert(ids []int, vectors [][]float64) error
	Search(vector []float64, topK int) ([]VectorHit, error)
	Len() int
	Clear() error
}

// Searcher resolves a query into ranked passages.
type Searcher interface {
	Search(query string, topK int) ([]Passage, error)
}

// ErrModelCall wraps every failure of the outbound model call: transport
// errors, timeouts, non-2xx statuses and malformed bodies.
var ErrModelCall = errors.New("model call failed")

// ChatRequest is the provider-neutral model request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// ChatResponse carries the first choice's text and the undecoded body.
type ChatResponse struct {
	Content string
	Raw     []byte
}

// ChatModel performs one blocking, non-streaming completion.
type ChatModel interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
