package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	cg "github.com/philippgille/chromem-go"

	"labsafety/internal/domain"
)

var _ domain.VectorStore = (*Storage)(nil)

// Storage keeps vectors in an in-process chromem-go collection.
// Zero vectors are not stored since cosine similarity is undefined for them;
// such documents are simply absent from search results.
type Storage struct {
	mu         sync.RWMutex
	name       string
	db         *cg.DB
	collection *cg.Collection
	dimension  int
}

// NewStorage creates a store whose collection is called name.
func NewStorage(name string) *Storage {
	if name == "" {
		name = "sds"
	}
	return &Storage{name: name, db: cg.NewDB()}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return s.recreate()
}

func (s *Storage) recreate() error {
	if s.collection != nil {
		if err := s.db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}
	c, err := s.db.CreateCollection(s.name, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.collection = c
	return nil
}

func (s *Storage) Upsert(ids []int, vectors [][]float64) error {
	if len(ids) != len(vectors) {
		return errors.New("ids and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return errors.New("storage not initialized")
	}
	docs := make([]cg.Document, 0, len(ids))
	for i, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		id := strconv.Itoa(ids[i])
		if err := s.collection.Delete(context.Background(), nil, nil, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		emb, ok := toFloat32(v)
		if !ok {
			continue
		}
		docs = append(docs, cg.Document{ID: id, Embedding: emb})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search returns up to topK hits ordered by cosine similarity. topK <= 0
// returns every stored vector. A zero query vector matches nothing.
func (s *Storage) Search(vector []float64, topK int) ([]domain.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, errors.New("storage not initialized")
	}
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	query, ok := toFloat32(vector)
	if !ok {
		return nil, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > count {
		topK = count
	}
	res, err := s.collection.QueryEmbedding(context.Background(), query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	hits := make([]domain.VectorHit, 0, len(res))
	for _, r := range res {
		idx, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("bad document id %q: %w", r.ID, err)
		}
		hits = append(hits, domain.VectorHit{Index: idx, Score: float64(r.Similarity)})
	}
	return hits, nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return nil
	}
	return s.recreate()
}

// toFloat32 converts v and reports whether it has any non-zero component.
func toFloat32(v []float64) ([]float32, bool) {
	out := make([]float32, len(v))
	nonZero := false
	for i, x := range v {
		out[i] = float32(x)
		if out[i] != 0 {
			nonZero = true
		}
	}
	return out, nonZero
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("documents must be added with precomputed vectors")
}
