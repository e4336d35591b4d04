package memory

import (
	"errors"
	"sort"
	"sync"

	"labsafety/internal/domain"
)

var _ domain.VectorStore = (*Storage)(nil)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	ids       []int
	vectors   [][]float64
	pos       map[int]int
}

func NewStorage() *Storage { return &Storage{pos: make(map[int]int)} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.reset()
	return nil
}

// Upsert stores vectors under ids, replacing any vector already held for an id.
func (s *Storage) Upsert(ids []int, vectors [][]float64) error {
	if len(ids) != len(vectors) {
		return errors.New("ids and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, id := range ids {
		if p, ok := s.pos[id]; ok {
			s.vectors[p] = vectors[i]
			continue
		}
		s.pos[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Search scores every stored vector against vector and returns the topK best.
// topK <= 0 returns all hits. Ties keep insertion order.
func (s *Storage) Search(vector []float64, topK int) ([]domain.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	// vectors are assumed L2-normalized, so the dot product is the cosine
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if topK <= 0 || topK > len(idxs) {
		topK = len(idxs)
	}
	hits := make([]domain.VectorHit, 0, topK)
	for _, j := range idxs[:topK] {
		hits = append(hits, domain.VectorHit{Index: s.ids[j], Score: scores[j]})
	}
	return hits, nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Storage) reset() {
	s.ids = nil
	s.vectors = nil
	s.pos = make(map[int]int)
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
