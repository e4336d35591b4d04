package retrieval

import (
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"labsafety/internal/domain"
)

// NewCachedSearcher memoizes next's results per (topK, query). It returns
// next unchanged when size or ttl is not positive.
func NewCachedSearcher(next domain.Searcher, size int, ttl time.Duration) domain.Searcher {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedSearcher{
		next:  next,
		cache: expirable.NewLRU[string, []domain.Passage](size, nil, ttl),
	}
}

type cachedSearcher struct {
	next  domain.Searcher
	cache *expirable.LRU[string, []domain.Passage]
}

func (c *cachedSearcher) Search(query string, topK int) ([]domain.Passage, error) {
	key := strconv.Itoa(topK) + "\x00" + query
	if cached, ok := c.cache.Get(key); ok {
		log.Debug().Int("results", len(cached)).Msg("retrieval cache hit")
		return clonePassages(cached), nil
	}
	res, err := c.next.Search(query, topK)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clonePassages(res))
	return res, nil
}

func clonePassages(in []domain.Passage) []domain.Passage {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Passage, len(in))
	copy(out, in)
	return out
}
