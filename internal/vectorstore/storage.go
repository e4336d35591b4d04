package vectorstore

import (
	"fmt"

	"labsafety/internal/domain"
	"labsafety/internal/vectorstore/chromem"
	"labsafety/internal/vectorstore/memory"
)

// New builds a vector store by type name. An empty name selects memory.
func New(kind, collection string) (domain.VectorStore, error) {
	switch kind {
	case "", "memory":
		return memory.NewStorage(), nil
	case "chromem":
		return chromem.NewStorage(collection), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", kind)
	}
}
