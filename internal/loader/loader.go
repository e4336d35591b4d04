package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"labsafety/internal/domain"
)

// Loader reads a directory of SDS excerpts into Documents.
type Loader struct {
	Readers     map[string]Reader
	Concurrency int
}

// New returns a Loader for .txt, .md, .pdf and .docx files.
func New() *Loader {
	return &Loader{Readers: DefaultReaders(), Concurrency: runtime.NumCPU()}
}

// LoadDirectory loads dir with the default readers.
func LoadDirectory(ctx context.Context, dir string) ([]domain.Document, error) {
	return New().LoadDirectory(ctx, dir)
}

// LoadDirectory reads every supported file directly inside dir, sorted by
// filename. Files whose trimmed text is empty are skipped.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := l.Readers[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	texts := make([]string, len(names))
	g, ctx := errgroup.WithContext(ctx)
	if l.Concurrency > 0 {
		g.SetLimit(l.Concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			read := l.Readers[strings.ToLower(filepath.Ext(name))]
			text, err := read(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(names))
	for i, name := range names {
		if texts[i] == "" {
			log.Debug().Str("file", name).Msg("skipping empty document")
			continue
		}
		docs = append(docs, ExtractMetadata(name, texts[i]))
	}
	log.Debug().Str("dir", dir).Int("documents", len(docs)).Msg("documents loaded")
	return docs, nil
}
