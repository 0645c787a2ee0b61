package rag

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	// Path persists the database under this directory. Empty keeps it in memory.
	Path string

	// Compress gzips persisted files.
	Compress bool

	// Collection is the collection name (default: manuals).
	Collection string
}

// ChromemStore implements VectorStore on an embedded chromem-go database.
// Useful for single-node deployments and tests that must not reach a network.
type ChromemStore struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewChromemStore opens (or creates) the database and collection.
func NewChromemStore(cfg *ChromemConfig) (*ChromemStore, error) {
	name := cfg.Collection
	if name == "" {
		name = "manuals"
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", cfg.Path, err)
		}
	}

	// Embeddings are always supplied by the caller, so no embedding func.
	col, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: collection %q: %w", name, err)
	}
	return &ChromemStore{db: db, col: col}, nil
}

// Add stores docs with their embeddings. Source and page travel as string
// metadata since chromem only supports string values.
func (s *ChromemStore) Add(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("chromem: %d documents but %d embeddings", len(docs), len(embeddings))
	}
	if len(docs) == 0 {
		return nil
	}

	cdocs := make([]chromem.Document, 0, len(docs))
	for i, doc := range docs {
		meta := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[MetaSource] = doc.Source
		meta[MetaPage] = strconv.Itoa(doc.Page)

		cdocs = append(cdocs, chromem.Document{
			ID:        doc.ID,
			Metadata:  meta,
			Embedding: embeddings[i],
			Content:   doc.Content,
		})
	}

	if err := s.col.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: add documents: %w", err)
	}
	return nil
}

// Search queries by embedding. chromem rejects a result count larger than
// the collection, so TopK is capped at the current size.
func (s *ChromemStore) Search(ctx context.Context, queryEmbedding []float32, req SearchRequest) ([]Document, error) {
	n := req.TopK
	if size := s.col.Count(); size < n {
		n = size
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		if r.Similarity < req.MinScore {
			continue
		}
		doc := Document{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: make(map[string]string, len(r.Metadata)),
		}
		for k, v := range r.Metadata {
			switch k {
			case MetaSource:
				doc.Source = v
			case MetaPage:
				doc.Page, _ = strconv.Atoi(v)
			default:
				doc.Metadata[k] = v
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count returns the number of stored chunks.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.col.Count(), nil
}

// Ping always succeeds; the store is in-process.
func (s *ChromemStore) Ping(_ context.Context) error { return nil }

// Close is a no-op. Persistent databases write through on every Add.
func (s *ChromemStore) Close() error { return nil }
