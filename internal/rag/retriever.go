package rag

import (
	"context"
	"fmt"
	"sort"
)

// DefaultRetriever implements Retriever by embedding the query and
// delegating the similarity search to a VectorStore.
type DefaultRetriever struct {
	embedder Embedder
	store    VectorStore
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and VectorStore.
func NewRetriever(embedder Embedder, store VectorStore) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	return &DefaultRetriever{embedder: embedder, store: store}, nil
}

// Retrieve embeds the query and returns at most req.TopK documents, best
// first, none scoring below req.MinScore. The bound and threshold are
// enforced here too so every store behaves the same.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, req SearchRequest) ([]Document, error) {
	if req.TopK <= 0 {
		return nil, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}

	docs, err := r.store.Search(ctx, embeddings[0], req)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	kept := docs[:0]
	for _, d := range docs {
		if d.Score >= req.MinScore {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > req.TopK {
		kept = kept[:req.TopK]
	}
	return kept, nil
}
