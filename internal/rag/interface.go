// Package rag defines the retrieval building blocks: the chunk type stored
// in and returned from vector stores, the store and embedder interfaces, and
// a Retriever that combines them. Qdrant and chromem-go implementations live
// alongside so the query and ingestion layers never depend on a backend.
package rag

import (
	"context"
)

// Metadata keys written alongside every stored chunk.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaContent    = "content"
)

// Document is one chunk of a manual, either about to be stored or returned
// from a similarity search.
type Document struct {
	// ID is the unique identifier for this chunk.
	ID string

	// Content is the chunk text.
	Content string

	// Source identifies the file the chunk came from.
	Source string

	// Page is the 1-based page of the source the chunk was split from.
	Page int

	// Metadata holds extra string key-value pairs (chunk_index, ...).
	Metadata map[string]string

	// Score is the similarity assigned during retrieval. Zero on stored chunks.
	Score float32
}

// SearchRequest bounds a similarity search.
type SearchRequest struct {
	// TopK is the maximum number of results.
	TopK int
	// MinScore drops results whose similarity is below it. Zero disables it.
	MinScore float32
}

// VectorStore persists chunk embeddings and answers similarity searches.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Add stores docs with their pre-computed embeddings; embeddings[i]
	// belongs to docs[i].
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the documents closest to queryEmbedding, best first.
	Search(ctx context.Context, queryEmbedding []float32, req SearchRequest) ([]Document, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts texts into dense vectors.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed returns one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever fetches the chunks most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, req SearchRequest) ([]Document, error)
}
