// Package splitter cuts page documents into bounded chunks that keep the
// page they came from.
//
// Environment variables:
//
//	SPLITTER_MODE          = token | recursive (default: token)
//	SPLITTER_CHUNK_SIZE    tokens in token mode, characters in recursive mode (default: 800)
//	SPLITTER_CHUNK_OVERLAP (default: 0)
package splitter

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/54b3r/ragmanual-go/internal/rag"
)

// tiktoken fetches BPE ranks over HTTP unless a loader is set; the offline
// loader embeds them so ingestion works without outbound access.
func init() {
	tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
}

// Modes.
const (
	ModeToken     = "token"
	ModeRecursive = "recursive"
)

const (
	defaultChunkSize = 800
	// defaultMinChunkChars drops fragments too short to be worth embedding.
	defaultMinChunkChars = 5
	// defaultMaxChunks caps the chunks produced from one Split call.
	defaultMaxChunks = 10000
)

// Config tunes a Splitter. Zero values take the defaults.
type Config struct {
	Mode          string
	ChunkSize     int
	ChunkOverlap  int
	MinChunkChars int
	MaxChunks     int
}

// Splitter splits documents with a langchaingo text splitter.
type Splitter struct {
	ts        textsplitter.TextSplitter
	minChars  int
	maxChunks int
}

// New builds a Splitter. Token mode counts tiktoken tokens (cl100k_base).
// Recursive mode splits on paragraph, line and word boundaries by character
// count.
func New(cfg Config) (*Splitter, error) {
	size := cfg.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= size {
		return nil, fmt.Errorf("splitter: chunk overlap %d must be in [0, %d)", cfg.ChunkOverlap, size)
	}

	var ts textsplitter.TextSplitter
	switch strings.ToLower(cfg.Mode) {
	case "", ModeToken:
		ts = textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		)
	case ModeRecursive:
		ts = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		)
	default:
		return nil, fmt.Errorf("splitter: unknown mode %q (valid values: token, recursive)", cfg.Mode)
	}

	s := &Splitter{ts: ts, minChars: cfg.MinChunkChars, maxChunks: cfg.MaxChunks}
	if s.minChars <= 0 {
		s.minChars = defaultMinChunkChars
	}
	if s.maxChunks <= 0 {
		s.maxChunks = defaultMaxChunks
	}
	return s, nil
}

// NewFromEnv builds a Splitter from the SPLITTER_* environment variables.
func NewFromEnv() (*Splitter, error) {
	return New(Config{
		Mode:         os.Getenv("SPLITTER_MODE"),
		ChunkSize:    envInt("SPLITTER_CHUNK_SIZE"),
		ChunkOverlap: envInt("SPLITTER_CHUNK_OVERLAP"),
	})
}

// Split returns the chunks of every input document, in order. Each chunk
// gets a fresh random ID, inherits Source, Page and Metadata from its
// document and carries its position within that document as chunk_index.
func (s *Splitter) Split(docs []rag.Document) ([]rag.Document, error) {
	var out []rag.Document
	for _, doc := range docs {
		parts, err := s.ts.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("splitter: page %d of %s: %w", doc.Page, doc.Source, err)
		}

		idx := 0
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if len(part) < s.minChars {
				continue
			}
			if len(out) >= s.maxChunks {
				return out, nil
			}

			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[rag.MetaChunkIndex] = strconv.Itoa(idx)
			idx++

			out = append(out, rag.Document{
				ID:       uuid.NewString(),
				Content:  part,
				Source:   doc.Source,
				Page:     doc.Page,
				Metadata: meta,
			})
		}
	}
	return out, nil
}

func envInt(key string) int {
	i, _ := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	return i
}
