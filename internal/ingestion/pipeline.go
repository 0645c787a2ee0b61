// Package ingestion implements the PDF ingestion pipeline: read pages,
// split them into chunks, embed the chunks and add them to the vector
// store. It backs both POST /rag/ingestPdf and the `ragmanual ingest`
// command.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/pdfreader"
	"github.com/54b3r/ragmanual-go/internal/rag"
	"github.com/54b3r/ragmanual-go/internal/store"
)

// ErrNoText is returned when a PDF yields no extractable text.
var ErrNoText = errors.New("ingestion: no text extracted")

const defaultBatchSize = 32

// Source is a PDF to ingest.
type Source struct {
	// Name identifies the document in chunk metadata and the ledger.
	Name string
	// Reader gives random access to the PDF bytes.
	Reader io.ReaderAt
	// Size is the PDF length in bytes.
	Size int64
}

// Result summarises one ingestion.
type Result struct {
	Source string `json:"source"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
}

// Splitter cuts page documents into chunks.
type Splitter interface {
	Split(docs []rag.Document) ([]rag.Document, error)
}

// Config holds optional pipeline settings.
type Config struct {
	// BatchSize is the number of chunks embedded and stored per round trip.
	// Defaults to 32.
	BatchSize int

	// Ledger records each successful ingestion. Nil disables it.
	Ledger store.Ledger

	// Progress receives human-readable progress lines. Nil discards them.
	Progress func(msg string)
}

// Pipeline orchestrates the read -> split -> embed -> add flow.
type Pipeline struct {
	embedder rag.Embedder
	store    rag.VectorStore
	splitter Splitter
	cfg      Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, vs rag.VectorStore, splitter Splitter, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if vs == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if splitter == nil {
		return nil, fmt.Errorf("ingestion: splitter must not be nil")
	}

	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Progress == nil {
		c.Progress = func(string) {}
	}
	return &Pipeline{embedder: embedder, store: vs, splitter: splitter, cfg: c}, nil
}

// IngestFile ingests the PDF at path. The file's base name becomes the
// source name.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	pages, err := pdfreader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", path, err)
	}
	return p.ingestPages(ctx, filepath.Base(path), pages)
}

// Ingest reads, splits, embeds and stores one PDF. Chunks are added batch by
// batch; a failure part-way leaves the earlier batches in the store.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (*Result, error) {
	pages, err := pdfreader.Read(src.Reader, src.Size)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", src.Name, err)
	}
	return p.ingestPages(ctx, src.Name, pages)
}

func (p *Pipeline) ingestPages(ctx context.Context, name string, pages []pdfreader.Page) (*Result, error) {
	log := logging.FromContext(ctx).With(slog.String("source", name))

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoText, name)
	}
	p.cfg.Progress(fmt.Sprintf("read %d pages from %s", len(pages), name))

	pageDocs := make([]rag.Document, 0, len(pages))
	for _, pg := range pages {
		pageDocs = append(pageDocs, rag.Document{
			Content: pg.Text,
			Source:  name,
			Page:    pg.Number,
		})
	}

	chunks, err := p.splitter.Split(pageDocs)
	if err != nil {
		return nil, fmt.Errorf("ingestion: split %s: %w", name, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w from %s", ErrNoText, name)
	}
	p.cfg.Progress(fmt.Sprintf("split %s into %d chunks", name, len(chunks)))

	for start := 0; start < len(chunks); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("ingestion: embedding failed for %s: %w", name, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("ingestion: embedding failed for %s: expected %d embeddings, got %d", name, len(batch), len(embeddings))
		}
		if err := p.store.Add(ctx, batch, embeddings); err != nil {
			return nil, fmt.Errorf("ingestion: add failed for %s: %w", name, err)
		}
		p.cfg.Progress(fmt.Sprintf("stored %d/%d chunks", end, len(chunks)))
	}

	res := &Result{Source: name, Pages: len(pages), Chunks: len(chunks)}

	if p.cfg.Ledger != nil {
		if _, err := p.cfg.Ledger.Record(ctx, res.Source, res.Pages, res.Chunks); err != nil {
			log.Warn("ingestion: ledger record failed", slog.String("error", err.Error()))
		}
	}

	log.Info("ingestion: complete",
		slog.Int("pages", res.Pages),
		slog.Int("chunks", res.Chunks),
	)
	return res, nil
}
