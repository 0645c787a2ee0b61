package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/54b3r/ragmanual-go/internal/assistant"
	"github.com/54b3r/ragmanual-go/internal/config"
	"github.com/54b3r/ragmanual-go/internal/embedder"
	"github.com/54b3r/ragmanual-go/internal/ingestion"
	"github.com/54b3r/ragmanual-go/internal/provider"
	"github.com/54b3r/ragmanual-go/internal/rag"
	"github.com/54b3r/ragmanual-go/internal/splitter"
	"github.com/54b3r/ragmanual-go/internal/store"
)

// Vector store backends selectable with VECTOR_STORE.
const (
	storeQdrant  = "qdrant"
	storeChromem = "chromem"
)

// vectorStore is a rag.VectorStore that can also report its own health.
// Both *rag.QdrantStore and *rag.ChromemStore satisfy it.
type vectorStore interface {
	rag.VectorStore
	Ping(ctx context.Context) error
}

// buildVectorStore opens the backend named by VECTOR_STORE (default qdrant)
// and returns it with its backend name.
func buildVectorStore(ctx context.Context, log *slog.Logger) (vectorStore, string, error) {
	backend := strings.ToLower(config.EnvString("VECTOR_STORE", storeQdrant))

	switch backend {
	case storeQdrant:
		host := config.EnvString("QDRANT_HOST", "localhost")
		port := config.EnvInt("QDRANT_PORT", 6334)
		collection := config.EnvString("QDRANT_COLLECTION", "ragmanual")
		vectorSize := uint64(embedder.DefaultDimensions(embedder.Backend())) //nolint:gosec // dimensions are bounded

		vs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: vectorSize,
			APIKey:     config.EnvString("QDRANT_API_KEY", ""),
			UseTLS:     config.EnvBool("QDRANT_TLS"),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return vs, backend, nil

	case storeChromem:
		path := config.EnvString("CHROMEM_PATH", "")
		vs, err := rag.NewChromemStore(&rag.ChromemConfig{
			Path:       path,
			Compress:   path != "",
			Collection: config.EnvString("CHROMEM_COLLECTION", ""),
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to open chromem store: %w", err)
		}
		if path == "" {
			log.Warn("chromem store is in memory, ingested chunks are lost on exit; set CHROMEM_PATH to persist")
		} else {
			log.Info("chromem store ready", slog.String("path", path))
		}
		return vs, backend, nil

	default:
		return nil, "", fmt.Errorf("unknown VECTOR_STORE %q (want %s or %s)", backend, storeQdrant, storeChromem)
	}
}

// buildEmbedder runs the RAG pre-flight check and constructs the embedder.
func buildEmbedder(ctx context.Context, log *slog.Logger) (rag.Embedder, error) {
	if err := embedder.ValidateForRAG(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("provider", embedder.Backend()))
	return emb, nil
}

// openLedger opens the ingestion ledger named by RAGMANUAL_LEDGER_DB
// (default ~/.ragmanual/ledger.db). A ledger that cannot be opened is
// disabled with a warning; the returned close function is always safe to call.
func openLedger(log *slog.Logger) (store.Ledger, func()) {
	path := config.EnvString("RAGMANUAL_LEDGER_DB", "")
	if path == store.Disabled {
		log.Info("ledger: disabled via RAGMANUAL_LEDGER_DB=disabled")
		return nil, func() {}
	}
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("ledger: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	l, err := store.Open(path)
	if err != nil {
		log.Warn("ledger: failed to open, disabling", slog.String("path", path), slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("ledger: opened", slog.String("path", path))
	return l, func() {
		if err := l.Close(); err != nil {
			log.Warn("ledger: close failed", slog.Any("error", err))
		}
	}
}

// buildPipeline wires the splitter, embedder, vector store and ledger into
// an ingestion pipeline.
func buildPipeline(emb rag.Embedder, vs rag.VectorStore, ledger store.Ledger, log *slog.Logger) (*ingestion.Pipeline, error) {
	sp, err := splitter.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}
	return ingestion.NewPipeline(emb, vs, sp, &ingestion.Config{
		BatchSize: config.EnvInt("EMBEDDING_BATCH_SIZE", 0),
		Ledger:    ledger,
		Progress:  func(msg string) { log.Info(msg) },
	})
}

// buildChatModel constructs the chat model selected by MODEL_PROVIDER. The
// provider config is returned so callers can build a matching health check.
func buildChatModel(ctx context.Context, log *slog.Logger) (model.BaseChatModel, *provider.Config, error) {
	chatModel, providerCfg, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)
	return chatModel, providerCfg, nil
}

// buildAssistant wires the retriever and the RAG_* settings into the query pipeline.
func buildAssistant(ctx context.Context, chatModel model.BaseChatModel, emb rag.Embedder, vs rag.VectorStore) (*assistant.Assistant, error) {
	retriever, err := rag.NewRetriever(emb, vs)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	a, err := assistant.New(ctx, &assistant.Config{
		ChatModel:        chatModel,
		Retriever:        retriever,
		TopK:             config.EnvInt("RAG_TOP_K", 0),
		MinScore:         config.EnvFloat32("RAG_SIMILARITY_THRESHOLD", 0),
		Subject:          config.EnvString("RAG_SUBJECT", ""),
		MaxContextTokens: config.EnvInt("RAG_MAX_CONTEXT_TOKENS", 0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise assistant: %w", err)
	}
	return a, nil
}
