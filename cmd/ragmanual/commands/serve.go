package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragmanual-go/internal/config"
	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/provider"
	"github.com/54b3r/ragmanual-go/internal/server"
	"github.com/54b3r/ragmanual-go/internal/tracing"
)

// NewServeCmd constructs the `ragmanual serve` command, which starts the HTTP
// server exposing ingestion and question answering.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragmanual HTTP server",
		Long: `Start the ragmanual HTTP server.

Routes:
  POST /rag/ingestPdf   body: server-side PDF path, or multipart upload
  POST /rag/ingest      multipart upload in field "path" or "file"
  POST /rag/query       body: question (?mode=advised for the advised prompt)
  GET  /rag/query       ?question=...
  GET  /rag/documents   ingestion ledger and vector count
  GET  /api/health, /api/ready, /metrics

/rag routes require "Authorization: Bearer $RAGMANUAL_API_KEY" when the key
is set. RAGMANUAL_INGEST_ROOT confines server-side ingest paths.

Examples:
  ragmanual serve
  ragmanual serve --port 9090
  VECTOR_STORE=chromem CHROMEM_PATH=./data ragmanual serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			if !cmd.Flags().Changed("host") {
				host = config.EnvString("RAGMANUAL_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = config.EnvInt("RAGMANUAL_PORT", port)
			}

			flush := tracing.Setup(tracing.SettingsFromEnv(), log)
			defer flush()

			chatModel, providerCfg, err := buildChatModel(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := buildEmbedder(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			vs, storeName, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer vs.Close() //nolint:errcheck

			ledger, closeLedger := openLedger(log)
			defer closeLedger()

			pipeline, err := buildPipeline(emb, vs, ledger, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			asst, err := buildAssistant(ctx, chatModel, emb, vs)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{
				server.NewLLMPinger(chatModel, provider.NewHealthChecker(providerCfg, nil), string(providerCfg.Backend)),
				server.NewStorePinger(vs, storeName),
			}

			srvCfg := &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        pingers,
				RateLimit:      float64(config.EnvFloat32("RAGMANUAL_RATE_LIMIT", 0)),
				RateBurst:      config.EnvInt("RAGMANUAL_RATE_BURST", 0),
				APIKey:         config.EnvString("RAGMANUAL_API_KEY", ""),
				IngestRoot:     config.EnvString("RAGMANUAL_INGEST_ROOT", ""),
				MaxUploadBytes: int64(config.EnvInt("RAGMANUAL_MAX_UPLOAD_BYTES", 0)),
				Ledger:         ledger,
				Vectors:        vs,
			}

			srv, err := server.New(pipeline, asst, srvCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("provider", string(providerCfg.Backend)),
				slog.String("vector_store", storeName),
				slog.Bool("ledger", ledger != nil),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env: RAGMANUAL_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on (env: RAGMANUAL_PORT)")

	return cmd
}
