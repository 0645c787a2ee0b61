// Package tracing wires optional Langfuse tracing into every eino chat model
// call made by the assistant chains.
package tracing

import (
	"log/slog"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/ragmanual-go/internal/config"
)

const defaultHost = "http://localhost:3000"

// Settings holds the Langfuse connection details.
type Settings struct {
	Host      string
	PublicKey string
	SecretKey string
}

// Enabled reports whether both keys are present.
func (s Settings) Enabled() bool {
	return s.PublicKey != "" && s.SecretKey != ""
}

// SettingsFromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func SettingsFromEnv() Settings {
	return Settings{
		Host:      config.EnvString("LANGFUSE_HOST", defaultHost),
		PublicKey: config.EnvString("LANGFUSE_PUBLIC_KEY", ""),
		SecretKey: config.EnvString("LANGFUSE_SECRET_KEY", ""),
	}
}

// Setup registers a global Langfuse callback handler when s is enabled and
// returns a flush function to call before exit. When tracing is disabled the
// returned function is a no-op.
func Setup(s Settings, log *slog.Logger) func() {
	if !s.Enabled() {
		log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
		return func() {}
	}
	if s.Host == "" {
		s.Host = defaultHost
	}

	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      s.Host,
		PublicKey: s.PublicKey,
		SecretKey: s.SecretKey,
	})
	callbacks.AppendGlobalHandlers(handler)
	log.Info("langfuse tracing enabled", slog.String("host", s.Host))
	return flush
}
