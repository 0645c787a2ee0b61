package tracing

import (
	"testing"

	"github.com/54b3r/ragmanual-go/internal/logging"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk-lf-test")
	t.Setenv("LANGFUSE_SECRET_KEY", "")

	s := SettingsFromEnv()
	if s.Host != defaultHost {
		t.Errorf("host = %q, want default %q", s.Host, defaultHost)
	}
	if s.Enabled() {
		t.Error("tracing must stay disabled without a secret key")
	}

	t.Setenv("LANGFUSE_SECRET_KEY", "sk-lf-test")
	if !SettingsFromEnv().Enabled() {
		t.Error("expected tracing enabled with both keys")
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	t.Parallel()
	flush := Setup(Settings{}, logging.Discard())
	if flush == nil {
		t.Fatal("flush must never be nil")
	}
	flush()
}
