package server

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/provider"
)

// LLMPinger probes the chat backend. A zero-token HealthChecker is used when
// the backend has one; otherwise a single tiny Generate call is made.
type LLMPinger struct {
	model       model.BaseChatModel
	healthCheck provider.HealthChecker
	name        string
}

// NewLLMPinger constructs an LLMPinger. hc may be nil.
func NewLLMPinger(m model.BaseChatModel, hc provider.HealthChecker, name string) *LLMPinger {
	return &LLMPinger{model: m, healthCheck: hc, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *LLMPinger) Name() string { return p.name }

// Ping probes the backend.
func (p *LLMPinger) Ping(ctx context.Context) error {
	if p.healthCheck != nil {
		if err := p.healthCheck.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check failed: %w", p.name, err)
		}
		return nil
	}
	if p.model == nil {
		return fmt.Errorf("%s: no model to probe", p.name)
	}

	logging.FromContext(ctx).Debug("pinger: no cheap probe, using Generate")
	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("generate returned nil response")
	}
	return nil
}

// storePing is satisfied by *rag.QdrantStore and *rag.ChromemStore.
type storePing interface {
	Ping(ctx context.Context) error
}

// StorePinger probes the vector store backend.
type StorePinger struct {
	store storePing
	name  string
}

// NewStorePinger constructs a StorePinger labelled name (e.g. "qdrant").
func NewStorePinger(s storePing, name string) *StorePinger {
	return &StorePinger{store: s, name: name}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return p.name }

// Ping calls the store's own health check.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
