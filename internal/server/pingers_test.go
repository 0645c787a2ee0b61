package server

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeHealthChecker struct{ err error }

func (f fakeHealthChecker) HealthCheck(context.Context) error { return f.err }

// countingModel counts Generate calls.
type countingModel struct {
	calls int
	err   error
}

func (m *countingModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage("pong", nil), nil
}

func (m *countingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

type fakeStorePing struct{ err error }

func (f fakeStorePing) Ping(context.Context) error { return f.err }

func TestLLMPinger_PrefersHealthCheck(t *testing.T) {
	t.Parallel()
	m := &countingModel{}

	p := NewLLMPinger(m, fakeHealthChecker{}, "ollama")
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if m.calls != 0 {
		t.Errorf("Generate called %d times, want 0 when a health check exists", m.calls)
	}

	p = NewLLMPinger(m, fakeHealthChecker{err: errors.New("401")}, "openai")
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected health check failure")
	}
	if p.Name() != "openai" {
		t.Errorf("name = %q", p.Name())
	}
}

func TestLLMPinger_FallsBackToGenerate(t *testing.T) {
	t.Parallel()
	m := &countingModel{}

	p := NewLLMPinger(m, nil, "gemini")
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("Generate called %d times, want 1", m.calls)
	}

	m.err = errors.New("quota exceeded")
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected generate failure to surface")
	}

	if err := NewLLMPinger(nil, nil, "ark").Ping(context.Background()); err == nil {
		t.Error("expected error with neither model nor health check")
	}
}

func TestStorePinger(t *testing.T) {
	t.Parallel()
	if err := NewStorePinger(fakeStorePing{}, "chromem").Ping(context.Background()); err != nil {
		t.Errorf("healthy store: %v", err)
	}
	down := errors.New("connection refused")
	p := NewStorePinger(fakeStorePing{err: down}, "qdrant")
	if err := p.Ping(context.Background()); !errors.Is(err, down) {
		t.Errorf("err = %v, want wrapped %v", err, down)
	}
	if p.Name() != "qdrant" {
		t.Errorf("name = %q", p.Name())
	}
}
