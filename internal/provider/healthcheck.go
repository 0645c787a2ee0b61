package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HealthChecker probes a backend without generating tokens.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// httpCheck issues a GET against a cheap listing endpoint of the backend.
type httpCheck struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewHealthChecker returns a zero-cost probe for the configured backend, or
// nil when the backend has no cheap endpoint. Callers fall back to a
// Generate call in that case.
func NewHealthChecker(cfg *Config, client *http.Client) HealthChecker {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	switch cfg.Backend {
	case BackendOllama:
		return &httpCheck{
			url:    strings.TrimRight(cfg.Ollama.Host, "/") + "/api/tags",
			client: client,
		}
	case BackendOpenAI:
		base := cfg.OpenAI.BaseURL
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return &httpCheck{
			url:     strings.TrimRight(base, "/") + "/models",
			headers: map[string]string{"Authorization": "Bearer " + cfg.OpenAI.APIKey},
			client:  client,
		}
	case BackendAzure:
		az := cfg.AzureOpenAI
		return &httpCheck{
			url:     fmt.Sprintf("%s/openai/models?api-version=%s", strings.TrimRight(az.Endpoint, "/"), az.APIVersion),
			headers: map[string]string{"api-key": az.APIKey},
			client:  client,
		}
	default:
		return nil
	}
}

// HealthCheck returns nil when the endpoint answers with a 2xx status.
func (h *httpCheck) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("provider: build health request: %w", err)
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider: health request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider: health endpoint returned %d", resp.StatusCode)
	}
	return nil
}
