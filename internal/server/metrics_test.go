package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil, nil, nil)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/api/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	_ = resp.Body.Close()

	req, _ = http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Errorf("want 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `ragmanual_http_requests_total{code="200",handler="/api/health",method="GET"} 1`) {
		t.Errorf("http counter for /api/health missing from exposition:\n%s", body)
	}
}

func Test_Metrics_QueryCounterIncremented(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t, nil, nil, nil)

	s.metrics.queryRequestsTotal.WithLabelValues(outcomeOK).Inc()

	if got := counterValue(t, reg, "ragmanual_query_requests_total", "outcome", "ok"); got != 1 {
		t.Errorf("want counter=1, got %v", got)
	}
}

func Test_Metrics_UnmatchedRoute(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t, nil, nil, nil)

	if w := serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := counterValue(t, reg, "ragmanual_http_requests_total", "handler", "unmatched"); got != 1 {
		t.Errorf("unmatched counter = %v, want 1", got)
	}
}
