package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	name  string
	err   error
	delay time.Duration
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestHandleHealth_OK(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil, nil, nil)
	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status: expected %q, got %q", "ok", body["status"])
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		pingers    []Pinger
		wantStatus int
		wantReady  bool
		wantFailed []string
	}{
		{
			name:       "no pingers",
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "all healthy",
			pingers: []Pinger{
				&fakePinger{name: "ollama"},
				&fakePinger{name: "qdrant", delay: 10 * time.Millisecond},
			},
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "one failing",
			pingers: []Pinger{
				&fakePinger{name: "ollama"},
				&fakePinger{name: "qdrant", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"qdrant"},
		},
		{
			name: "all failing",
			pingers: []Pinger{
				&fakePinger{name: "ollama", err: errors.New("timeout")},
				&fakePinger{name: "qdrant", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"ollama", "qdrant"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestServer(t, nil, nil, &Config{Pingers: tc.pingers})
			w := serve(s, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d, body: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: expected application/json, got %q", ct)
			}

			var resp readyResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Ready != tc.wantReady {
				t.Errorf("ready = %v, want %v", resp.Ready, tc.wantReady)
			}
			if len(resp.Checks) != len(tc.pingers) {
				t.Fatalf("expected %d checks, got %d", len(tc.pingers), len(resp.Checks))
			}
			for i, c := range resp.Checks {
				if c.Name != tc.pingers[i].Name() {
					t.Errorf("check %d: name %q, want registration order", i, c.Name)
				}
			}

			failed := map[string]bool{}
			for _, c := range resp.Checks {
				if !c.OK {
					failed[c.Name] = true
					if c.Error == "" {
						t.Errorf("check %q: expected non-empty error", c.Name)
					}
				}
			}
			if len(failed) != len(tc.wantFailed) {
				t.Errorf("failed checks = %v, want %v", failed, tc.wantFailed)
			}
			for _, name := range tc.wantFailed {
				if !failed[name] {
					t.Errorf("expected %q to fail", name)
				}
			}
		})
	}
}
