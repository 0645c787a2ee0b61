package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/54b3r/ragmanual-go/internal/store"
	"github.com/54b3r/ragmanual-go/internal/version"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), version.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrintIngestions(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		if err := printIngestions(&out, nil); err != nil {
			t.Fatalf("print: %v", err)
		}
		if got := out.String(); got != "no ingestions recorded\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("rows", func(t *testing.T) {
		t.Parallel()
		rows := []store.Ingestion{
			{Source: "runewars-rules.pdf", Pages: 48, Chunks: 120, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
			{Source: "faq.pdf", Pages: 6, Chunks: 14, CreatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		}
		var out bytes.Buffer
		if err := printIngestions(&out, rows); err != nil {
			t.Fatalf("print: %v", err)
		}
		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
		}
		if fields := strings.Fields(lines[0]); len(fields) != 4 || fields[0] != "INGESTED" || fields[3] != "CHUNKS" {
			t.Errorf("header = %q", lines[0])
		}
		for i, want := range []string{"runewars-rules.pdf", "faq.pdf"} {
			if !strings.Contains(lines[i+1], want) {
				t.Errorf("line %d = %q, want it to contain %q", i+1, lines[i+1], want)
			}
		}
		if fields := strings.Fields(lines[1]); len(fields) < 2 || fields[len(fields)-2] != "48" || fields[len(fields)-1] != "120" {
			t.Errorf("line 1 = %q, want pages and chunks columns", lines[1])
		}
	})
}

func TestAskCmdRequiresQuestion(t *testing.T) {
	t.Parallel()
	cmd := NewAskCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when no question is given")
	}
}
