package pdfreader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/54b3r/ragmanual-go/internal/pdfreader/pdftest"
)

func TestRead_PagesKeepPhysicalNumbers(t *testing.T) {
	t.Parallel()

	data := pdftest.Build(
		"Setup: each player takes a faction sheet.",
		"",
		"Combat: roll a number of dice equal to strength.",
	)
	pages, err := Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 text pages (blank skipped), got %d: %+v", len(pages), pages)
	}
	if pages[0].Number != 1 || !strings.Contains(pages[0].Text, "faction sheet") {
		t.Errorf("page 0 = %+v", pages[0])
	}
	if pages[1].Number != 3 || !strings.Contains(pages[1].Text, "roll a number of dice") {
		t.Errorf("page 1 = %+v", pages[1])
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := pdftest.WriteFile(t, "manual.pdf", "Only page (with parentheses).")
	pages, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(pages) != 1 || !strings.Contains(pages[0].Text, "(with parentheses)") {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()
	if _, err := ReadFile("/nonexistent/manual.pdf"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRead_NotAPDF(t *testing.T) {
	t.Parallel()

	inputs := map[string][]byte{
		"plain text": []byte(strings.Repeat("this is not a pdf document at all\n", 10)),
		"truncated":  pdftest.Build("hello")[:60],
		"empty":      {},
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Read(bytes.NewReader(data), int64(len(data)))
			if !errors.Is(err, ErrNotPDF) {
				t.Fatalf("expected ErrNotPDF, got %v", err)
			}
		})
	}
}
