// Package pdfreader extracts plain text from PDF files one page at a time,
// keeping the physical page number of every page it returns.
package pdfreader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the input cannot be opened as a PDF document.
var ErrNotPDF = errors.New("pdfreader: not a readable PDF")

// Page is the text of one PDF page.
type Page struct {
	// Number is the 1-based physical page number.
	Number int
	// Text is the extracted plain text, trimmed.
	Text string
}

// ReadFile opens path and extracts its pages.
func ReadFile(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfreader: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("pdfreader: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("pdfreader: %s is a directory", path)
	}
	return Read(f, info.Size())
}

// Read extracts the pages of the PDF in r. Pages without text, or whose
// text cannot be extracted (image-only pages, unsupported fonts), are
// skipped. The parser panics on some malformed input; such panics are
// returned as errors.
func Read(r io.ReaderAt, size int64) (pages []Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	rdr, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	n := rdr.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := rdr.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		txt = strings.TrimSpace(txt)
		if txt == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: txt})
	}
	return pages, nil
}
