// Package extract opens paginated source documents (PDF reports), selects a
// page subset, and emits raw per-page lines in layout order together with the
// page's structural metadata. Header/footer trimming (trim.go) and text
// cleaning (internal/textclean) run downstream of this package.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// SourceSpec describes one source document to ingest. It is supplied by the
// ingestion caller (normally the `sources:` list in the YAML config) and is
// immutable once validated.
type SourceSpec struct {
	// FilePath is the path to the source PDF.
	FilePath string `yaml:"file_path"`
	// Title is the human-readable document title stored in metadata.
	Title string `yaml:"title"`
	// Author is the document author stored in metadata.
	Author string `yaml:"author"`
	// Pages is the ordered set of 0-based page indices to extract.
	// Empty means all pages.
	Pages []int `yaml:"pages"`
	// Trim is the header/footer removal policy for this document.
	Trim TrimPolicy `yaml:"trim"`
}

// Validate checks the source spec before ingestion starts: the file path must be
// set, page indices must be non-negative, and the trim policy (empty meaning
// TrimNone) must be a known name.
func (s SourceSpec) Validate() error {
	if s.FilePath == "" {
		return &Error{Kind: KindCorruptSource, Source: "(empty file_path)", Page: -1}
	}
	for _, p := range s.Pages {
		if p < 0 {
			return rangeErr(s.FilePath, p)
		}
	}
	if s.Trim != "" && !ValidTrimPolicy(s.Trim) {
		return corruptErr(s.FilePath, fmt.Errorf("unknown trim policy %q", s.Trim))
	}
	return nil
}

// Page is the raw extraction result for one page: its 0-based number and its
// text lines in reading order (top-to-bottom, left-to-right).
type Page struct {
	// Number is the 0-based page index within the source document.
	Number int
	// Lines are the page's text lines in layout order, untrimmed and uncleaned.
	Lines []string
}

// PageSource is a paginated document opened for reading. The production
// implementation reads PDFs; tests substitute an in-memory fake.
type PageSource interface {
	// NumPages returns the total page count.
	NumPages() int
	// PageLines returns the text lines of the 0-based page in layout order.
	PageLines(page int) ([]string, error)
	// Close releases the underlying file handle.
	Close() error
}

// OpenFunc opens a source file as a PageSource.
type OpenFunc func(path string) (PageSource, error)

// Extractor extracts per-page text from source documents.
type Extractor struct {
	// open opens a source path as a PageSource.
	open OpenFunc
}

// New constructs an Extractor backed by the PDF reader.
func New() *Extractor {
	return &Extractor{open: openPDF}
}

// NewWithOpener constructs an Extractor with a custom opener. Used by tests
// to substitute in-memory page sources.
func NewWithOpener(open OpenFunc) *Extractor {
	return &Extractor{open: open}
}

// Extract opens the source, resolves its page selection, and returns one Page
// per selected page in ascending page order. A page index outside the
// document fails with an out-of-range Error; an unreadable file fails with a
// corrupt-source Error.
func (e *Extractor) Extract(source SourceSpec) ([]Page, error) {
	doc, err := e.open(source.FilePath)
	if err != nil {
		return nil, corruptErr(source.FilePath, err)
	}
	defer doc.Close()

	total := doc.NumPages()

	selected := source.Pages
	if len(selected) == 0 {
		selected = make([]int, total)
		for i := range selected {
			selected[i] = i
		}
	} else {
		// Work on a sorted, deduplicated copy so callers can pass pages in
		// any order without affecting the output ordering guarantee.
		selected = dedupeSorted(selected)
	}

	pages := make([]Page, 0, len(selected))
	for _, n := range selected {
		if n < 0 || n >= total {
			return nil, rangeErr(source.FilePath, n)
		}
		lines, err := doc.PageLines(n)
		if err != nil {
			return nil, corruptErr(source.FilePath, err)
		}
		pages = append(pages, Page{Number: n, Lines: lines})
	}

	return pages, nil
}

// dedupeSorted returns a sorted copy of pages with duplicates removed.
func dedupeSorted(pages []int) []int {
	out := make([]int, len(pages))
	copy(out, pages)
	sort.Ints(out)
	j := 0
	for i, p := range out {
		if i == 0 || p != out[j-1] {
			out[j] = p
			j++
		}
	}
	return out[:j]
}

// pdfSource adapts a pdf.Reader to the PageSource interface.
type pdfSource struct {
	// f is the open file backing the reader.
	f interface{ Close() error }
	// r is the parsed PDF document.
	r *pdf.Reader
}

// openPDF opens path as a PDF-backed PageSource.
func openPDF(path string) (PageSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfSource{f: f, r: r}, nil
}

// NumPages returns the PDF's page count.
func (s *pdfSource) NumPages() int { return s.r.NumPage() }

// PageLines extracts the text rows of the 0-based page. Rows arrive sorted
// top-to-bottom with their content sorted left-to-right, so multi-column
// layouts are read in visual order rather than content-stream order.
func (s *pdfSource) PageLines(page int) ([]string, error) {
	p := s.r.Page(page + 1) // pdf.Reader pages are 1-based
	if p.V.IsNull() {
		return nil, nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i, word := range row.Content {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(word.S)
		}
		lines = append(lines, sb.String())
	}
	return lines, nil
}

// Close closes the underlying file.
func (s *pdfSource) Close() error { return s.f.Close() }
