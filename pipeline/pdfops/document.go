// Package pdfops implements the in-process page model: loading a PDF,
// counting and copying pages, and assembling new documents from them. All
// operations work on loaded documents or produce byte slices; persisting
// results is the caller's job.
package pdfops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Logger is global since page operations log skip warnings everywhere
var Logger *slog.Logger

// Sentinel errors the orchestrator maps onto its public taxonomy.
var (
	ErrNoPagesProcessed   = errors.New("no pages processed")
	ErrInvalidPageNumber  = errors.New("page number out of range")
	ErrInvalidOption      = errors.New("invalid option")
	ErrUnreadableDocument = errors.New("unreadable document")
)

// Document is a loaded, validated PDF plus its page count. The raw bytes
// stay resident so pages can be copied without re-reading the file.
type Document struct {
	path string
	raw  []byte
	ctx  *model.Context
}

// Load reads and validates a PDF from disk.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrUnreadableDocument, filepath.Base(path), err)
	}
	return &Document{path: path, raw: raw, ctx: ctx}, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// PageCount reports the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// ExtractPage copies one 1-based page into a standalone single-page PDF.
func (d *Document) ExtractPage(page int) ([]byte, error) {
	if page < 1 || page > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPageNumber, page, d.ctx.PageCount)
	}
	ctxPage, err := pdfcpu.ExtractPages(d.ctx, []int{page}, false)
	if err != nil {
		return nil, fmt.Errorf("extracting page %d: %w", page, err)
	}
	var buf bytes.Buffer
	if err := pdfapi.WriteContext(ctxPage, &buf); err != nil {
		return nil, fmt.Errorf("writing page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Split copies every page into its own single-page PDF, preserving order.
// Downstream naming of the results is 1-based.
func (d *Document) Split() ([][]byte, error) {
	pages := make([][]byte, 0, d.ctx.PageCount)
	for n := 1; n <= d.ctx.PageCount; n++ {
		b, err := d.ExtractPage(n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, b)
	}
	return pages, nil
}

// Reorder assembles a new document whose page i is the source page
// order[i]. Duplicates and omissions are allowed; any entry outside
// [1, pageCount] fails before a single page is copied.
func (d *Document) Reorder(order []int) ([]byte, error) {
	if err := ValidatePageOrder(order, d.ctx.PageCount); err != nil {
		return nil, err
	}
	segments := make([]io.ReadSeeker, 0, len(order))
	var lastPage []byte
	for _, n := range order {
		b, err := d.ExtractPage(n)
		if err != nil {
			return nil, err
		}
		lastPage = b
		segments = append(segments, bytes.NewReader(b))
	}
	if len(segments) == 1 {
		return lastPage, nil
	}
	var out bytes.Buffer
	if err := pdfapi.MergeRaw(segments, &out, false, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("assembling reordered document: %w", err)
	}
	return out.Bytes(), nil
}

// MergeOutcome reports what Merge actually processed.
type MergeOutcome struct {
	PageCount int
	Merged    int
	Skipped   []string // base names of inputs that failed to load
}

// Merge concatenates the pages of every input, in input order. An input
// that fails to load is skipped with a warning; the merge succeeds as long
// as at least one document contributed pages.
func Merge(paths []string) ([]byte, *MergeOutcome, error) {
	outcome := &MergeOutcome{}
	readers := make([]io.ReadSeeker, 0, len(paths))
	var lastValid *Document
	for _, p := range paths {
		doc, err := Load(p)
		if err != nil {
			Logger.Warn("merge skipping unreadable input", "file", filepath.Base(p), "error", err)
			outcome.Skipped = append(outcome.Skipped, filepath.Base(p))
			continue
		}
		outcome.PageCount += doc.PageCount()
		outcome.Merged++
		readers = append(readers, bytes.NewReader(doc.raw))
		lastValid = doc
	}
	if outcome.Merged == 0 {
		return nil, nil, fmt.Errorf("%w: every input failed to load", ErrNoPagesProcessed)
	}
	if outcome.Merged == 1 {
		return lastValid.raw, outcome, nil
	}
	var out bytes.Buffer
	if err := pdfapi.MergeRaw(readers, &out, false, model.NewDefaultConfiguration()); err != nil {
		return nil, nil, fmt.Errorf("merging %d documents: %w", outcome.Merged, err)
	}
	return out.Bytes(), outcome, nil
}

// PageCountOf reports the page count of a PDF on disk without keeping it
// loaded.
func PageCountOf(path string) (int, error) {
	return pdfapi.PageCountFile(path)
}
