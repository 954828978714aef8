// Package pipeline drives one document transformation end to end: validate
// the request, run the selected page-model operation or tool chain, verify
// and commit the single result artifact, and release every other temp file
// no matter how the request ends.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/goPDFTools/config"
	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/pdfrenderer"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

// Upload is one ingested input file: the scratch path the boundary saved it
// to plus the name the client gave it. The pipeline tracks and deletes the
// scratch path; the original name only informs type detection and naming.
type Upload struct {
	Path         string
	OriginalName string
}

// TransformResult is the successful outcome of one request. It is created
// only after the output artifact is committed; failures never produce one.
type TransformResult struct {
	Operation  string
	OutputPath string
	OutputName string
	Size       int64
	Meta       map[string]any
	Elapsed    time.Duration
}

// Pipeline orchestrates transformations. It holds configuration and
// stateless collaborators only; everything request-scoped lives in the
// method frames so concurrent requests share nothing but the scratch
// directory namespace.
type Pipeline struct {
	cfg    config.ServerConfig
	runner *toolrun.Runner
	logger *slog.Logger

	// newRenderer is a factory so each OCR request gets a private renderer
	// instance instead of serializing on a shared one.
	newRenderer func() (pdfrenderer.Renderer, error)
}

// New builds a Pipeline from server configuration.
func New(cfg config.ServerConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		runner: toolrun.NewRunner(logger),
		logger: logger,
		newRenderer: func() (pdfrenderer.Renderer, error) {
			return pdfrenderer.New(cfg.Renderer)
		},
	}
}

// scratchOutput allocates a tracked, uniquely named path in the output
// scratch directory. The ULID keeps concurrent requests collision-free.
func (p *Pipeline) scratchOutput(tr *Tracker, stem, ext string) (string, int) {
	name := fmt.Sprintf("%s_%s%s", stem, ulid.Make().String(), ext)
	path := filepath.Join(p.cfg.OutputPath, name)
	return path, tr.Track(path)
}

// scratchTemp allocates a tracked intermediate path in the upload scratch
// directory. Intermediates are never committed.
func (p *Pipeline) scratchTemp(tr *Tracker, stem, ext string) string {
	name := fmt.Sprintf("%s_%s%s", stem, ulid.Make().String(), ext)
	path := filepath.Join(p.cfg.UploadPath, name)
	tr.Track(path)
	return path
}

// scratchTempDir creates a tracked intermediate directory.
func (p *Pipeline) scratchTempDir(tr *Tracker, stem string) (string, error) {
	dir := filepath.Join(p.cfg.UploadPath, fmt.Sprintf("%s_%s", stem, ulid.Make().String()))
	tr.Track(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	return dir, nil
}

// begin tracks every upload and returns the request tracker. Callers must
// defer tr.ReleaseAll() immediately.
func (p *Pipeline) begin(inputs []Upload) *Tracker {
	tr := NewTracker(p.logger)
	for _, u := range inputs {
		tr.Track(u.Path)
	}
	return tr
}

// finish stats the committed artifact and assembles the result.
func (p *Pipeline) finish(op, outPath string, started time.Time, meta map[string]any) (*TransformResult, error) {
	info, err := os.Stat(outPath)
	if err != nil {
		return nil, wrapError(KindInternal, op, "result artifact vanished", err)
	}
	res := &TransformResult{
		Operation:  op,
		OutputPath: outPath,
		OutputName: filepath.Base(outPath),
		Size:       info.Size(),
		Meta:       meta,
		Elapsed:    time.Since(started),
	}
	p.logger.Info("transformation complete", "operation", op,
		"output", res.OutputName, "size", res.Size, "elapsed", res.Elapsed)
	return res, nil
}

// Merge concatenates the pages of every uploaded document in upload order.
// Unreadable inputs are skipped and counted; the request fails only when
// nothing could be loaded.
func (p *Pipeline) Merge(ctx context.Context, inputs []Upload) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin(inputs)
	defer tr.ReleaseAll()

	if len(inputs) == 0 {
		return nil, validationErrorf("merge", "at least one file is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "merge", "request cancelled", err)
	}

	paths := make([]string, len(inputs))
	for i, u := range inputs {
		paths[i] = u.Path
	}
	data, outcome, err := pdfops.Merge(paths)
	if err != nil {
		return nil, classify("merge", err)
	}

	outPath, handle := p.scratchOutput(tr, "merged", ".pdf")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, wrapError(KindInternal, "merge", "writing result", err)
	}
	tr.Commit(handle)
	return p.finish("merge", outPath, started, map[string]any{
		"pageCount": outcome.PageCount,
		"merged":    outcome.Merged,
		"skipped":   len(outcome.Skipped),
	})
}

// Split copies every page of the upload into its own single-page PDF and
// archives them. Page numbering in the archive is 1-based.
func (p *Pipeline) Split(ctx context.Context, input Upload) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "split", "request cancelled", err)
	}
	doc, err := pdfops.Load(input.Path)
	if err != nil {
		return nil, classify("split", err)
	}
	pages, err := doc.Split()
	if err != nil {
		return nil, classify("split", err)
	}

	base := stemOf(input.OriginalName)
	entries := make([]archiveEntry, len(pages))
	for i, pageBytes := range pages {
		entries[i] = archiveEntry{
			Name: fmt.Sprintf("%s_page_%d.pdf", base, i+1),
			Data: pageBytes,
		}
	}

	outPath, handle := p.scratchOutput(tr, base+"_pages", ".zip")
	if err := writeArchive(outPath, entries); err != nil {
		return nil, wrapError(KindInternal, "split", "writing archive", err)
	}
	tr.Commit(handle)
	return p.finish("split", outPath, started, map[string]any{
		"pageCount": len(pages),
	})
}

// Reorder assembles a new document whose pages follow the caller's
// pageOrder exactly. Validation is strict: one out-of-range entry rejects
// the request before any page is copied.
func (p *Pipeline) Reorder(ctx context.Context, input Upload, pageOrder string) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	order, err := pdfops.ParsePageOrder(pageOrder)
	if err != nil {
		return nil, classify("reorder", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "reorder", "request cancelled", err)
	}
	doc, err := pdfops.Load(input.Path)
	if err != nil {
		return nil, classify("reorder", err)
	}
	data, err := doc.Reorder(order)
	if err != nil {
		return nil, classify("reorder", err)
	}

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_reordered", ".pdf")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, wrapError(KindInternal, "reorder", "writing result", err)
	}
	tr.Commit(handle)
	return p.finish("reorder", outPath, started, map[string]any{
		"pageCount": len(order),
	})
}

// Watermark stamps text onto the pages selected by pageRange. Out-of-range
// pages are clamped away rather than rejected; stamping is additive so the
// leniency cannot damage unselected pages.
func (p *Pipeline) Watermark(ctx context.Context, input Upload, opts pdfops.WatermarkOptions) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "watermark", "request cancelled", err)
	}
	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_watermarked", ".pdf")
	marked, err := pdfops.Watermark(input.Path, outPath, opts)
	if err != nil {
		return nil, classify("watermark", err)
	}
	tr.Commit(handle)
	return p.finish("watermark", outPath, started, map[string]any{
		"markedPages": marked,
	})
}

// stemOf strips the extension and any directory from a client-supplied
// name, falling back to "document" for hostile or empty names.
func stemOf(name string) string {
	base := filepath.Base(name)
	stem := base[:len(base)-len(filepath.Ext(base))]
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "document"
	}
	return stem
}
