package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

// Convert turns the uploads into the requested target type. The source type
// comes from the fromType hint when given, otherwise from the first file's
// extension; the (source, target) pair selects the conversion from the
// capability table before any file is touched.
func (p *Pipeline) Convert(ctx context.Context, inputs []Upload, toType, fromType string, quality int) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin(inputs)
	defer tr.ReleaseAll()

	if len(inputs) == 0 {
		return nil, validationErrorf("convert", "at least one file is required")
	}
	if strings.TrimSpace(toType) == "" {
		return nil, validationErrorf("convert", "toType is required")
	}
	target := NormalizeType(toType)
	source := resolveSourceType(fromType, inputs[0].OriginalName)
	if source == "" {
		return nil, validationErrorf("convert", "source type could not be determined; supply fromType")
	}

	conv, ok := capabilities[conversionKey{source, target}]
	if !ok {
		return nil, newError(KindUnsupportedConversion, "convert",
			fmt.Sprintf("conversion from %s to %s is not supported", source, target))
	}
	if len(inputs) > 1 && !isImageType(source) {
		return nil, validationErrorf("convert", "multiple files are only supported for image sources")
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "convert", "request cancelled", err)
	}

	return conv.run(p, ctx, tr, convertJob{
		inputs:     inputs,
		sourceType: source,
		targetType: target,
		quality:    quality,
		started:    started,
	})
}

// convertOfficeToPDF shells out to LibreOffice, which names its own output
// after the input inside --outdir; the result is then moved to the
// committed path.
func (p *Pipeline) convertOfficeToPDF(ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error) {
	in := job.inputs[0]
	workDir, err := p.scratchTempDir(tr, "office")
	if err != nil {
		return nil, wrapError(KindInternal, "convert", "allocating scratch", err)
	}
	produced := filepath.Join(workDir, stemOf(filepath.Base(in.Path))+".pdf")
	args := []string{"--headless", "--convert-to", "pdf", "--outdir", workDir, in.Path}

	chain := []toolrun.Invocation{
		{Tool: p.cfg.SofficePath, Args: args, Timeout: p.toolTimeout(), ExpectedOutput: produced},
		{Tool: "libreoffice", Args: args, Timeout: p.toolTimeout(), ExpectedOutput: produced},
	}
	res, err := p.runner.RunChain(ctx, chain)
	if err != nil {
		return nil, classify("convert", err)
	}

	outPath, handle := p.scratchOutput(tr, stemOf(in.OriginalName), ".pdf")
	if err := moveFile(produced, outPath); err != nil {
		return nil, wrapError(KindInternal, "convert", "moving converted document", err)
	}
	meta := map[string]any{
		"from": job.sourceType,
		"to":   "pdf",
		"tool": res.Tool,
	}
	if pages, err := pdfops.PageCountOf(outPath); err == nil {
		meta["pageCount"] = pages
	}
	tr.Commit(handle)
	return p.finish("convert", outPath, job.started, meta)
}

// convertImagesToPDF embeds the uploaded images in order, one page each.
// Undecodable images are skipped and reported, matching merge's policy for
// multi-item requests.
func (p *Pipeline) convertImagesToPDF(ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "convert", "request cancelled", err)
	}
	paths := make([]string, len(job.inputs))
	for i, u := range job.inputs {
		paths[i] = u.Path
	}
	outPath, handle := p.scratchOutput(tr, stemOf(job.inputs[0].OriginalName), ".pdf")
	outcome, err := pdfops.ImportImages(paths, outPath)
	if err != nil {
		return nil, classify("convert", err)
	}
	tr.Commit(handle)
	return p.finish("convert", outPath, job.started, map[string]any{
		"from":      job.sourceType,
		"to":        "pdf",
		"pageCount": outcome.Embedded,
		"skipped":   len(outcome.Skipped),
	})
}

// convertPDFToImage rasterizes page 1 at the tier's DPI. Only the first
// page is converted; the page count rides along in the metadata so callers
// of multi-page sources are not silently surprised.
func (p *Pipeline) convertPDFToImage(ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error) {
	in := job.inputs[0]
	pageCount, err := pdfops.PageCountOf(in.Path)
	if err != nil {
		return nil, classify("convert", fmt.Errorf("%w: %s: %w", pdfops.ErrUnreadableDocument, filepath.Base(in.OriginalName), err))
	}

	tier := toolrun.TierFor(job.quality)
	dpi := strconv.Itoa(tier.DPI)
	outPath, handle := p.scratchOutput(tr, stemOf(in.OriginalName), "."+job.targetType)
	prefix := strings.TrimSuffix(outPath, "."+job.targetType)

	formatFlag := "-png"
	if job.targetType == "jpg" {
		formatFlag = "-jpeg"
	}
	chain := []toolrun.Invocation{
		{
			Tool:           p.cfg.PDFToPPMPath,
			Args:           []string{formatFlag, "-r", dpi, "-f", "1", "-l", "1", "-singlefile", in.Path, prefix},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
		{
			Tool:           p.cfg.MutoolPath,
			Args:           []string{"draw", "-o", outPath, "-r", dpi, in.Path, "1"},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
	}
	res, err := p.runner.RunChain(ctx, chain)
	if err != nil {
		return nil, classify("convert", err)
	}

	tr.Commit(handle)
	return p.finish("convert", outPath, job.started, map[string]any{
		"from":          "pdf",
		"to":            job.targetType,
		"pageCount":     pageCount,
		"convertedPage": 1,
		"dpi":           tier.DPI,
		"tool":          res.Tool,
	})
}

// convertPDFToText prefers the document's embedded text layer and falls
// back to rasterize-and-OCR when the layer is absent or empty, the usual
// case for scanned documents.
func (p *Pipeline) convertPDFToText(ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error) {
	in := job.inputs[0]
	usedOCR := false

	text, err := extractEmbeddedText(in.Path)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			p.logger.Info("no embedded text layer, falling back to OCR", "file", in.OriginalName, "error", err)
		} else {
			p.logger.Info("embedded text layer is empty, falling back to OCR", "file", in.OriginalName)
		}
		text, err = p.ocrPDFToText(ctx, tr, in.Path)
		if err != nil {
			return nil, classify("convert", err)
		}
		usedOCR = true
	}

	outPath, handle := p.scratchOutput(tr, stemOf(in.OriginalName), ".txt")
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return nil, wrapError(KindInternal, "convert", "writing text result", err)
	}
	tr.Commit(handle)
	return p.finish("convert", outPath, job.started, map[string]any{
		"from":       "pdf",
		"to":         "txt",
		"characters": len(text),
		"ocr":        usedOCR,
	})
}

// moveFile renames src to dst, copying when the rename crosses devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
