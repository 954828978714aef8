package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

const (
	// ocrRenderDPI balances recognition quality against raster size.
	ocrRenderDPI = 150
	// ocrImageWidth is the width pages are normalized to before OCR.
	ocrImageWidth = 1024
)

// OCR recognizes text in a scanned PDF or a raster image and returns it as
// a plain-text artifact. PDFs are rasterized page by page, stacked into one
// tall image, then normalized the same way single-image inputs are.
func (p *Pipeline) OCR(ctx context.Context, input Upload) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	srcType := resolveSourceType("", input.OriginalName)
	var imagePath string
	pages := 1
	switch {
	case srcType == "pdf":
		var err error
		imagePath, pages, err = p.renderForOCR(ctx, tr, input.Path)
		if err != nil {
			return nil, classify("ocr", err)
		}
	case isImageType(srcType):
		imagePath = input.Path
	default:
		return nil, validationErrorf("ocr", "ocr accepts pdf or image input, got %q", filepath.Ext(input.OriginalName))
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindInternal, "ocr", "request cancelled", err)
	}

	text, err := p.runTesseract(ctx, tr, imagePath)
	if err != nil {
		return nil, classify("ocr", err)
	}

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_ocr", ".txt")
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return nil, wrapError(KindInternal, "ocr", "writing text result", err)
	}
	tr.Commit(handle)
	return p.finish("ocr", outPath, started, map[string]any{
		"pages":      pages,
		"characters": len(text),
	})
}

// ocrPDFToText is the fallback path for text conversion of PDFs without an
// embedded text layer.
func (p *Pipeline) ocrPDFToText(ctx context.Context, tr *Tracker, path string) (string, error) {
	imagePath, _, err := p.renderForOCR(ctx, tr, path)
	if err != nil {
		return "", err
	}
	return p.runTesseract(ctx, tr, imagePath)
}

// renderForOCR rasterizes every page, stacks them vertically on a white
// canvas, then resizes and sharpens for recognition. Returns the tracked
// PNG path and the page count.
func (p *Pipeline) renderForOCR(ctx context.Context, tr *Tracker, path string) (string, int, error) {
	renderer, err := p.newRenderer()
	if err != nil {
		return "", 0, fmt.Errorf("starting pdf renderer: %w", err)
	}
	defer renderer.Close()

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	pages, err := renderer.RenderPDF(path, ocrRenderDPI)
	if err != nil {
		return "", 0, fmt.Errorf("%w: rasterizing %s: %w", pdfops.ErrUnreadableDocument, filepath.Base(path), err)
	}
	if len(pages) == 0 {
		return "", 0, fmt.Errorf("%w: %s rendered no pages", pdfops.ErrNoPagesProcessed, filepath.Base(path))
	}

	width, height := 0, 0
	for _, pg := range pages {
		if w := pg.Bounds().Dx(); w > width {
			width = w
		}
		height += pg.Bounds().Dy()
	}
	canvas := imaging.New(width, height, color.White)
	y := 0
	for _, pg := range pages {
		canvas = imaging.Paste(canvas, pg, image.Pt(0, y))
		y += pg.Bounds().Dy()
	}
	prepared := imaging.Sharpen(imaging.Resize(canvas, ocrImageWidth, 0, imaging.Lanczos), 1.0)

	imgPath := p.scratchTemp(tr, "ocr", ".png")
	f, err := os.Create(imgPath)
	if err != nil {
		return "", 0, fmt.Errorf("creating ocr raster: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, prepared); err != nil {
		return "", 0, fmt.Errorf("encoding ocr raster: %w", err)
	}
	return imgPath, len(pages), nil
}

// runTesseract recognizes one image. Tesseract appends .txt to the output
// base itself; no ExpectedOutput check because an empty text file is a
// legitimate result for a blank page, so only a missing file is an error.
func (p *Pipeline) runTesseract(ctx context.Context, tr *Tracker, imagePath string) (string, error) {
	outBase := p.scratchTemp(tr, "ocrtext", "")
	textPath := outBase + ".txt"
	tr.Track(textPath)

	_, err := p.runner.Run(ctx, toolrun.Invocation{
		Tool:    p.cfg.TesseractPath,
		Args:    []string{imagePath, outBase},
		Timeout: time.Duration(p.cfg.OCRTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(textPath)
	if err != nil {
		return "", &toolrun.RunError{Tool: p.cfg.TesseractPath, Reason: toolrun.ReasonOutputMissing, Err: err}
	}
	return string(data), nil
}
