// Package pdfrenderer turns PDF pages into raster images for the OCR
// pipeline. Two interchangeable backends exist: pdfium (WebAssembly, pure
// Go) and fitz (MuPDF via ffi).
package pdfrenderer

import (
	"fmt"
	"image"
)

// Renderer converts PDF pages to images.
type Renderer interface {
	// RenderPDF rasterizes every page of a PDF file at the given DPI,
	// one image per page, in page order.
	RenderPDF(filename string, dpi int) ([]image.Image, error)

	// Close releases backend resources.
	Close() error
}

// New returns the renderer selected by name: "pdfium" (default) or "fitz".
func New(kind string) (Renderer, error) {
	switch kind {
	case "", "pdfium":
		return NewPDFiumRenderer()
	case "fitz":
		return NewFitzRenderer()
	default:
		return nil, fmt.Errorf("unknown renderer %q (want pdfium or fitz)", kind)
	}
}
