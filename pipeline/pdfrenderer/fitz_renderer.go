package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes through go-fitz (MuPDF).
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer.
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// RenderPDF rasterizes every page at the requested DPI.
func (r *FitzRenderer) RenderPDF(filename string, dpi int) ([]image.Image, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	images := make([]image.Image, 0, numPages)

	for pageNum := 0; pageNum < numPages; pageNum++ {
		img, err := doc.ImageDPI(pageNum, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", pageNum, err)
		}
		images = append(images, img)
	}

	return images, nil
}

// Close is a no-op; documents are closed per render.
func (r *FitzRenderer) Close() error {
	return nil
}
