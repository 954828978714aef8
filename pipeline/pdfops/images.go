package pdfops

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	_ "golang.org/x/image/tiff"
)

// ImportOutcome reports what ImportImages actually embedded.
type ImportOutcome struct {
	Embedded int
	Skipped  []string // base names of images that failed to decode
}

// ImportImages embeds raster images into a fresh PDF, one page per image,
// in input order. Undecodable images are skipped with a warning; the import
// succeeds as long as one image made it in.
func ImportImages(imgPaths []string, outPath string) (*ImportOutcome, error) {
	outcome := &ImportOutcome{}
	usable := make([]string, 0, len(imgPaths))
	for _, p := range imgPaths {
		if err := probeImage(p); err != nil {
			Logger.Warn("import skipping undecodable image", "file", filepath.Base(p), "error", err)
			outcome.Skipped = append(outcome.Skipped, filepath.Base(p))
			continue
		}
		usable = append(usable, p)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no image could be decoded", ErrNoPagesProcessed)
	}
	if err := pdfapi.ImportImagesFile(usable, outPath, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return nil, fmt.Errorf("embedding %d images: %w", len(usable), err)
	}
	outcome.Embedded = len(usable)
	return outcome, nil
}

// probeImage decodes just the header to reject non-images before pdfcpu
// sees them, keeping one bad upload from failing a whole batch.
func probeImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err
}
