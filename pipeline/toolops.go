package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

func (p *Pipeline) toolTimeout() time.Duration {
	return time.Duration(p.cfg.ToolTimeoutSeconds) * time.Second
}

// gsArgs builds the ghostscript pdfwrite invocation for one quality tier.
// Downsampling and explicit DCT quality are what actually shrink scanned
// documents; the tier fixes both so the scalar stays monotonic.
func gsArgs(tier toolrun.Tier, inPath, outPath string) []string {
	return []string{
		"-q", "-dNOPAUSE", "-dBATCH", "-dSAFER",
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dAutoRotatePages=/None",
		"-dDownsampleColorImages=true",
		"-dDownsampleGrayImages=true",
		"-dDownsampleMonoImages=true",
		fmt.Sprintf("-dColorImageResolution=%d", tier.DPI),
		fmt.Sprintf("-dGrayImageResolution=%d", tier.DPI),
		fmt.Sprintf("-dMonoImageResolution=%d", tier.DPI),
		"-dAutoFilterColorImages=false",
		"-dColorImageFilter=/DCTEncode",
		fmt.Sprintf("-dJPEGQ=%d", tier.JPEGQuality),
		"-sOutputFile=" + outPath,
		inPath,
	}
}

// Compress rewrites a PDF through ghostscript at the tier selected by the
// quality scalar, falling back to pdfcpu's optimizer. A higher quality
// value requests more compression.
func (p *Pipeline) Compress(ctx context.Context, input Upload, quality int) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	q := toolrun.ClampQuality(quality)
	tier := toolrun.TierFor(q)

	info, err := os.Stat(input.Path)
	if err != nil {
		return nil, wrapError(KindInternal, "compress", "reading input", err)
	}
	originalSize := info.Size()

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_compressed", ".pdf")
	chain := []toolrun.Invocation{
		{
			Tool:           p.cfg.GhostscriptPath,
			Args:           gsArgs(tier, input.Path, outPath),
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
		{
			Tool:           p.cfg.PDFCPUPath,
			Args:           []string{"optimize", input.Path, outPath},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
	}
	res, err := p.runner.RunChain(ctx, chain)
	if err != nil {
		return nil, classify("compress", err)
	}

	compressed, err := os.Stat(outPath)
	if err != nil {
		return nil, wrapError(KindInternal, "compress", "result artifact vanished", err)
	}
	ratio := 1.0
	if compressed.Size() > 0 {
		ratio = math.Round(float64(originalSize)/float64(compressed.Size())*100) / 100
	}
	tr.Commit(handle)
	return p.finish("compress", outPath, started, map[string]any{
		"quality":          q,
		"tier":             tier.Name,
		"tool":             res.Tool,
		"originalSize":     originalSize,
		"compressedSize":   compressed.Size(),
		"compressionRatio": ratio,
	})
}

// Protect encrypts a PDF with the supplied password via qpdf, falling back
// to the pdfcpu CLI. The password must be non-empty.
func (p *Pipeline) Protect(ctx context.Context, input Upload, password string) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	if strings.TrimSpace(password) == "" {
		return nil, validationErrorf("protect", "password is required")
	}

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_protected", ".pdf")
	chain := []toolrun.Invocation{
		{
			Tool:           p.cfg.QPDFPath,
			Args:           []string{"--encrypt", password, password, "256", "--", input.Path, outPath},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
		{
			Tool:           p.cfg.PDFCPUPath,
			Args:           []string{"encrypt", "-upw", password, "-opw", password, input.Path, outPath},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
	}
	if _, err := p.runner.RunChain(ctx, chain); err != nil {
		return nil, classify("protect", err)
	}
	tr.Commit(handle)
	return p.finish("protect", outPath, started, map[string]any{
		"encrypted": true,
	})
}

// Unlock removes encryption using the supplied password. Tool failures are
// deliberately collapsed into one kind: without parsing tool-specific
// stderr, a wrong password and an unsupported encryption scheme look the
// same, and callers must treat them the same.
func (p *Pipeline) Unlock(ctx context.Context, input Upload, password string) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_unlocked", ".pdf")
	chain := []toolrun.Invocation{
		{
			Tool:           p.cfg.QPDFPath,
			Args:           []string{"--password=" + password, "--decrypt", input.Path, outPath},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
		{
			Tool:           p.cfg.PDFCPUPath,
			Args:           []string{"decrypt", "-upw", password, input.Path, outPath},
			Timeout:        p.toolTimeout(),
			ExpectedOutput: outPath,
		},
	}
	if _, err := p.runner.RunChain(ctx, chain); err != nil {
		return nil, wrapError(KindIncorrectPassword, "unlock", "incorrect password or unsupported encryption", err)
	}
	tr.Commit(handle)
	return p.finish("unlock", outPath, started, map[string]any{
		"decrypted": true,
	})
}

// ExtractImages pulls embedded raster images out of a PDF and archives
// them. A document without images is an empty success, not a failure: the
// result carries imageCount 0 and no artifact.
func (p *Pipeline) ExtractImages(ctx context.Context, input Upload) (*TransformResult, error) {
	started := time.Now()
	tr := p.begin([]Upload{input})
	defer tr.ReleaseAll()

	imgDir, err := p.scratchTempDir(tr, "extract")
	if err != nil {
		return nil, wrapError(KindInternal, "extract-images", "allocating scratch", err)
	}
	chain := []toolrun.Invocation{
		{
			Tool:    p.cfg.PDFImagesPath,
			Args:    []string{"-j", input.Path, filepath.Join(imgDir, "img")},
			Timeout: p.toolTimeout(),
		},
		{
			Tool:    p.cfg.PDFCPUPath,
			Args:    []string{"extract", "-mode", "image", input.Path, imgDir},
			Timeout: p.toolTimeout(),
		},
	}
	if _, err := p.runner.RunChain(ctx, chain); err != nil {
		return nil, classify("extract-images", err)
	}

	files, err := collectFiles(imgDir)
	if err != nil {
		return nil, wrapError(KindInternal, "extract-images", "listing extracted images", err)
	}
	if len(files) == 0 {
		p.logger.Info("document contains no extractable images", "file", input.OriginalName)
		return &TransformResult{
			Operation: "extract-images",
			Meta:      map[string]any{"imageCount": 0},
			Elapsed:   time.Since(started),
		}, nil
	}

	entries := make([]archiveEntry, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, wrapError(KindInternal, "extract-images", "reading extracted image", err)
		}
		entries = append(entries, archiveEntry{Name: filepath.Base(f), Data: data})
	}

	outPath, handle := p.scratchOutput(tr, stemOf(input.OriginalName)+"_images", ".zip")
	if err := writeArchive(outPath, entries); err != nil {
		return nil, wrapError(KindInternal, "extract-images", "writing archive", err)
	}
	tr.Commit(handle)
	return p.finish("extract-images", outPath, started, map[string]any{
		"imageCount": len(files),
	})
}

// collectFiles lists the regular files of dir in name order.
func collectFiles(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if de.Type().IsRegular() {
			files = append(files, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
