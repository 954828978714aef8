package pipeline

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/drummonds/goPDFTools/config"
	"github.com/drummonds/goPDFTools/pipeline/pdfops"
)

func TestMain(m *testing.M) {
	pdfops.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	os.Exit(m.Run())
}

// newTestPipeline builds a pipeline over throwaway scratch directories. Tool
// paths resolve nowhere by default so fallback chains exhaust
// deterministically; individual tests override them with stub scripts.
func newTestPipeline(t *testing.T) (*Pipeline, config.ServerConfig) {
	t.Helper()
	tempDir := t.TempDir()
	cfg := config.ServerConfig{
		UploadPath:         filepath.Join(tempDir, "uploads"),
		OutputPath:         filepath.Join(tempDir, "outputs"),
		ToolTimeoutSeconds: 5,
		OCRTimeoutSeconds:  5,
		Renderer:           "pdfium",
		GhostscriptPath:    "missing-gs-binary",
		PDFCPUPath:         "missing-pdfcpu-binary",
		QPDFPath:           "missing-qpdf-binary",
		PDFImagesPath:      "missing-pdfimages-binary",
		PDFToPPMPath:       "missing-pdftoppm-binary",
		MutoolPath:         "missing-mutool-binary",
		SofficePath:        "missing-soffice-binary",
		TesseractPath:      "missing-tesseract-binary",
	}
	for _, dir := range []string{cfg.UploadPath, cfg.OutputPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create scratch directory: %v", err)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return New(cfg, logger), cfg
}

// stageUpload copies fixture bytes into the upload scratch dir the way the
// boundary does, handing ownership to the pipeline.
func stageUpload(t *testing.T, cfg config.ServerConfig, originalName string, data []byte) Upload {
	t.Helper()
	path := filepath.Join(cfg.UploadPath, fmt.Sprintf("upload_%d_%s", len(data), originalName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to stage upload: %v", err)
	}
	return Upload{Path: path, OriginalName: originalName}
}

func stageFixturePDF(t *testing.T, cfg config.ServerConfig, name string, pages int) Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	buildFixturePDF(t, path, pages)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return stageUpload(t, cfg, name, data)
}

func buildFixturePDF(t *testing.T, path string, pages int) {
	t.Helper()
	dir := t.TempDir()
	imgPaths := make([]string, pages)
	for i := 0; i < pages; i++ {
		imgPath := filepath.Join(dir, fmt.Sprintf("page%d.png", i+1))
		buildFixturePNG(t, imgPath, i)
		imgPaths[i] = imgPath
	}
	if _, err := pdfops.ImportImages(imgPaths, path); err != nil {
		t.Fatalf("Failed to build fixture PDF: %v", err)
	}
}

func buildFixturePNG(t *testing.T, path string, seed int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(40*seed + x), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture image: %v", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		t.Fatalf("Failed to encode fixture image: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Failed to close fixture image: %v", err)
	}
}

// writeStubTool drops an executable shell script standing in for an external
// binary.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub-tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("Failed to write stub tool: %v", err)
	}
	return path
}

// writeToLastArgStub writes fixed bytes to the path given as the final
// argument, matching qpdf-style "input output" argument orders.
const writeToLastArgStub = `for a in "$@"; do out=$a; done
printf 'stub output bytes' > "$out"
`

// assertScratchClean fails when non-committed files survive a request. The
// committed artifact, when given, is the only thing allowed in the output dir.
func assertScratchClean(t *testing.T, cfg config.ServerConfig, committed string) {
	t.Helper()
	uploads, err := os.ReadDir(cfg.UploadPath)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(uploads) != 0 {
		names := make([]string, len(uploads))
		for i, entry := range uploads {
			names[i] = entry.Name()
		}
		t.Errorf("Upload dir should be empty after the request, found %v", names)
	}

	outputs, err := os.ReadDir(cfg.OutputPath)
	if err != nil {
		t.Fatalf("Failed to read output dir: %v", err)
	}
	if committed == "" {
		if len(outputs) != 0 {
			t.Errorf("Output dir should be empty after a failed request, found %d files", len(outputs))
		}
		return
	}
	if len(outputs) != 1 || outputs[0].Name() != filepath.Base(committed) {
		names := make([]string, len(outputs))
		for i, entry := range outputs {
			names[i] = entry.Name()
		}
		t.Errorf("Output dir should hold only %s, found %v", filepath.Base(committed), names)
	}
}

func TestMergePipeline(t *testing.T) {
	p, cfg := newTestPipeline(t)
	inputs := []Upload{
		stageFixturePDF(t, cfg, "first.pdf", 2),
		stageFixturePDF(t, cfg, "second.pdf", 2),
		stageFixturePDF(t, cfg, "third.pdf", 2),
	}

	result, err := p.Merge(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Meta["pageCount"] != 6 {
		t.Errorf("pageCount = %v, want 6", result.Meta["pageCount"])
	}
	if result.Meta["skipped"] != 0 {
		t.Errorf("skipped = %v, want 0", result.Meta["skipped"])
	}
	if result.Size <= 0 {
		t.Error("Result size should be positive")
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestMergeSkipsCorruptInput(t *testing.T) {
	p, cfg := newTestPipeline(t)
	inputs := []Upload{
		stageFixturePDF(t, cfg, "good.pdf", 3),
		stageUpload(t, cfg, "bad.pdf", []byte("not a pdf")),
	}

	result, err := p.Merge(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Meta["pageCount"] != 3 {
		t.Errorf("pageCount = %v, want the valid input's 3", result.Meta["pageCount"])
	}
	if result.Meta["skipped"] != 1 {
		t.Errorf("skipped = %v, want 1", result.Meta["skipped"])
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestMergeFailureCleansUp(t *testing.T) {
	p, cfg := newTestPipeline(t)
	inputs := []Upload{
		stageUpload(t, cfg, "bad1.pdf", []byte("junk")),
		stageUpload(t, cfg, "bad2.pdf", []byte("junk")),
	}

	_, err := p.Merge(context.Background(), inputs)
	if KindOf(err) != KindNoPagesProcessed {
		t.Errorf("Merge of corrupt inputs returned kind %v, want NoPagesProcessed", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestMergeWithoutInputs(t *testing.T) {
	p, cfg := newTestPipeline(t)
	_, err := p.Merge(context.Background(), nil)
	if KindOf(err) != KindValidation {
		t.Errorf("Merge without inputs returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestSplitPipeline(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "report.pdf", 5)

	result, err := p.Split(context.Background(), input)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if result.Meta["pageCount"] != 5 {
		t.Errorf("pageCount = %v, want 5", result.Meta["pageCount"])
	}
	assertScratchClean(t, cfg, result.OutputPath)

	reader, err := zip.OpenReader(result.OutputPath)
	if err != nil {
		t.Fatalf("Result is not a readable zip: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 5 {
		t.Fatalf("Archive holds %d files, want 5", len(reader.File))
	}
	for i, entry := range reader.File {
		want := fmt.Sprintf("report_page_%d.pdf", i+1)
		if entry.Name != want {
			t.Errorf("Archive entry %d = %q, want %q", i, entry.Name, want)
		}
	}
}

func TestSplitRejectsCorruptInput(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageUpload(t, cfg, "bad.pdf", []byte("not a pdf"))

	_, err := p.Split(context.Background(), input)
	if KindOf(err) != KindValidation {
		t.Errorf("Split of corrupt input returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestReorderPipeline(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 3)

	result, err := p.Reorder(context.Background(), input, "[3,1,2]")
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if result.Meta["pageCount"] != 3 {
		t.Errorf("pageCount = %v, want 3", result.Meta["pageCount"])
	}
	if !strings.HasPrefix(result.OutputName, "doc_reordered_") {
		t.Errorf("OutputName = %q, want doc_reordered_ prefix", result.OutputName)
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestReorderRejectsOutOfRange(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 3)

	_, err := p.Reorder(context.Background(), input, "[1,4]")
	if KindOf(err) != KindValidation {
		t.Errorf("Out-of-range reorder returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestReorderRejectsMalformedOrder(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 3)

	_, err := p.Reorder(context.Background(), input, "[1,two]")
	if KindOf(err) != KindValidation {
		t.Errorf("Malformed pageOrder returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestWatermarkPipeline(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 4)

	result, err := p.Watermark(context.Background(), input, pdfops.WatermarkOptions{
		Text:  "CONFIDENTIAL",
		Range: "1,3",
	})
	if err != nil {
		t.Fatalf("Watermark failed: %v", err)
	}
	if result.Meta["markedPages"] != 2 {
		t.Errorf("markedPages = %v, want 2", result.Meta["markedPages"])
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestWatermarkRejectsMissingText(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	_, err := p.Watermark(context.Background(), input, pdfops.WatermarkOptions{})
	if KindOf(err) != KindValidation {
		t.Errorf("Watermark without text returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestCompressWithStubTool(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// stub ghostscript: writes as many bytes as the tier's JPEG quality, so
	// stronger compression (lower JPEGQ) gives a smaller artifact
	p.cfg.GhostscriptPath = writeStubTool(t, `q=0
for a in "$@"; do
  case "$a" in
    -dJPEGQ=*) q=${a#-dJPEGQ=};;
    -sOutputFile=*) out=${a#-sOutputFile=};;
  esac
done
i=0
while [ $i -lt $q ]; do printf x; i=$((i+1)); done > "$out"
`)

	input := stageFixturePDF(t, cfg, "big.pdf", 2)
	result, err := p.Compress(context.Background(), input, 10)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Meta["quality"] != 10 {
		t.Errorf("quality = %v, want 10", result.Meta["quality"])
	}
	if result.Meta["tier"] != "prepress" {
		t.Errorf("tier = %v, want prepress for quality 10", result.Meta["tier"])
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

// TestCompressQualityMonotonic checks that a higher quality scalar never
// produces a larger artifact than a lower one.
func TestCompressQualityMonotonic(t *testing.T) {
	p, cfg := newTestPipeline(t)
	p.cfg.GhostscriptPath = writeStubTool(t, `q=0
for a in "$@"; do
  case "$a" in
    -dJPEGQ=*) q=${a#-dJPEGQ=};;
    -sOutputFile=*) out=${a#-sOutputFile=};;
  esac
done
i=0
while [ $i -lt $q ]; do printf x; i=$((i+1)); done > "$out"
`)

	low := stageFixturePDF(t, cfg, "doc.pdf", 2)
	lowResult, err := p.Compress(context.Background(), low, 10)
	if err != nil {
		t.Fatalf("Compress at quality 10 failed: %v", err)
	}
	high := stageFixturePDF(t, cfg, "doc.pdf", 2)
	highResult, err := p.Compress(context.Background(), high, 90)
	if err != nil {
		t.Fatalf("Compress at quality 90 failed: %v", err)
	}
	if highResult.Size > lowResult.Size {
		t.Errorf("Quality 90 produced %d bytes, quality 10 produced %d; higher quality must not be larger",
			highResult.Size, lowResult.Size)
	}
}

func TestCompressNeverCommitsPartialOutput(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// ghostscript writes partial bytes before dying; pdfcpu exits clean
	// without producing anything. The request must fail rather than commit
	// the leftovers.
	p.cfg.GhostscriptPath = writeStubTool(t, `for a in "$@"; do
  case "$a" in -sOutputFile=*) out=${a#-sOutputFile=};; esac
done
printf 'PARTIAL GARBAGE' > "$out"
exit 1
`)
	p.cfg.PDFCPUPath = writeStubTool(t, "exit 0\n")

	input := stageFixturePDF(t, cfg, "doc.pdf", 2)
	_, err := p.Compress(context.Background(), input, 50)
	if err == nil {
		t.Fatal("Compress should fail when no tool produced a complete artifact")
	}
	if KindOf(err) != KindToolOutputMissing {
		t.Errorf("Compress returned kind %v, want ToolOutputMissing", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestCompressChainExhaustedCleansUp(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	_, err := p.Compress(context.Background(), input, 50)
	if KindOf(err) != KindToolChainExhausted {
		t.Errorf("Compress with no tools returned kind %v, want ToolChainExhausted", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestProtectRequiresPassword(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	_, err := p.Protect(context.Background(), input, "   ")
	if KindOf(err) != KindValidation {
		t.Errorf("Protect without password returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestProtectWithStubTool(t *testing.T) {
	p, cfg := newTestPipeline(t)
	p.cfg.QPDFPath = writeStubTool(t, writeToLastArgStub)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	result, err := p.Protect(context.Background(), input, "secret")
	if err != nil {
		t.Fatalf("Protect failed: %v", err)
	}
	if result.Meta["encrypted"] != true {
		t.Errorf("encrypted = %v, want true", result.Meta["encrypted"])
	}
	if !strings.HasSuffix(result.OutputName, ".pdf") {
		t.Errorf("OutputName = %q, want a .pdf artifact", result.OutputName)
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestUnlockFailureMapsToIncorrectPassword(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// qpdf failing with a wrong-password exit and pdfcpu missing: the caller
	// cannot tell those apart and gets the collapsed kind
	p.cfg.QPDFPath = writeStubTool(t, "echo 'invalid password' >&2\nexit 2\n")
	input := stageFixturePDF(t, cfg, "locked.pdf", 2)

	_, err := p.Unlock(context.Background(), input, "wrong")
	if KindOf(err) != KindIncorrectPassword {
		t.Errorf("Unlock failure returned kind %v, want IncorrectPasswordOrUnsupported", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestExtractImagesWithStubTool(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// pdfimages is called as: -j <input> <prefix>; drop two extracted images
	p.cfg.PDFImagesPath = writeStubTool(t, `prefix=$3
printf 'image-one' > "$prefix-000.jpg"
printf 'image-two' > "$prefix-001.jpg"
`)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	result, err := p.ExtractImages(context.Background(), input)
	if err != nil {
		t.Fatalf("ExtractImages failed: %v", err)
	}
	if result.Meta["imageCount"] != 2 {
		t.Errorf("imageCount = %v, want 2", result.Meta["imageCount"])
	}
	assertScratchClean(t, cfg, result.OutputPath)

	reader, err := zip.OpenReader(result.OutputPath)
	if err != nil {
		t.Fatalf("Result is not a readable zip: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 2 {
		t.Errorf("Archive holds %d files, want 2", len(reader.File))
	}
}

func TestExtractImagesEmptyResult(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// the tool succeeds but the document holds no images
	p.cfg.PDFImagesPath = writeStubTool(t, "exit 0\n")
	input := stageFixturePDF(t, cfg, "plain.pdf", 2)

	result, err := p.ExtractImages(context.Background(), input)
	if err != nil {
		t.Fatalf("Zero extracted images should be an empty success, got %v", err)
	}
	if result.Meta["imageCount"] != 0 {
		t.Errorf("imageCount = %v, want 0", result.Meta["imageCount"])
	}
	if result.OutputPath != "" {
		t.Errorf("Empty result should carry no artifact, got %q", result.OutputPath)
	}
	assertScratchClean(t, cfg, "")
}

func TestConvertImagesToPDF(t *testing.T) {
	p, cfg := newTestPipeline(t)
	imgPath := filepath.Join(t.TempDir(), "photo.png")
	buildFixturePNG(t, imgPath, 1)
	data, err := os.ReadFile(imgPath)
	if err != nil {
		t.Fatalf("Failed to read fixture image: %v", err)
	}
	input := stageUpload(t, cfg, "photo.png", data)

	result, err := p.Convert(context.Background(), []Upload{input}, "pdf", "", 0)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.Meta["pageCount"] != 1 {
		t.Errorf("pageCount = %v, want 1", result.Meta["pageCount"])
	}
	assertScratchClean(t, cfg, result.OutputPath)

	pages, err := pdfops.PageCountOf(result.OutputPath)
	if err != nil {
		t.Fatalf("Produced PDF does not load: %v", err)
	}
	if pages != 1 {
		t.Errorf("Produced PDF has %d pages, want 1", pages)
	}
}

func TestConvertOfficeToPDFWithStubTool(t *testing.T) {
	p, cfg := newTestPipeline(t)
	// soffice names its own output after the input inside --outdir; the stub
	// reproduces that contract so the move to the committed path is covered
	p.cfg.SofficePath = writeStubTool(t, `outdir=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--outdir" ]; then outdir=$a; fi
  prev=$a
  in=$a
done
base=$(basename "$in")
printf 'converted document bytes' > "$outdir/${base%.*}.pdf"
`)
	input := stageUpload(t, cfg, "report.docx", []byte("fake office document"))

	result, err := p.Convert(context.Background(), []Upload{input}, "pdf", "", 0)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.Meta["from"] != "docx" || result.Meta["to"] != "pdf" {
		t.Errorf("Meta from/to = %v/%v, want docx/pdf", result.Meta["from"], result.Meta["to"])
	}
	if !strings.HasPrefix(result.OutputName, "report_") || !strings.HasSuffix(result.OutputName, ".pdf") {
		t.Errorf("OutputName = %q, want report_*.pdf", result.OutputName)
	}
	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("Committed artifact unreadable: %v", err)
	}
	if string(data) != "converted document bytes" {
		t.Errorf("Artifact bytes = %q, want the tool's output moved intact", data)
	}
	assertScratchClean(t, cfg, result.OutputPath)
}

func TestConvertRejectsUnsupportedPair(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	_, err := p.Convert(context.Background(), []Upload{input}, "docx", "", 0)
	if KindOf(err) != KindUnsupportedConversion {
		t.Errorf("Unsupported pair returned kind %v, want UnsupportedConversion", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestConvertRequiresToType(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageFixturePDF(t, cfg, "doc.pdf", 2)

	_, err := p.Convert(context.Background(), []Upload{input}, "", "", 0)
	if KindOf(err) != KindValidation {
		t.Errorf("Missing toType returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestConvertRejectsMultiFileNonImageSource(t *testing.T) {
	p, cfg := newTestPipeline(t)
	inputs := []Upload{
		stageFixturePDF(t, cfg, "one.pdf", 1),
		stageFixturePDF(t, cfg, "two.pdf", 1),
	}

	_, err := p.Convert(context.Background(), inputs, "txt", "", 0)
	if KindOf(err) != KindValidation {
		t.Errorf("Multi-file pdf conversion returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestOCRRejectsUnknownInputType(t *testing.T) {
	p, cfg := newTestPipeline(t)
	input := stageUpload(t, cfg, "strange.xyz", []byte("whatever"))

	_, err := p.OCR(context.Background(), input)
	if KindOf(err) != KindValidation {
		t.Errorf("OCR of unknown type returned kind %v, want ValidationError", KindOf(err))
	}
	assertScratchClean(t, cfg, "")
}

func TestOCRImageInputToolUnavailable(t *testing.T) {
	p, cfg := newTestPipeline(t)
	imgPath := filepath.Join(t.TempDir(), "scan.png")
	buildFixturePNG(t, imgPath, 1)
	data, err := os.ReadFile(imgPath)
	if err != nil {
		t.Fatalf("Failed to read fixture image: %v", err)
	}
	input := stageUpload(t, cfg, "scan.png", data)

	_, ocrErr := p.OCR(context.Background(), input)
	if KindOf(ocrErr) != KindToolUnavailable {
		t.Errorf("OCR without tesseract returned kind %v, want ToolUnavailable", KindOf(ocrErr))
	}
	assertScratchClean(t, cfg, "")
}

func TestCancelledContextCleansUp(t *testing.T) {
	p, cfg := newTestPipeline(t)
	inputs := []Upload{stageFixturePDF(t, cfg, "doc.pdf", 2)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Merge(ctx, inputs); err == nil {
		t.Error("Merge with a cancelled context should fail")
	}
	assertScratchClean(t, cfg, "")
}

func TestConcurrentRequestsDisjointScratch(t *testing.T) {
	p, cfg := newTestPipeline(t)

	const workers = 4
	var wg sync.WaitGroup
	results := make([]*TransformResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		inputs := []Upload{
			stageFixturePDF(t, cfg, fmt.Sprintf("w%d_a.pdf", i), 1),
			stageFixturePDF(t, cfg, fmt.Sprintf("w%d_b.pdf", i), 1),
		}
		wg.Add(1)
		go func(i int, inputs []Upload) {
			defer wg.Done()
			results[i], errs[i] = p.Merge(context.Background(), inputs)
		}(i, inputs)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Worker %d merge failed: %v", i, errs[i])
		}
		if seen[results[i].OutputName] {
			t.Fatalf("Output name %q produced twice; scratch names must be unique", results[i].OutputName)
		}
		seen[results[i].OutputName] = true
	}

	uploads, err := os.ReadDir(cfg.UploadPath)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(uploads) != 0 {
		t.Errorf("Upload dir should be empty after all requests, found %d files", len(uploads))
	}
	outputs, err := os.ReadDir(cfg.OutputPath)
	if err != nil {
		t.Fatalf("Failed to read output dir: %v", err)
	}
	if len(outputs) != workers {
		t.Errorf("Output dir holds %d artifacts, want %d", len(outputs), workers)
	}
}

func TestStemOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report"},
		{"archive.tar.gz", "archive.tar"},
		{"noext", "noext"},
		{"../../etc/passwd", "passwd"},
		{".pdf", "document"},
		{"", "document"},
	}
	for _, tt := range tests {
		if got := stemOf(tt.in); got != tt.want {
			t.Errorf("stemOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
