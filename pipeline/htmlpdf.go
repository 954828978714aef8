package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

// browserCandidates are tried in order when no explicit browser path is
// configured.
var browserCandidates = []string{"google-chrome", "chromium-browser", "chromium", "chrome"}

// FindBrowser resolves the headless browser binary HTML conversion will use,
// preferring the configured path and falling back to the usual names. It
// returns empty when none resolves.
func FindBrowser(configured string) string {
	if configured != "" {
		if path, err := exec.LookPath(configured); err == nil {
			return path
		}
		return ""
	}
	for _, candidate := range browserCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

func (p *Pipeline) findBrowser() (string, error) {
	if path := FindBrowser(p.cfg.ChromePath); path != "" {
		return path, nil
	}
	tool := p.cfg.ChromePath
	if tool == "" {
		tool = "chromium"
	}
	return "", &toolrun.RunError{Tool: tool, Reason: toolrun.ReasonUnavailable}
}

// convertHTMLToPDF prints an HTML file to PDF through headless Chrome's
// DevTools protocol. The browser is a tool like any other; its failures map
// onto the same taxonomy as the command-line chains.
func (p *Pipeline) convertHTMLToPDF(ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error) {
	in := job.inputs[0]
	browser, err := p.findBrowser()
	if err != nil {
		return nil, classify("convert", err)
	}
	absPath, err := filepath.Abs(in.Path)
	if err != nil {
		return nil, wrapError(KindInternal, "convert", "resolving input path", err)
	}

	data, err := printToPDF(ctx, browser, "file://"+absPath, p.toolTimeout())
	if err != nil {
		return nil, classify("convert", err)
	}

	outPath, handle := p.scratchOutput(tr, stemOf(in.OriginalName), ".pdf")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, wrapError(KindInternal, "convert", "writing result", err)
	}
	tr.Commit(handle)
	meta := map[string]any{
		"from": "html",
		"to":   "pdf",
		"tool": filepath.Base(browser),
	}
	if pages, err := pdfops.PageCountOf(outPath); err == nil {
		meta["pageCount"] = pages
	}
	return p.finish("convert", outPath, job.started, meta)
}

// printToPDF drives one headless browser session and returns the rendered
// PDF bytes.
func printToPDF(ctx context.Context, browser, url string, timeout time.Duration) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdfData []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfData = buf
			return nil
		}),
	)
	name := filepath.Base(browser)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || runCtx.Err() != nil {
			return nil, &toolrun.RunError{Tool: name, Reason: toolrun.ReasonTimeout, Err: err}
		}
		return nil, &toolrun.RunError{Tool: name, Reason: toolrun.ReasonExecFailed, Err: err}
	}
	if len(pdfData) == 0 {
		return nil, &toolrun.RunError{Tool: name, Reason: toolrun.ReasonOutputMissing}
	}
	return pdfData, nil
}
