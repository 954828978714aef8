package pdfops

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// WatermarkOptions carries the text-stamp parameters exposed at the
// boundary. Zero values are filled with defaults by Normalize.
type WatermarkOptions struct {
	Text     string
	Opacity  float64 // 0 means unset, resolved to DefaultOpacity
	FontSize int
	Color    string // hex, with or without leading '#'
	Position string // center, top-left, top-right, bottom-left, bottom-right
	Range    string // "all", "a-b", comma list
}

const (
	DefaultOpacity  = 0.3
	DefaultFontSize = 48
	DefaultColor    = "#808080"
	DefaultPosition = "center"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// anchors maps boundary position names onto pdfcpu anchor codes. The anchor
// is resolved against each page's own media box, so mixed page sizes keep
// the mark in the named corner.
var anchors = map[string]string{
	"center":       "c",
	"top-left":     "tl",
	"top-right":    "tr",
	"bottom-left":  "bl",
	"bottom-right": "br",
}

// Normalize fills defaults and validates every option, so a request either
// fails here or renders exactly as echoed back to the caller.
func (o *WatermarkOptions) Normalize() error {
	if strings.TrimSpace(o.Text) == "" {
		return fmt.Errorf("%w: watermark text is required", ErrInvalidOption)
	}
	if o.Opacity == 0 {
		o.Opacity = DefaultOpacity
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v outside [0,1]", ErrInvalidOption, o.Opacity)
	}
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	if o.FontSize < 1 {
		return fmt.Errorf("%w: fontSize must be positive", ErrInvalidOption)
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if !strings.HasPrefix(o.Color, "#") {
		o.Color = "#" + o.Color
	}
	if !hexColor.MatchString(o.Color) {
		return fmt.Errorf("%w: color %q is not a hex color", ErrInvalidOption, o.Color)
	}
	if o.Position == "" {
		o.Position = DefaultPosition
	}
	if _, ok := anchors[o.Position]; !ok {
		return fmt.Errorf("%w: unknown position %q", ErrInvalidOption, o.Position)
	}
	if o.Range == "" {
		o.Range = "all"
	}
	return nil
}

// description renders the pdfcpu watermark parameter string. rot:0 keeps
// the stamp horizontal instead of pdfcpu's diagonal default, and the
// absolute scale pins the glyph size to FontSize points.
func (o *WatermarkOptions) description() string {
	return fmt.Sprintf("fontname:Helvetica, points:%d, pos:%s, fillc:%s, op:%s, scale:1 abs, rot:0",
		o.FontSize, anchors[o.Position], o.Color, strconv.FormatFloat(o.Opacity, 'f', 2, 64))
}

// Watermark stamps opts.Text onto every selected page of inPath, writing
// the result to outPath. Pages outside the document are clamped away; when
// the whole range falls outside, the output is an untouched copy. Returns
// how many pages were marked.
func Watermark(inPath, outPath string, opts WatermarkOptions) (int, error) {
	if err := opts.Normalize(); err != nil {
		return 0, err
	}
	doc, err := Load(inPath)
	if err != nil {
		return 0, err
	}
	pages, err := ResolvePageRange(opts.Range, doc.PageCount())
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		if err := copyFile(inPath, outPath); err != nil {
			return 0, err
		}
		Logger.Warn("watermark range selected no pages", "range", opts.Range, "pages", doc.PageCount())
		return 0, nil
	}

	selected := make([]string, len(pages))
	for i, n := range pages {
		selected[i] = strconv.Itoa(n)
	}
	wm, err := pdfapi.TextWatermark(opts.Text, opts.description(), true, false, types.POINTS)
	if err != nil {
		return 0, fmt.Errorf("building watermark: %w", err)
	}
	if err := pdfapi.AddWatermarksFile(inPath, outPath, selected, wm, nil); err != nil {
		return 0, fmt.Errorf("stamping %d pages: %w", len(pages), err)
	}
	return len(pages), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
