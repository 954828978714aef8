package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// conversionKey is the (source, target) pair looked up in the capability
// table.
type conversionKey struct {
	From string
	To   string
}

// capability binds one supported conversion to the function implementing
// it. Via tells API consumers whether the work happens in-process or
// through external tools.
type capability struct {
	Via string
	run func(p *Pipeline, ctx context.Context, tr *Tracker, job convertJob) (*TransformResult, error)
}

// convertJob carries one resolved conversion through dispatch.
type convertJob struct {
	inputs     []Upload
	sourceType string
	targetType string
	quality    int
	started    time.Time
}

var officeTypes = []string{"doc", "docx", "odt", "ods", "odp", "xls", "xlsx", "ppt", "pptx", "rtf"}

var imageTypes = []string{"jpg", "png", "tiff", "gif"}

// typeAliases folds equivalent extensions onto one canonical name before
// the table lookup.
var typeAliases = map[string]string{
	"jpeg": "jpg",
	"jpe":  "jpg",
	"tif":  "tiff",
	"htm":  "html",
	"text": "txt",
}

var capabilities = map[conversionKey]capability{}

func init() {
	for _, t := range officeTypes {
		capabilities[conversionKey{t, "pdf"}] = capability{"tool-chain", (*Pipeline).convertOfficeToPDF}
	}
	for _, t := range imageTypes {
		capabilities[conversionKey{t, "pdf"}] = capability{"page-model", (*Pipeline).convertImagesToPDF}
	}
	capabilities[conversionKey{"html", "pdf"}] = capability{"tool-chain", (*Pipeline).convertHTMLToPDF}
	capabilities[conversionKey{"pdf", "png"}] = capability{"tool-chain", (*Pipeline).convertPDFToImage}
	capabilities[conversionKey{"pdf", "jpg"}] = capability{"tool-chain", (*Pipeline).convertPDFToImage}
	capabilities[conversionKey{"pdf", "txt"}] = capability{"page-model", (*Pipeline).convertPDFToText}
}

// NormalizeType canonicalizes a declared or detected type name: lowercase,
// no leading dot, aliases folded.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.TrimPrefix(t, ".")
	if canonical, ok := typeAliases[t]; ok {
		return canonical
	}
	return t
}

// resolveSourceType prefers the caller's explicit hint and otherwise falls
// back to the uploaded file's extension. Empty means undeterminable.
func resolveSourceType(hint, filename string) string {
	if strings.TrimSpace(hint) != "" {
		return NormalizeType(hint)
	}
	return NormalizeType(filepath.Ext(filename))
}

func isImageType(t string) bool {
	for _, it := range imageTypes {
		if t == it {
			return true
		}
	}
	return false
}

// Capability is one supported conversion, as listed by the operations API.
type Capability struct {
	From string `json:"from"`
	To   string `json:"to"`
	Via  string `json:"via"`
}

// Capabilities lists every supported conversion pair, sorted.
func Capabilities() []Capability {
	list := make([]Capability, 0, len(capabilities))
	for key, c := range capabilities {
		list = append(list, Capability{From: key.From, To: key.To, Via: c.Via})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].From != list[j].From {
			return list[i].From < list[j].From
		}
		return list[i].To < list[j].To
	})
	return list
}
