package pipeline

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// extractEmbeddedText pulls the text layer out of a PDF. Scanned documents
// typically return an empty string here; callers decide whether that means
// falling back to OCR.
func extractEmbeddedText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf for text extraction: %w", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading text layer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading text layer: %w", err)
	}
	return buf.String(), nil
}
