package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// Preview sidecar for the transformation UI. The main server shells out to
// external tools for the heavy conversions; this service only renders page
// thumbnails and pulls embedded text, so the UI can show previews without
// queueing a full transformation.

type PreviewResponse struct {
	Image     string `json:"image"` // base64 encoded PNG
	Page      int    `json:"page"`
	PageCount int    `json:"pageCount"`
	Error     string `json:"error,omitempty"`
}

type ExtractTextResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

const (
	defaultPreviewWidth = 1024
	minPreviewWidth     = 16
	maxPreviewWidth     = 4096
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8002"
	}

	log.Printf("Starting PDF preview service on port %s", port)

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/pdf/preview", previewHandler)
	http.HandleFunc("/pdf/extract-text", extractTextHandler)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func previewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := r.ParseMultipartForm(32 << 20) // 32MB max
	if err != nil {
		sendErrorResponse(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		sendErrorResponse(w, "No PDF file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	page := formInt(r, "page", 1)
	width := clampWidth(formInt(r, "width", defaultPreviewWidth))

	log.Printf("Rendering preview for file: %s page: %d", header.Filename, page)

	pdfData, err := io.ReadAll(file)
	if err != nil {
		sendErrorResponse(w, "Failed to read PDF file", http.StatusInternalServerError)
		return
	}

	imageData, pageCount, err := renderPreview(pdfData, page, width)
	if err != nil {
		log.Printf("Preview render error: %v", err)
		sendErrorResponse(w, fmt.Sprintf("Preview render failed: %v", err), http.StatusInternalServerError)
		return
	}

	response := PreviewResponse{
		Image:     imageData,
		Page:      page,
		PageCount: pageCount,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func extractTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := r.ParseMultipartForm(32 << 20) // 32MB max
	if err != nil {
		sendErrorResponse(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		sendErrorResponse(w, "No PDF file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	log.Printf("Extracting embedded text from file: %s", header.Filename)

	pdfData, err := io.ReadAll(file)
	if err != nil {
		sendErrorResponse(w, "Failed to read PDF file", http.StatusInternalServerError)
		return
	}

	text, pages, err := extractText(pdfData)
	if err != nil {
		log.Printf("Text extraction error: %v", err)
		sendErrorResponse(w, fmt.Sprintf("Text extraction failed: %v", err), http.StatusInternalServerError)
		return
	}

	response := ExtractTextResponse{
		Text:  text,
		Pages: pages,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func extractText(pdfData []byte) (string, int, error) {
	reader := bytes.NewReader(pdfData)

	pdfReader, err := pdf.NewReader(reader, int64(len(pdfData)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPages := pdfReader.NumPage()
	var fullText string

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", pageNum, err)
			continue
		}

		fullText += text
	}

	return fullText, totalPages, nil
}

// renderPreview rasterizes a single page. Pages are 1-based on the wire;
// requests past the end fall back to the last page rather than erroring so
// the UI can always show something.
func renderPreview(pdfData []byte, page, width int) (string, int, error) {
	tempFile, err := os.CreateTemp("", "preview-*.pdf")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := tempFile.Write(pdfData); err != nil {
		return "", 0, fmt.Errorf("failed to write PDF to temp file: %w", err)
	}
	tempFile.Close()

	doc, err := fitz.New(tempFile.Name())
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if numPages == 0 {
		return "", 0, fmt.Errorf("PDF has no pages")
	}

	if page < 1 {
		page = 1
	}
	if page > numPages {
		page = numPages
	}

	img, err := doc.Image(page - 1)
	if err != nil {
		return "", 0, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)
	sharpened := imaging.Sharpen(resized, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sharpened); err != nil {
		return "", 0, fmt.Errorf("failed to encode PNG: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return encoded, numPages, nil
}

func formInt(r *http.Request, field string, fallback int) int {
	raw := r.FormValue(field)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func clampWidth(width int) int {
	if width < minPreviewWidth {
		return minPreviewWidth
	}
	if width > maxPreviewWidth {
		return maxPreviewWidth
	}
	return width
}

func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{
		"error": message,
	}
	json.NewEncoder(w).Encode(response)
}
