package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// OCR sidecar wrapping the tesseract CLI. The main server runs tesseract
// through its own tool adapter; this service exposes plain-text OCR over
// HTTP for deployments that keep tesseract on a separate host.

type OCRResponse struct {
	Text      string `json:"text"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Tesseract string `json:"tesseract"`
	Timestamp string `json:"timestamp"`
}

var langPattern = regexp.MustCompile(`^[a-z]{3}(\+[a-z]{3})*$`)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8001"
	}

	tesseractPath := os.Getenv("TESSERACT_PATH")
	if tesseractPath == "" {
		tesseractPath = "/usr/bin/tesseract"
	}

	// Verify Tesseract is available
	if _, err := os.Stat(tesseractPath); os.IsNotExist(err) {
		log.Fatalf("Tesseract not found at %s", tesseractPath)
	}

	log.Printf("Starting Tesseract OCR service on port %s", port)
	log.Printf("Using Tesseract at: %s", tesseractPath)

	http.HandleFunc("/health", healthHandler(tesseractPath))
	http.HandleFunc("/ocr", ocrHandler(tesseractPath))

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func healthHandler(tesseractPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Check Tesseract version
		cmd := exec.Command(tesseractPath, "--version")
		output, err := cmd.CombinedOutput()
		tesseractInfo := "available"
		if err != nil {
			tesseractInfo = fmt.Sprintf("error: %v", err)
		} else {
			tesseractInfo = string(bytes.Split(output, []byte("\n"))[0])
		}

		response := HealthResponse{
			Status:    "healthy",
			Tesseract: tesseractInfo,
			Timestamp: time.Now().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func ocrHandler(tesseractPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requestID := uuid.NewString()

		err := r.ParseMultipartForm(32 << 20) // 32MB max
		if err != nil {
			sendErrorResponse(w, requestID, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			sendErrorResponse(w, requestID, "No image file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		lang := r.FormValue("lang")
		if lang == "" {
			lang = "eng"
		}
		if !langPattern.MatchString(lang) {
			sendErrorResponse(w, requestID, "Invalid language code", http.StatusBadRequest)
			return
		}

		log.Printf("[%s] Processing OCR request for file: %s lang: %s", requestID, header.Filename, lang)

		imageData, err := io.ReadAll(file)
		if err != nil {
			sendErrorResponse(w, requestID, "Failed to read image file", http.StatusInternalServerError)
			return
		}

		text, err := processOCR(tesseractPath, requestID, imageData, header.Filename, lang)
		if err != nil {
			log.Printf("[%s] OCR processing error: %v", requestID, err)
			sendErrorResponse(w, requestID, fmt.Sprintf("OCR processing failed: %v", err), http.StatusInternalServerError)
			return
		}

		response := OCRResponse{
			Text:      text,
			RequestID: requestID,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func processOCR(tesseractPath, requestID string, imageData []byte, filename, lang string) (string, error) {
	tempDir, err := os.MkdirTemp("", "ocr-"+requestID+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Determine file extension
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".png"
	}

	inputPath := filepath.Join(tempDir, "input"+ext)
	if err := os.WriteFile(inputPath, imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	// Output path (without extension - Tesseract adds .txt)
	outputBase := filepath.Join(tempDir, "output")
	outputPath := outputBase + ".txt"

	cmd := exec.Command(tesseractPath, inputPath, outputBase, "-l", lang)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract command failed: %w, stderr: %s", err, stderr.String())
	}

	textData, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR output: %w", err)
	}

	return string(textData), nil
}

func sendErrorResponse(w http.ResponseWriter, requestID, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := OCRResponse{
		RequestID: requestID,
		Error:     message,
	}
	json.NewEncoder(w).Encode(response)
}
