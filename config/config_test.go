package config

import (
	"path/filepath"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("GOPDF_TEST_STRING", "")
	if got := getEnv("GOPDF_TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback for empty variable, got %q", got)
	}

	t.Setenv("GOPDF_TEST_STRING", "value")
	if got := getEnv("GOPDF_TEST_STRING", "fallback"); got != "value" {
		t.Errorf("Expected value from environment, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("GOPDF_TEST_INT", "17")
	if got := getEnvInt("GOPDF_TEST_INT", 5); got != 17 {
		t.Errorf("Expected 17, got %d", got)
	}

	t.Setenv("GOPDF_TEST_INT", "not-a-number")
	if got := getEnvInt("GOPDF_TEST_INT", 5); got != 5 {
		t.Errorf("Expected default 5 for unparseable value, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("GOPDF_TEST_BOOL", "true")
	if !getEnvBool("GOPDF_TEST_BOOL", false) {
		t.Error("Expected true from environment")
	}

	t.Setenv("GOPDF_TEST_BOOL", "banana")
	if !getEnvBool("GOPDF_TEST_BOOL", true) {
		t.Error("Expected default true for unparseable value")
	}
}

func TestSetupServerDefaults(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")

	cfg, logger := SetupServer()
	if logger == nil {
		t.Fatal("Expected a logger from SetupServer")
	}
	if cfg.ListenAddrPort != "8000" {
		t.Errorf("Expected default port 8000, got %q", cfg.ListenAddrPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("Expected default database type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.MaxUploadMB != 50 {
		t.Errorf("Expected default upload cap 50MB, got %d", cfg.MaxUploadMB)
	}
	if cfg.ToolTimeoutSeconds != 120 || cfg.OCRTimeoutSeconds != 300 {
		t.Errorf("Unexpected timeout defaults: tool=%d ocr=%d", cfg.ToolTimeoutSeconds, cfg.OCRTimeoutSeconds)
	}
	if cfg.Renderer != "pdfium" {
		t.Errorf("Expected default renderer pdfium, got %q", cfg.Renderer)
	}
	if cfg.CleanupSchedule != "@every 30m" {
		t.Errorf("Unexpected cleanup schedule default: %q", cfg.CleanupSchedule)
	}
	if cfg.RetentionMinutes != 60 || cfg.HistoryRetentionDays != 30 {
		t.Errorf("Unexpected retention defaults: files=%dm history=%dd", cfg.RetentionMinutes, cfg.HistoryRetentionDays)
	}
	if !filepath.IsAbs(cfg.UploadPath) || !filepath.IsAbs(cfg.OutputPath) {
		t.Errorf("Expected absolute scratch paths, got %q and %q", cfg.UploadPath, cfg.OutputPath)
	}
	if cfg.GhostscriptPath != "gs" || cfg.QPDFPath != "qpdf" || cfg.TesseractPath != "tesseract" {
		t.Error("Expected bare tool names to be the defaults")
	}
}

func TestSetupServerOverrides(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("TOOL_TIMEOUT_SECONDS", "30")
	t.Setenv("QPDF_PATH", "/opt/qpdf/bin/qpdf")
	t.Setenv("RENDERER", "fitz")

	cfg, _ := SetupServer()
	if cfg.ListenAddrPort != "9100" {
		t.Errorf("Expected overridden port 9100, got %q", cfg.ListenAddrPort)
	}
	if cfg.ToolTimeoutSeconds != 30 {
		t.Errorf("Expected overridden timeout 30, got %d", cfg.ToolTimeoutSeconds)
	}
	if cfg.QPDFPath != "/opt/qpdf/bin/qpdf" {
		t.Errorf("Expected overridden qpdf path, got %q", cfg.QPDFPath)
	}
	if cfg.Renderer != "fitz" {
		t.Errorf("Expected overridden renderer fitz, got %q", cfg.Renderer)
	}
}

func TestSetupFrontend(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("SERVER_API_URL", "http://backend:8000")

	cfg, logger := SetupFrontend()
	if logger == nil {
		t.Fatal("Expected a logger from SetupFrontend")
	}
	if cfg.ServerAPIURL != "http://backend:8000" {
		t.Errorf("Expected configured API URL, got %q", cfg.ServerAPIURL)
	}
	if cfg.HistoryNumber != 10 {
		t.Errorf("Expected default history count 10, got %d", cfg.HistoryNumber)
	}
}
