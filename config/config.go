package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string

	DatabaseType   string
	DatabaseDbname string

	UploadPath  string // absolute path to the upload scratch directory
	OutputPath  string // absolute path to the output scratch directory
	MaxUploadMB int

	ToolTimeoutSeconds int
	OCRTimeoutSeconds  int
	Renderer           string // pdf rasterizer backend: pdfium or fitz

	// External tool executables; bare names resolve through PATH.
	GhostscriptPath string
	PDFCPUPath      string
	QPDFPath        string
	PDFImagesPath   string
	PDFToPPMPath    string
	MutoolPath      string
	SofficePath     string
	TesseractPath   string
	ChromePath      string // empty means probe the usual browser names

	CleanupSchedule      string
	RetentionMinutes     int
	HistoryRetentionDays int

	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	HistoryNumber int
	ServerAPIURL  string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	serverConfigLive := ServerConfig{}
	frontEndConfigLive := FrontEndConfig{}

	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Database configuration
	serverConfigLive.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	serverConfigLive.DatabaseDbname = getEnv("DATABASE_NAME", "databases/gopdftools.sqlite")

	logger.Info("Database configuration loaded", "type", serverConfigLive.DatabaseType)

	// Scratch directories; every transformation works inside these and the
	// retention sweep owns anything left behind.
	uploadDir := filepath.ToSlash(getEnv("UPLOAD_PATH", "scratch/uploads"))
	uploadDirAbs, err := filepath.Abs(uploadDir)
	if err != nil {
		logger.Error("Failed creating absolute path for upload directory", "error", err)
	}
	serverConfigLive.UploadPath = uploadDirAbs

	outputDir := filepath.ToSlash(getEnv("OUTPUT_PATH", "scratch/outputs"))
	outputDirAbs, err := filepath.Abs(outputDir)
	if err != nil {
		logger.Error("Failed creating absolute path for output directory", "error", err)
	}
	serverConfigLive.OutputPath = outputDirAbs

	serverConfigLive.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 50)

	// Transformation configuration
	serverConfigLive.ToolTimeoutSeconds = getEnvInt("TOOL_TIMEOUT_SECONDS", 120)
	serverConfigLive.OCRTimeoutSeconds = getEnvInt("OCR_TIMEOUT_SECONDS", 300)
	serverConfigLive.Renderer = getEnv("RENDERER", "pdfium")

	// External tools; overrides take absolute paths, defaults rely on PATH
	serverConfigLive.GhostscriptPath = getEnv("GS_PATH", "gs")
	serverConfigLive.PDFCPUPath = getEnv("PDFCPU_PATH", "pdfcpu")
	serverConfigLive.QPDFPath = getEnv("QPDF_PATH", "qpdf")
	serverConfigLive.PDFImagesPath = getEnv("PDFIMAGES_PATH", "pdfimages")
	serverConfigLive.PDFToPPMPath = getEnv("PDFTOPPM_PATH", "pdftoppm")
	serverConfigLive.MutoolPath = getEnv("MUTOOL_PATH", "mutool")
	serverConfigLive.SofficePath = getEnv("SOFFICE_PATH", "soffice")
	serverConfigLive.TesseractPath = getEnv("TESSERACT_PATH", "tesseract")
	serverConfigLive.ChromePath = getEnv("CHROME_PATH", "")

	// Housekeeping configuration
	serverConfigLive.CleanupSchedule = getEnv("CLEANUP_SCHEDULE", "@every 30m")
	serverConfigLive.RetentionMinutes = getEnvInt("RETENTION_MINUTES", 60)
	serverConfigLive.HistoryRetentionDays = getEnvInt("HISTORY_RETENTION_DAYS", 30)

	fmt.Println("\n========================================")
	fmt.Println("  goPDFTools - Document Transformation")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "gopdftools.log"))
	fmt.Println("Initializing...")

	// Frontend configuration
	frontEndConfigLive.HistoryNumber = getEnvInt("HISTORY_COUNT", 10)
	frontEndConfigLive.ServerAPIURL = getEnv("SERVER_API_URL", "")
	serverConfigLive.FrontEndConfig = frontEndConfigLive

	return serverConfigLive, logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := FrontEndConfig{}

	frontendConfig.HistoryNumber = getEnvInt("HISTORY_COUNT", 10)
	frontendConfig.ServerAPIURL = getEnv("SERVER_API_URL", "http://localhost:8000")

	logger.Info("Frontend configuration loaded",
		"apiURL", frontendConfig.ServerAPIURL,
		"historyCount", frontendConfig.HistoryNumber)

	return frontendConfig, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "gopdftools.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
