package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/drummonds/goPDFTools/config"
	"github.com/drummonds/goPDFTools/pipeline"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	serverConfig := serverHandler.ServerConfig
	if err := scratchDirectoryChecks("upload", serverConfig.UploadPath); err != nil {
		return err
	}
	if err := scratchDirectoryChecks("output", serverConfig.OutputPath); err != nil {
		return err
	}
	toolChecks(serverConfig)
	return nil
}

// scratchDirectoryChecks ensures a scratch directory exists and is writable
func scratchDirectoryChecks(label, path string) error {
	if path == "" {
		Logger.Error("Scratch path not configured", "dir", label)
		return fmt.Errorf("%s path not configured", label)
	}

	// Check if directory exists
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			Logger.Error("Error checking scratch directory", "dir", label, "path", path, "error", err)
			return err
		}
		// Create the directory
		Logger.Info("Creating scratch directory", "dir", label, "path", path)
		err = os.MkdirAll(path, 0755)
		if err != nil {
			Logger.Error("Failed to create scratch directory", "dir", label, "path", path, "error", err)
			return err
		}
	} else if !info.IsDir() {
		Logger.Error("Scratch path exists but is not a directory", "dir", label, "path", path)
		return fmt.Errorf("%s path is not a directory: %s", label, path)
	}

	// Prove the directory is writable before accepting requests
	probe, err := os.CreateTemp(path, ".writecheck-*")
	if err != nil {
		Logger.Error("Scratch directory is not writable", "dir", label, "path", path, "error", err)
		return err
	}
	probe.Close()
	os.Remove(probe.Name())

	Logger.Info("Scratch directory ready", "dir", label, "path", path)
	return nil
}

// toolChecks probes every configured external tool. A missing tool is never
// fatal at startup; the affected operations fail over or report
// ToolUnavailable at request time.
func toolChecks(serverConfig config.ServerConfig) {
	for name, available := range probeToolPaths(serverConfig) {
		if available {
			Logger.Info("External tool found", "tool", name)
		} else {
			Logger.Warn("External tool missing, dependent operations degrade", "tool", name)
		}
	}
}

// probeTools reports which external tools currently resolve, keyed by role
func (serverHandler *ServerHandler) probeTools() map[string]bool {
	return probeToolPaths(serverHandler.ServerConfig)
}

func probeToolPaths(serverConfig config.ServerConfig) map[string]bool {
	tools := map[string]string{
		"ghostscript": serverConfig.GhostscriptPath,
		"pdfcpu":      serverConfig.PDFCPUPath,
		"qpdf":        serverConfig.QPDFPath,
		"pdfimages":   serverConfig.PDFImagesPath,
		"pdftoppm":    serverConfig.PDFToPPMPath,
		"mutool":      serverConfig.MutoolPath,
		"soffice":     serverConfig.SofficePath,
		"tesseract":   serverConfig.TesseractPath,
	}
	available := make(map[string]bool, len(tools)+1)
	for name, path := range tools {
		available[name] = lookupTool(path)
	}
	available["browser"] = pipeline.FindBrowser(serverConfig.ChromePath) != ""
	return available
}

// lookupTool resolves a tool the same way the runner will: absolute paths by
// stat, bare names through PATH.
func lookupTool(path string) bool {
	if path == "" {
		return false
	}
	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	}
	_, err := exec.LookPath(path)
	return err == nil
}
