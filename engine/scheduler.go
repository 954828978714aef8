package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	database "github.com/drummonds/goPDFTools/database"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts all the cron jobs (currently just the scratch sweep)
func (serverHandler *ServerHandler) InitializeSchedules(db database.Repository) {
	// Sweep once at startup in a goroutine so artifacts left over from a
	// previous run don't linger until the first tick
	Logger.Info("Running scratch sweep at startup")
	go serverHandler.sweepJobFunc(db)

	c := cron.New()
	var sweepJob cron.Job
	sweepJob = cron.FuncJob(func() { serverHandler.sweepJobFunc(db) })
	sweepJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(sweepJob) //ensure we don't kick off another if old one is still running
	if _, err := c.AddJob(serverHandler.ServerConfig.CleanupSchedule, sweepJob); err != nil {
		Logger.Error("Invalid cleanup schedule, sweep disabled", "schedule", serverHandler.ServerConfig.CleanupSchedule, "error", err)
		return
	}
	Logger.Info("Adding scratch sweep scheduler", "schedule", serverHandler.ServerConfig.CleanupSchedule)
	c.Start()
}

// sweepJobFunc removes expired scratch files and prunes old history rows
func (serverHandler *ServerHandler) sweepJobFunc(db database.Repository) {
	retention := time.Duration(serverHandler.ServerConfig.RetentionMinutes) * time.Minute
	removed := sweepDirectory(serverHandler.ServerConfig.UploadPath, retention)
	removed += sweepDirectory(serverHandler.ServerConfig.OutputPath, retention)
	if removed > 0 {
		Logger.Info("Scratch sweep removed expired artifacts", "count", removed)
	}

	historyRetention := time.Duration(serverHandler.ServerConfig.HistoryRetentionDays) * 24 * time.Hour
	pruned, err := db.DeleteTransformsOlderThan(historyRetention)
	if err != nil {
		Logger.Error("Can't prune transform history", "error", err)
		return
	}
	if pruned > 0 {
		Logger.Info("Pruned old transform history", "count", pruned)
	}
}

// sweepDirectory deletes regular files older than the retention window.
// Files younger than the window are never touched.
func sweepDirectory(dir string, retention time.Duration) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		Logger.Warn("Can't read scratch directory for sweep", "dir", dir, "error", err)
		return 0
	}
	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			Logger.Warn("Can't remove expired artifact", "file", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
