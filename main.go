package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/goPDFTools/config"
	database "github.com/drummonds/goPDFTools/database"
	_ "github.com/drummonds/goPDFTools/docs" // registers the swagger spec served at /api/docs
	engine "github.com/drummonds/goPDFTools/engine"
	"github.com/drummonds/goPDFTools/pipeline"
	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/webapp"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	pdfops.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db := database.NewRepository(serverConfig)
	defer db.Close()
	Logger.Info("Database setup complete")

	e := echo.New()
	e.HideBanner = true
	Logger.Info("Echo created")

	// Custom 404 handler
	e.HTTPErrorHandler = newHTTPErrorHandler(e)

	transformer := pipeline.New(serverConfig, logger)
	serverHandler := engine.ServerHandler{DB: db, Echo: e, Pipeline: transformer, ServerConfig: serverConfig}
	Logger.Info("About to initialize schedules")
	serverHandler.InitializeSchedules(db) //initialize all the cron jobs
	Logger.Info("Schedules initialized, about to run startup checks")
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	Logger.Info("Startup checks complete")

	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	// Uploads above the configured ceiling are rejected before they hit disk
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", serverConfig.MaxUploadMB)))

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// go-app expects wasm_exec.js at the root; the compiled app lives in web/
	e.GET("/wasm_exec.js", func(c echo.Context) error {
		return c.File("web/wasm_exec.js")
	})

	// Register go-app specific resources
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	// Serve static assets
	e.Static("/web", "web")
	e.File("/webapp/webapp.css", "webapp/webapp.css")
	e.File("/favicon.ico", "public/favicon.ico")

	// Inject backend API URL into the page
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// goPDFTools Frontend Configuration
window.goPDFToolsConfig = {
    apiURL: "%s",
    historyCount: %d
};
console.log("goPDFTools Config loaded:", window.goPDFToolsConfig);
`, serverConfig.ServerAPIURL, serverConfig.HistoryNumber)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	//Start the API routes - all under /api/* prefix for clarity
	registerAPIRoutes(e, &serverHandler)

	// Serve go-app handler for all other routes (must be last)
	// The WASM app handles its own client-side routing and 404s via NotFoundPage component
	e.Any("/*", echo.WrapHandler(appHandler))

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	Logger.Info("Starting HTTP server")

	// Try to start server with automatic port increment if port is in use
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr = e.Start(addr)

		// Check if error is "address already in use"
		if startErr != nil && isAddressInUse(startErr) {
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)

			// Increment port for next attempt
			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			portNum++
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)

			if attempt == maxRetries-1 {
				Logger.Error("Failed to find available port after maximum retries",
					"start_port", startPort,
					"end_port", serverConfig.ListenAddrPort,
					"max_retries", maxRetries)
				os.Exit(1)
			}
		} else if startErr != nil {
			// Some other error occurred
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		} else {
			// Server started successfully
			break
		}
	}

	// If we got here and startErr is nil, server started successfully
	if startErr == nil && serverConfig.ListenAddrPort != startPort {
		Logger.Warn("Server started on alternative port due to conflicts",
			"requested_port", startPort,
			"actual_port", serverConfig.ListenAddrPort)
	}
}

// newHTTPErrorHandler builds the error handler: JSON 404s for API paths,
// an HTML page for everything else, echo defaults for the rest.
func newHTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			// Check if this is an API request
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				// Return JSON for API endpoints
				c.JSON(http.StatusNotFound, map[string]string{
					"error":   "Not Found",
					"message": "The requested API endpoint does not exist",
					"path":    c.Request().URL.Path,
				})
				return
			}

			// For non-API requests, serve the custom 404 page if one is built
			if _, statErr := os.Stat("public/404.html"); statErr == nil {
				c.File("public/404.html")
				return
			}

			// Fallback: serve inline HTML if the built page doesn't exist
			c.HTML(http.StatusNotFound, `<!DOCTYPE html>
<html>
<head><title>404 - Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>404 - Page Not Found</h1>
	<p>The page you're looking for doesn't exist.</p>
	<a href="/" style="color: #3498db; text-decoration: none; font-size: 18px;">← Go to Home Page</a>
</body>
</html>`)
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// registerAPIRoutes installs every /api route on the Echo instance. Kept as
// its own function so the table can be exercised by tests without starting
// a listener.
func registerAPIRoutes(e *echo.Echo, serverHandler *engine.ServerHandler) {
	// Transformation API routes
	e.POST("/api/transform/merge", serverHandler.TransformMerge)
	e.POST("/api/transform/split", serverHandler.TransformSplit)
	e.POST("/api/transform/reorder", serverHandler.TransformReorder)
	e.POST("/api/transform/compress", serverHandler.TransformCompress)
	e.POST("/api/transform/watermark", serverHandler.TransformWatermark)
	e.POST("/api/transform/protect", serverHandler.TransformProtect)
	e.POST("/api/transform/unlock", serverHandler.TransformUnlock)
	e.POST("/api/transform/extract-images", serverHandler.TransformExtractImages)
	e.POST("/api/transform/ocr", serverHandler.TransformOCR)
	e.POST("/api/transform/convert", serverHandler.TransformConvert)

	// Artifact download route
	e.GET("/api/download/:name", serverHandler.DownloadOutput)

	// Info API routes
	e.GET("/api/operations", serverHandler.GetOperations)
	e.GET("/api/history", serverHandler.GetTransformHistory)
	e.GET("/api/health", serverHandler.HealthCheck)
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/docs", serverHandler.GetAPIDocs)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use")
}
