package engine

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"

	"github.com/drummonds/goPDFTools/internal/build"
	"github.com/drummonds/goPDFTools/pipeline"
	"github.com/drummonds/goPDFTools/pipeline/pdfops"
	"github.com/drummonds/goPDFTools/pipeline/toolrun"
)

// statusForKind maps the pipeline's error taxonomy onto HTTP statuses.
func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindUnsupportedConversion:
		return http.StatusUnsupportedMediaType
	case pipeline.KindIncorrectPassword:
		return http.StatusUnprocessableEntity
	case pipeline.KindToolUnavailable, pipeline.KindToolChainExhausted:
		return http.StatusServiceUnavailable
	case pipeline.KindToolTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (serverHandler *ServerHandler) errorResponse(context echo.Context, operation string, err error) error {
	kind := pipeline.KindOf(err)
	Logger.Error("Transformation failed", "operation", operation, "kind", string(kind), "error", err)
	return context.JSON(statusForKind(kind), map[string]string{
		"error":   string(kind),
		"message": err.Error(),
	})
}

func validationResponse(context echo.Context, message string) error {
	return context.JSON(http.StatusBadRequest, map[string]string{
		"error":   string(pipeline.KindValidation),
		"message": message,
	})
}

func (serverHandler *ServerHandler) respondResult(context echo.Context, result *pipeline.TransformResult) error {
	body := map[string]interface{}{
		"operation":  result.Operation,
		"durationMs": result.Elapsed.Milliseconds(),
		"meta":       result.Meta,
	}
	if result.OutputName != "" {
		body["outputName"] = result.OutputName
		body["downloadUrl"] = "/api/download/" + url.PathEscape(result.OutputName)
		body["size"] = result.Size
	}
	return context.JSON(http.StatusOK, body)
}

// formInt parses an optional integer form field
func formInt(context echo.Context, field string, fallback int) int {
	value := context.FormValue(field)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// formFloat parses an optional float form field
func formFloat(context echo.Context, field string, fallback float64) float64 {
	value := context.FormValue(field)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// TransformMerge concatenates the uploaded PDFs in upload order
// @Summary Merge PDF documents
// @Description Merge two or more uploaded PDFs into one, skipping corrupt inputs
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PDF files to merge, in order"
// @Success 200 {object} map[string]interface{} "Merged document info"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 500 {object} map[string]string "Merge failed"
// @Router /transform/merge [post]
func (serverHandler *ServerHandler) TransformMerge(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "merge", err.Error(), nil, started)
	}
	result, err := serverHandler.Pipeline.Merge(context.Request().Context(), uploads)
	serverHandler.recordTransform("merge", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "merge", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformSplit splits a PDF into single-page documents
// @Summary Split a PDF into pages
// @Description Split the uploaded PDF into one file per page, returned as a ZIP archive
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file to split"
// @Success 200 {object} map[string]interface{} "Archive info with pageCount"
// @Failure 400 {object} map[string]string "Validation error"
// @Router /transform/split [post]
func (serverHandler *ServerHandler) TransformSplit(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "split", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "split", "split takes exactly one file", uploads, started)
	}
	result, err := serverHandler.Pipeline.Split(context.Request().Context(), uploads[0])
	serverHandler.recordTransform("split", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "split", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformReorder rebuilds a PDF with pages in the requested order
// @Summary Reorder PDF pages
// @Description Rebuild the document so page i is source page pageOrder[i]; duplicates and omissions allowed
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param pageOrder formData string true "JSON array of 1-based page numbers, eg [3,1,2]"
// @Success 200 {object} map[string]interface{} "Reordered document info"
// @Failure 400 {object} map[string]string "Invalid page order"
// @Router /transform/reorder [post]
func (serverHandler *ServerHandler) TransformReorder(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "reorder", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "reorder", "reorder takes exactly one file", uploads, started)
	}
	pageOrder := context.FormValue("pageOrder")
	result, err := serverHandler.Pipeline.Reorder(context.Request().Context(), uploads[0], pageOrder)
	serverHandler.recordTransform("reorder", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "reorder", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformCompress shrinks a PDF at the requested quality
// @Summary Compress a PDF
// @Description Re-encode the PDF at a quality between 1 (lightest) and 100 (strongest compression)
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param quality formData int false "Compression strength 1-100, default 75"
// @Success 200 {object} map[string]interface{} "Compressed document info with sizes and ratio"
// @Failure 503 {object} map[string]string "No compression tool available"
// @Router /transform/compress [post]
func (serverHandler *ServerHandler) TransformCompress(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "compress", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "compress", "compress takes exactly one file", uploads, started)
	}
	quality := formInt(context, "quality", toolrun.DefaultQuality)
	result, err := serverHandler.Pipeline.Compress(context.Request().Context(), uploads[0], quality)
	serverHandler.recordTransform("compress", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "compress", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformWatermark stamps text on selected pages
// @Summary Watermark a PDF
// @Description Stamp text onto the pages selected by pageRange; out-of-range pages are clamped away
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param text formData string true "Watermark text"
// @Param opacity formData number false "Opacity 0-1, default 0.3"
// @Param fontSize formData int false "Font size in points, default 48"
// @Param color formData string false "Hex color, default #808080"
// @Param position formData string false "center, top-left, top-right, bottom-left, bottom-right"
// @Param pageRange formData string false "all, a-b, or comma list, default all"
// @Success 200 {object} map[string]interface{} "Watermarked document info with markedPages"
// @Failure 400 {object} map[string]string "Invalid watermark options"
// @Router /transform/watermark [post]
func (serverHandler *ServerHandler) TransformWatermark(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "watermark", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "watermark", "watermark takes exactly one file", uploads, started)
	}
	opts := pdfops.WatermarkOptions{
		Text:     context.FormValue("text"),
		Opacity:  formFloat(context, "opacity", 0),
		FontSize: formInt(context, "fontSize", 0),
		Color:    context.FormValue("color"),
		Position: context.FormValue("position"),
		Range:    context.FormValue("pageRange"),
	}
	result, err := serverHandler.Pipeline.Watermark(context.Request().Context(), uploads[0], opts)
	serverHandler.recordTransform("watermark", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "watermark", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformProtect encrypts a PDF with a password
// @Summary Password-protect a PDF
// @Description Encrypt the PDF so opening it requires the given password
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param password formData string true "Password, must be non-empty"
// @Success 200 {object} map[string]interface{} "Protected document info"
// @Failure 400 {object} map[string]string "Missing password"
// @Router /transform/protect [post]
func (serverHandler *ServerHandler) TransformProtect(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "protect", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "protect", "protect takes exactly one file", uploads, started)
	}
	result, err := serverHandler.Pipeline.Protect(context.Request().Context(), uploads[0], context.FormValue("password"))
	serverHandler.recordTransform("protect", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "protect", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformUnlock removes password protection from a PDF
// @Summary Unlock a protected PDF
// @Description Decrypt the PDF using the given password
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Protected PDF file"
// @Param password formData string true "Current password"
// @Success 200 {object} map[string]interface{} "Unlocked document info"
// @Failure 422 {object} map[string]string "Incorrect password or unsupported encryption"
// @Router /transform/unlock [post]
func (serverHandler *ServerHandler) TransformUnlock(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "unlock", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "unlock", "unlock takes exactly one file", uploads, started)
	}
	result, err := serverHandler.Pipeline.Unlock(context.Request().Context(), uploads[0], context.FormValue("password"))
	serverHandler.recordTransform("unlock", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "unlock", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformExtractImages pulls embedded raster images out of a PDF
// @Summary Extract images from a PDF
// @Description Extract every embedded image into a ZIP archive; a PDF without images succeeds with imageCount 0
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 200 {object} map[string]interface{} "Archive info with imageCount"
// @Failure 503 {object} map[string]string "No extraction tool available"
// @Router /transform/extract-images [post]
func (serverHandler *ServerHandler) TransformExtractImages(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "extract-images", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "extract-images", "extract-images takes exactly one file", uploads, started)
	}
	result, err := serverHandler.Pipeline.ExtractImages(context.Request().Context(), uploads[0])
	serverHandler.recordTransform("extract-images", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "extract-images", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformOCR recognizes text in a scan
// @Summary OCR a document
// @Description Recognize text in a scanned PDF or raster image and return it as a text artifact
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF or image file"
// @Success 200 {object} map[string]interface{} "Text artifact info"
// @Failure 503 {object} map[string]string "Tesseract not available"
// @Router /transform/ocr [post]
func (serverHandler *ServerHandler) TransformOCR(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "ocr", err.Error(), nil, started)
	}
	if len(uploads) != 1 {
		return serverHandler.rejectRequest(context, "ocr", "ocr takes exactly one file", uploads, started)
	}
	result, err := serverHandler.Pipeline.OCR(context.Request().Context(), uploads[0])
	serverHandler.recordTransform("ocr", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "ocr", err)
	}
	return serverHandler.respondResult(context, result)
}

// TransformConvert converts documents between formats
// @Summary Convert a document
// @Description Convert the upload to toType; the source type comes from fromType or the file extension
// @Tags Transform
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "File(s) to convert; multiple only for image sources"
// @Param toType formData string true "Target type, eg pdf, png, jpg, txt"
// @Param fromType formData string false "Source type hint overriding the extension"
// @Param quality formData int false "Quality 1-100 for raster targets, default 75"
// @Success 200 {object} map[string]interface{} "Converted document info"
// @Failure 415 {object} map[string]string "Unsupported conversion"
// @Router /transform/convert [post]
func (serverHandler *ServerHandler) TransformConvert(context echo.Context) error {
	started := time.Now()
	uploads, err := serverHandler.saveUploads(context)
	if err != nil {
		return serverHandler.rejectRequest(context, "convert", err.Error(), nil, started)
	}
	toType := context.FormValue("toType")
	fromType := context.FormValue("fromType")
	quality := formInt(context, "quality", toolrun.DefaultQuality)
	result, err := serverHandler.Pipeline.Convert(context.Request().Context(), uploads, toType, fromType, quality)
	serverHandler.recordTransform("convert", uploads, result, err, started)
	if err != nil {
		return serverHandler.errorResponse(context, "convert", err)
	}
	return serverHandler.respondResult(context, result)
}

// DownloadOutput streams a committed artifact from the output scratch dir
// @Summary Download a result artifact
// @Description Download a transformation result by its generated name; artifacts are swept after the retention window
// @Tags Transform
// @Produce application/octet-stream
// @Param name path string true "Artifact file name from a transform response"
// @Success 200 {file} binary "Artifact content"
// @Failure 404 {object} map[string]string "Artifact not found or already swept"
// @Router /download/{name} [get]
func (serverHandler *ServerHandler) DownloadOutput(context echo.Context) error {
	name := context.Param("name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	// the artifact name must be a bare file name; anything path-like is hostile
	if name != filepath.Base(name) || strings.Contains(name, "..") || name == "" || name == "." {
		return validationResponse(context, "invalid artifact name")
	}
	path := filepath.Join(serverHandler.ServerConfig.OutputPath, name)
	if _, err := os.Stat(path); err != nil {
		return context.JSON(http.StatusNotFound, map[string]string{
			"error":   "NotFound",
			"message": "artifact not found or already swept",
		})
	}
	return context.Attachment(path, name)
}

// GetOperations lists the supported operations and conversion pairs
// @Summary List supported operations
// @Description List every transformation operation and the supported conversion pairs
// @Tags Info
// @Produce json
// @Success 200 {object} map[string]interface{} "Operations and conversions"
// @Router /operations [get]
func (serverHandler *ServerHandler) GetOperations(context echo.Context) error {
	return context.JSON(http.StatusOK, map[string]interface{}{
		"operations": []string{
			"merge", "split", "reorder", "compress", "watermark",
			"protect", "unlock", "extract-images", "ocr", "convert",
		},
		"conversions": pipeline.Capabilities(),
	})
}

// GetTransformHistory returns recent transformation records
// @Summary Get transformation history
// @Description Recent transform records, newest first; use page for paginated browsing or limit for a flat list
// @Tags Info
// @Produce json
// @Param page query int false "Page number for paginated results"
// @Param limit query int false "Max records for flat list, default 50"
// @Success 200 {object} map[string]interface{} "Transform records"
// @Failure 500 {object} map[string]string "History unavailable"
// @Router /history [get]
func (serverHandler *ServerHandler) GetTransformHistory(context echo.Context) error {
	if pageParam := context.QueryParam("page"); pageParam != "" {
		page := 1
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
		pageSize := 20

		records, totalCount, err := serverHandler.DB.GetRecentTransformsWithPagination(page, pageSize)
		if err != nil {
			Logger.Error("Can't fetch transform history", "error", err)
			return context.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "InternalError",
				"message": "failed to fetch history",
			})
		}
		totalPages := (totalCount + pageSize - 1) / pageSize
		return context.JSON(http.StatusOK, map[string]interface{}{
			"transforms":  records,
			"page":        page,
			"pageSize":    pageSize,
			"totalCount":  totalCount,
			"totalPages":  totalPages,
			"hasNext":     page < totalPages,
			"hasPrevious": page > 1,
		})
	}

	limit := 50
	if limitParam := context.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	records, err := serverHandler.DB.GetRecentTransforms(limit)
	if err != nil {
		Logger.Error("Can't fetch transform history", "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "InternalError",
			"message": "failed to fetch history",
		})
	}
	return context.JSON(http.StatusOK, map[string]interface{}{
		"transforms": records,
	})
}

// HealthCheck reports liveness
// @Summary Health check
// @Description Liveness probe covering the database connection
// @Tags Info
// @Produce json
// @Success 200 {object} map[string]interface{} "Service healthy"
// @Failure 503 {object} map[string]string "Database unreachable"
// @Router /health [get]
func (serverHandler *ServerHandler) HealthCheck(context echo.Context) error {
	count, err := serverHandler.DB.CountTransforms()
	if err != nil {
		return context.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"message": "database unreachable",
		})
	}
	return context.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"transforms": count,
	})
}

// GetAPIDocs serves the generated OpenAPI document
// @Summary Get the OpenAPI document
// @Description Swagger 2.0 JSON describing every endpoint of this API
// @Tags Info
// @Produce json
// @Success 200 {object} map[string]interface{} "OpenAPI document"
// @Router /docs [get]
func (serverHandler *ServerHandler) GetAPIDocs(context echo.Context) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		Logger.Error("Swagger spec not registered", "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "InternalError",
			"message": "API documentation unavailable",
		})
	}
	return context.JSONBlob(http.StatusOK, []byte(doc))
}

// GetAboutInfo returns information about the application configuration
// @Summary Get application information
// @Description Retrieve the application version, configuration, and external tool availability
// @Tags Info
// @Produce json
// @Success 200 {object} map[string]interface{} "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(context echo.Context) error {
	aboutInfo := map[string]interface{}{
		"version":      build.Version,
		"renderer":     serverHandler.ServerConfig.Renderer,
		"databaseType": serverHandler.ServerConfig.DatabaseType,
		"databaseName": serverHandler.ServerConfig.DatabaseDbname,
		"uploadPath":   serverHandler.ServerConfig.UploadPath,
		"outputPath":   serverHandler.ServerConfig.OutputPath,
		"maxUploadMB":  serverHandler.ServerConfig.MaxUploadMB,
		"tools":        serverHandler.probeTools(),
	}
	return context.JSON(http.StatusOK, aboutInfo)
}
