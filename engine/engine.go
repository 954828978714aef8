// Package engine is the HTTP boundary of the transformation service. It
// receives uploads, hands them to the pipeline, streams committed artifacts
// back, and records every request in the history table.
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/drummonds/goPDFTools/config"
	"github.com/drummonds/goPDFTools/database"
	"github.com/drummonds/goPDFTools/pipeline"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	Pipeline     *pipeline.Pipeline
	ServerConfig config.ServerConfig
}

// saveUploads copies every file of the multipart form into the upload
// scratch directory under a collision-free name. The pipeline takes
// ownership of the saved paths and deletes them when the request ends.
func (serverHandler *ServerHandler) saveUploads(context echo.Context) ([]pipeline.Upload, error) {
	form, err := context.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("reading multipart form: %w", err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"] // single-file clients use the singular field
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files in upload")
	}

	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			removeUploads(uploads)
			return nil, fmt.Errorf("opening upload %s: %w", fileHeader.Filename, err)
		}
		name := fmt.Sprintf("%s_%s", ulid.Make().String(), sanitizeFilename(fileHeader.Filename))
		dst := filepath.Join(serverHandler.ServerConfig.UploadPath, name)
		out, err := os.Create(dst)
		if err != nil {
			src.Close()
			removeUploads(uploads)
			return nil, fmt.Errorf("creating scratch file for %s: %w", fileHeader.Filename, err)
		}
		_, err = io.Copy(out, src)
		src.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
			removeUploads(uploads)
			return nil, fmt.Errorf("saving upload %s: %w", fileHeader.Filename, err)
		}
		uploads = append(uploads, pipeline.Upload{Path: dst, OriginalName: fileHeader.Filename})
	}
	return uploads, nil
}

func removeUploads(uploads []pipeline.Upload) {
	for _, u := range uploads {
		os.Remove(u.Path)
	}
}

// sanitizeFilename strips directory parts and traversal characters from a
// client-supplied name before it becomes part of a scratch path.
func sanitizeFilename(name string) string {
	base := filepath.Base(filepath.ToSlash(name))
	base = strings.ReplaceAll(base, "..", "")
	base = strings.ReplaceAll(base, string(filepath.Separator), "")
	if base == "" || base == "." {
		base = "upload"
	}
	return base
}

// rejectRequest turns away a request before it reaches the pipeline: saved
// uploads are removed, a failed history row is written so rejected requests
// show up in the history like any other failure, and the client gets a 400.
func (serverHandler *ServerHandler) rejectRequest(context echo.Context, operation, message string, uploads []pipeline.Upload, started time.Time) error {
	removeUploads(uploads)
	serverHandler.recordTransform(operation, uploads, nil,
		&pipeline.Error{Kind: pipeline.KindValidation, Op: operation, Message: message}, started)
	return validationResponse(context, message)
}

// recordTransform writes one history row. History is best effort: a failed
// insert logs and never fails the request it records.
func (serverHandler *ServerHandler) recordTransform(operation string, uploads []pipeline.Upload, result *pipeline.TransformResult, transformErr error, started time.Time) {
	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.OriginalName
	}

	record := &database.Transform{
		ULID:       ulid.Make(),
		Operation:  operation,
		InputNames: strings.Join(names, ","),
		Status:     database.StatusCompleted,
		DurationMS: time.Since(started).Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if transformErr != nil {
		record.Status = database.StatusFailed
		record.ErrorKind = string(pipeline.KindOf(transformErr))
	} else if result != nil {
		record.OutputName = result.OutputName
		record.OutputSize = result.Size
		record.DurationMS = result.Elapsed.Milliseconds()
		if len(result.Meta) > 0 {
			if detail, err := json.Marshal(result.Meta); err == nil {
				record.Detail = string(detail)
			}
		}
	}

	if err := serverHandler.DB.SaveTransform(record); err != nil {
		Logger.Error("Unable to write transform history", "operation", operation, "error", err)
	}
}
