// handlers_export.go - CSV export handlers
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cerebroscan/backend/internal/export"
	"github.com/cerebroscan/backend/internal/models"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	results ResultReader
	exports ExportStore
	rules   *models.PresentationRules
	now     func() time.Time
}

// NewExportHandler creates a new export handler
func NewExportHandler(results ResultReader, exports ExportStore, rules *models.PresentationRules) ExportHandler {
	return &ExportHandlerImpl{
		results: results,
		exports: exports,
		rules:   rules,
		now:     time.Now,
	}
}

// HandleExportCSV streams the whole result store as a CSV download.
// An empty store yields a header-only file.
func (h *ExportHandlerImpl) HandleExportCSV(c echo.Context) error {
	results := h.results.All()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, results, h.rules.Labels); err != nil {
		return NewInternalError("failed to build CSV", err)
	}

	name := export.FileName(h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// errNoExportStore is returned by the saved-export routes when no export directory is configured.
var errNoExportStore = NewServiceUnavailableError("export storage is not configured")

// HandleSaveExport writes the current CSV to the export store.
func (h *ExportHandlerImpl) HandleSaveExport(c echo.Context) error {
	if h.exports == nil {
		return errNoExportStore
	}
	results := h.results.All()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, results, h.rules.Labels); err != nil {
		return NewInternalError("failed to build CSV", err)
	}

	info, err := h.exports.Save(export.FileName(h.now()), len(results), &buf)
	if err != nil {
		return NewInternalError("failed to save export", err)
	}

	log.Infof("[Export %s] Saved %d record(s) as %s", shortID(info.ID), info.RecordCount, info.Name)
	return c.JSON(http.StatusCreated, info)
}

// HandleListExports returns recently saved exports.
func (h *ExportHandlerImpl) HandleListExports(c echo.Context) error {
	if h.exports == nil {
		return errNoExportStore
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	list, err := h.exports.List(limit)
	if err != nil {
		return NewInternalError("failed to list exports", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleDownloadExport serves a previously saved export.
func (h *ExportHandlerImpl) HandleDownloadExport(c echo.Context) error {
	if h.exports == nil {
		return errNoExportStore
	}
	id := c.Param("id")
	info, err := h.exports.Get(id)
	if err != nil {
		return NewNotFoundError("export", id)
	}
	path, err := h.exports.GetFilePath(id)
	if err != nil {
		return NewNotFoundError("export", id)
	}
	return c.Attachment(path, info.Name)
}
