// handlers_predict.go - Batch submission handlers
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/cerebroscan/backend/internal/upload"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ImagesField is the multipart field browsers and the CLI send files under.
const ImagesField = "images"

// PredictHandlerImpl implements the PredictHandler interface
type PredictHandlerImpl struct {
	pipeline    Pipeline
	rules       *models.PresentationRules
	allowedExts []string
	maxFiles    int
}

// NewPredictHandler creates a new predict handler.
// An empty allowedExts accepts any file; maxFiles <= 0 means no limit.
func NewPredictHandler(pipeline Pipeline, rules *models.PresentationRules, allowedExts []string, maxFiles int) PredictHandler {
	return &PredictHandlerImpl{
		pipeline:    pipeline,
		rules:       rules,
		allowedExts: allowedExts,
		maxFiles:    maxFiles,
	}
}

// PredictResponse is returned by a successful submission.
type PredictResponse struct {
	*upload.Outcome
	Cards []presentation.Card `json:"cards"`
	Count int                 `json:"count"`
}

// HandlePredict accepts a multipart batch and runs it through the pipeline.
func (h *PredictHandlerImpl) HandlePredict(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form data", err)
	}

	headers := form.File[ImagesField]
	if len(headers) == 0 {
		return NewBadRequestError("No image files provided.", nil)
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		return NewBadRequestError(fmt.Sprintf("too many files: %d (max %d)", len(headers), h.maxFiles), nil)
	}

	var (
		sources  []upload.Source
		rejected []models.SkippedFile
	)
	for _, fh := range headers {
		if !h.allowed(fh.Filename) {
			rejected = append(rejected, models.SkippedFile{
				Name:   filepath.Base(fh.Filename),
				Reason: "unsupported file type",
			})
			continue
		}
		sources = append(sources, upload.MultipartSource(fh))
	}
	if len(sources) == 0 {
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "UNSUPPORTED_FILE_TYPE",
			Message: "no supported image files provided",
			Details: fmt.Sprintf("accepted types: %s", strings.Join(h.allowedExts, ", ")),
		}
	}

	outcome, err := h.pipeline.Submit(c.Request().Context(), sources)
	if err != nil {
		return FromPipelineError(err)
	}
	outcome.Skipped = append(rejected, outcome.Skipped...)

	log.Infof("[API] Batch %s: %d result(s)", shortID(outcome.BatchID), len(outcome.Results))

	return c.JSON(http.StatusOK, PredictResponse{
		Outcome: outcome,
		Cards:   presentation.Cards(outcome.Results, h.rules),
		Count:   len(outcome.Results),
	})
}

// HandleCancel aborts the in-flight submission.
func (h *PredictHandlerImpl) HandleCancel(c echo.Context) error {
	if !h.pipeline.Cancel() {
		return NewConflictError("no upload in progress")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// HandlePipelineStatus returns the current pipeline phase.
func (h *PredictHandlerImpl) HandlePipelineStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"phase": h.pipeline.Phase(),
	})
}

func (h *PredictHandlerImpl) allowed(name string) bool {
	if len(h.allowedExts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range h.allowedExts {
		if ext == a {
			return true
		}
	}
	return false
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
