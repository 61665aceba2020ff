// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// PredictHandler handles batch submission and pipeline state
type PredictHandler interface {
	HandlePredict(c echo.Context) error
	HandleCancel(c echo.Context) error
	HandlePipelineStatus(c echo.Context) error
}

// ResultsHandler serves the accumulated results
type ResultsHandler interface {
	HandleListResults(c echo.Context) error
	HandleListResultsMsgpack(c echo.Context) error
	HandleGetResult(c echo.Context) error
	HandleGetHeatmap(c echo.Context) error
	HandleGetScoreChart(c echo.Context) error
}

// ExportHandler handles CSV export operations
type ExportHandler interface {
	HandleExportCSV(c echo.Context) error
	HandleSaveExport(c echo.Context) error
	HandleListExports(c echo.Context) error
	HandleDownloadExport(c echo.Context) error
}

// ThemeHandler handles the dark/light display preference
type ThemeHandler interface {
	HandleGetTheme(c echo.Context) error
	HandleSetTheme(c echo.Context) error
	HandleToggleTheme(c echo.Context) error
}

// PipelineStreamHandler streams pipeline events over WebSocket
type PipelineStreamHandler interface {
	HandlePipelineStream(c echo.Context) error
}

// Pipeline defines the upload pipeline operations the API needs.
// This allows mocking in tests
type Pipeline interface {
	Submit(ctx context.Context, sources []upload.Source) (*upload.Outcome, error)
	Cancel() bool
	Phase() models.Phase
	Subscribe() (<-chan upload.Event, func())
}

// ResultReader is the read side of the result store
type ResultReader interface {
	All() []models.PredictionResult
	Count() int
	Get(id string) (models.PredictionResult, bool)
}

// UpstreamChecker checks that the inference service is reachable
type UpstreamChecker interface {
	Health(ctx context.Context) (string, error)
}

// ExportStore persists generated CSV exports
type ExportStore interface {
	Save(name string, recordCount int, r io.Reader) (*models.ExportInfo, error)
	Get(id string) (*models.ExportInfo, error)
	List(limit int) ([]*models.ExportInfo, error)
	GetFilePath(id string) (string, error)
}
