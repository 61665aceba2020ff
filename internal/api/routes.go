// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Pipeline    Pipeline
	Results     ResultReader
	Exports     ExportStore
	Upstream    UpstreamChecker
	Rules       *models.PresentationRules
	Theme       *presentation.Theme
	AllowedExts []string
	MaxFiles    int
	Version     string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Predict  PredictHandler
	Results  ResultsHandler
	Export   ExportHandler
	Theme    ThemeHandler
	Pipeline PipelineStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	rules := deps.Rules
	if rules == nil {
		rules = presentation.DefaultRules()
	}
	theme := deps.Theme
	if theme == nil {
		theme = presentation.NewTheme(false)
	}

	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Upstream),
		Predict:  NewPredictHandler(deps.Pipeline, rules, deps.AllowedExts, deps.MaxFiles),
		Results:  NewResultsHandler(deps.Results, rules),
		Export:   NewExportHandler(deps.Results, deps.Exports, rules),
		Theme:    NewThemeHandler(theme),
		Pipeline: NewWebSocketHandler(deps.Pipeline),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Batch submission
	apiGroup.POST("/predict", handlers.Predict.HandlePredict)
	apiGroup.POST("/predict/cancel", handlers.Predict.HandleCancel)
	apiGroup.GET("/pipeline", handlers.Predict.HandlePipelineStatus)

	// Results
	apiGroup.GET("/results", handlers.Results.HandleListResults)
	apiGroup.GET("/results/msgpack", handlers.Results.HandleListResultsMsgpack)
	apiGroup.GET("/results/:id", handlers.Results.HandleGetResult)
	apiGroup.GET("/results/:id/heatmap.png", handlers.Results.HandleGetHeatmap)
	apiGroup.GET("/results/:id/chart.png", handlers.Results.HandleGetScoreChart)

	// Export
	apiGroup.GET("/export.csv", handlers.Export.HandleExportCSV)
	apiGroup.POST("/exports", handlers.Export.HandleSaveExport)
	apiGroup.GET("/exports", handlers.Export.HandleListExports)
	apiGroup.GET("/exports/:id", handlers.Export.HandleDownloadExport)

	// Theme
	apiGroup.GET("/theme", handlers.Theme.HandleGetTheme)
	apiGroup.PUT("/theme", handlers.Theme.HandleSetTheme)
	apiGroup.POST("/theme/toggle", handlers.Theme.HandleToggleTheme)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/pipeline", handlers.Pipeline.HandlePipelineStream)
}

// SetupMiddleware installs the structured error handler
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
