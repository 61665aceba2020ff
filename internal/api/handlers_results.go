// handlers_results.go - Result store read handlers
package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// ResultsHandlerImpl implements the ResultsHandler interface
type ResultsHandlerImpl struct {
	store ResultReader
	rules *models.PresentationRules
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(store ResultReader, rules *models.PresentationRules) ResultsHandler {
	return &ResultsHandlerImpl{
		store: store,
		rules: rules,
	}
}

// HandleListResults returns every stored result in append order with its card view.
func (h *ResultsHandlerImpl) HandleListResults(c echo.Context) error {
	results := h.store.All()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"cards":   presentation.Cards(results, h.rules),
		"count":   len(results),
	})
}

// HandleListResultsMsgpack returns the same results encoded as msgpack.
func (h *ResultsHandlerImpl) HandleListResultsMsgpack(c echo.Context) error {
	results := h.store.All()

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	err := enc.Encode(map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

// HandleGetResult returns one result and its card.
func (h *ResultsHandlerImpl) HandleGetResult(c echo.Context) error {
	r, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"result": r,
		"card":   presentation.NewCard(r, h.rules),
	})
}

// HandleGetHeatmap serves the heatmap image supplied by the inference service.
func (h *ResultsHandlerImpl) HandleGetHeatmap(c echo.Context) error {
	r, err := h.lookup(c)
	if err != nil {
		return err
	}
	if !r.HasHeatmap() {
		return NewNotFoundError("heatmap", r.ID)
	}
	return c.Blob(http.StatusOK, "image/png", r.Heatmap)
}

// HandleGetScoreChart renders the per-class score breakdown as a PNG bar chart.
func (h *ResultsHandlerImpl) HandleGetScoreChart(c echo.Context) error {
	r, err := h.lookup(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := presentation.RenderScoreChart(&buf, r, h.rules); err != nil {
		if errors.Is(err, presentation.ErrNoScores) {
			return NewNotFoundError("scores", r.ID)
		}
		return NewInternalError("failed to render chart", err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (h *ResultsHandlerImpl) lookup(c echo.Context) (models.PredictionResult, error) {
	id := c.Param("id")
	if id == "" {
		return models.PredictionResult{}, NewValidationError("id")
	}
	r, ok := h.store.Get(id)
	if !ok {
		return models.PredictionResult{}, NewNotFoundError("result", id)
	}
	return r, nil
}
