package presentation

import (
	"errors"
	"io"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoScores is returned when a result carries no per-class breakdown.
var ErrNoScores = errors.New("result has no scores")

// RenderScoreChart writes a PNG bar chart of r's per-class scores on a 0-100 axis.
func RenderScoreChart(w io.Writer, r models.PredictionResult, rules *models.PresentationRules) error {
	bars := Bars(r.Scores, rules.Labels)
	if len(bars) == 0 {
		return ErrNoScores
	}

	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		style := chart.Style{
			FillColor:   drawing.ColorFromHex("4682B4"),
			StrokeColor: drawing.ColorFromHex("4682B4"),
		}
		if b.Label == r.Prediction {
			color := drawing.ColorFromHex(trimHash(BandFor(rules, r.Confidence).Color))
			style.FillColor = color
			style.StrokeColor = color
		}
		values = append(values, chart.Value{Label: b.Label, Value: b.Width, Style: style})
	}

	graph := chart.BarChart{
		Title:      "Prediction Confidence",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      600,
		Height:     300,
		BarWidth:   60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: values,
	}
	return graph.Render(chart.PNG, w)
}

func trimHash(hex string) string {
	if hex == "" {
		return "4682B4"
	}
	if hex[0] == '#' {
		return hex[1:]
	}
	return hex
}
