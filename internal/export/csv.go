// Package export serializes the result store to CSV and keeps saved exports on disk.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
)

// BaseColumns are always present, in this order.
var BaseColumns = []string{"Filename", "Prediction", "Confidence (%)", "Size (MB)", "Timestamp"}

// FileName returns the download name for an export made on date.
func FileName(date time.Time) string {
	return fmt.Sprintf("brain_tumor_predictions_%s.csv", date.Format("2006-01-02"))
}

// ScoreLabels returns the class-label columns for results: every label that appears
// in any record, preferred labels first.
func ScoreLabels(results []models.PredictionResult, preferred []string) []string {
	sets := make([][]string, 0, len(results))
	for _, r := range results {
		set := make([]string, 0, len(r.Scores))
		for label := range r.Scores {
			set = append(set, label)
		}
		sets = append(sets, set)
	}
	return presentation.OrderLabels(preferred, sets)
}

// WriteCSV writes a header row and one row per result. An empty result set
// produces the header row only. Missing scores leave their cells empty.
func WriteCSV(w io.Writer, results []models.PredictionResult, preferred []string) error {
	labels := ScoreLabels(results, preferred)

	cw := csv.NewWriter(w)
	header := append(append([]string{}, BaseColumns...), labels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Filename,
			r.Prediction,
			strconv.FormatFloat(r.Confidence, 'f', 1, 64),
			presentation.FormatMiB(r.Size),
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		for _, label := range labels {
			if v, ok := r.Scores[label]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
