package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestWriteCSV_EmptyStoreIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, presentation.DefaultRules().Labels))
	assert.Equal(t, "Filename,Prediction,Confidence (%),Size (MB),Timestamp\n", buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	results := []models.PredictionResult{
		{Filename: "a.png", Prediction: "glioma", Confidence: 92.3, Size: 2097152, Timestamp: ts},
		{Filename: "b, with comma.png", Prediction: "notumor", Confidence: 76.54, Size: 1048576, Timestamp: ts},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, BaseColumns, rows[0])

	for i, r := range results {
		row := rows[i+1]
		assert.Equal(t, r.Filename, row[0])
		assert.Equal(t, r.Prediction, row[1])
		conf, err := strconv.ParseFloat(row[2], 64)
		require.NoError(t, err)
		assert.InDelta(t, r.Confidence, conf, 0.05)
	}
	assert.Equal(t, "2.00", rows[1][3])
	assert.Equal(t, "2025-03-14T09:26:53Z", rows[1][4])
	assert.Equal(t, "76.5", rows[2][2])
}

func TestWriteCSV_ScoreColumns(t *testing.T) {
	results := []models.PredictionResult{
		{Filename: "no-scores.png", Prediction: "glioma", Confidence: 90, Timestamp: ts},
		{Filename: "scores.png", Prediction: "notumor", Confidence: 80, Timestamp: ts,
			Scores: map[string]float64{"notumor": 80, "glioma": 15.12345, "custom": 4.87655}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results, presentation.DefaultRules().Labels))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, BaseColumns...), "glioma", "notumor", "custom"), rows[0])
	assert.Equal(t, []string{"", "", ""}, rows[1][5:])
	assert.Equal(t, []string{"15.1235", "80.0000", "4.8766"}, rows[2][5:])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "brain_tumor_predictions_2025-03-14.csv", FileName(ts))
}
