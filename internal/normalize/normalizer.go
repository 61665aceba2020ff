// Package normalize merges inference service output with locally known file metadata.
package normalize

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cerebroscan/backend/internal/models"
)

// rawPrediction is one element of the service's JSON response array.
type rawPrediction struct {
	Filename   string             `json:"filename"`
	Prediction string             `json:"prediction"`
	Confidence *float64           `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Heatmap    string             `json:"heatmap,omitempty"` // base64 PNG
	Error      string             `json:"error,omitempty"`
}

// Validation errors returned by Normalize.
var (
	ErrMissingFilename   = errors.New("missing filename")
	ErrMissingPrediction = errors.New("missing prediction")
	ErrMissingConfidence = errors.New("missing confidence")
	ErrConfidenceRange   = errors.New("confidence out of range [0,100]")
	ErrFilenameMismatch  = errors.New("response item does not match submitted file")
	ErrInvalidHeatmap    = errors.New("invalid heatmap")
)

// DecodeError means the response body as a whole could not be used.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode response: %s: %v", e.Reason, e.Err)
	}
	return "decode response: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Normalize converts one raw response item plus its source file into a PredictionResult.
// Size comes from the file and Timestamp is now; everything else is copied through.
func Normalize(raw json.RawMessage, file models.BatchFile, now time.Time) (models.PredictionResult, error) {
	var item rawPrediction
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.PredictionResult{}, fmt.Errorf("invalid item: %w", err)
	}

	if item.Error != "" {
		return models.PredictionResult{}, fmt.Errorf("service reported: %s", item.Error)
	}
	if item.Filename == "" {
		return models.PredictionResult{}, ErrMissingFilename
	}
	if item.Filename != file.Name {
		return models.PredictionResult{}, fmt.Errorf("%w: got %q, expected %q", ErrFilenameMismatch, item.Filename, file.Name)
	}
	if item.Prediction == "" {
		return models.PredictionResult{}, ErrMissingPrediction
	}
	if item.Confidence == nil {
		return models.PredictionResult{}, ErrMissingConfidence
	}
	if *item.Confidence < 0 || *item.Confidence > 100 {
		return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrConfidenceRange, *item.Confidence)
	}

	result := models.PredictionResult{
		ID:         file.ID,
		Filename:   item.Filename,
		Prediction: item.Prediction,
		Confidence: *item.Confidence,
		Scores:     item.Scores,
		Size:       file.Size,
		Timestamp:  now.UTC(),
	}

	if item.Heatmap != "" {
		decoded, err := base64.StdEncoding.DecodeString(item.Heatmap)
		if err != nil {
			return models.PredictionResult{}, fmt.Errorf("%w: %v", ErrInvalidHeatmap, err)
		}
		result.Heatmap = decoded
	}

	return result, nil
}

// Batch normalizes a whole response body against the batch that produced it.
// A body that is not an array, or whose length differs from the batch, is a DecodeError.
// Item-level problems are returned as failures and do not affect the other items.
// The optional onItem callback is invoked after each item, successful or not.
func Batch(body []byte, batch *models.UploadBatch, clock func() time.Time, onItem func(done int)) ([]models.PredictionResult, []models.ItemFailure, error) {
	if clock == nil {
		clock = time.Now
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, nil, &DecodeError{Reason: "body is not a JSON array", Err: err}
	}
	if len(items) != batch.Len() {
		return nil, nil, &DecodeError{
			Reason: fmt.Sprintf("expected %d items, got %d", batch.Len(), len(items)),
		}
	}

	results := make([]models.PredictionResult, 0, len(items))
	var failures []models.ItemFailure

	for i, raw := range items {
		file := batch.Files[i]
		result, err := Normalize(raw, file, clock())
		if err != nil {
			failures = append(failures, models.ItemFailure{
				Index:    i,
				Filename: file.Name,
				Reason:   err.Error(),
			})
		} else {
			result.BatchID = batch.ID
			results = append(results, result)
		}
		if onItem != nil {
			onItem(i + 1)
		}
	}

	return results, failures, nil
}
