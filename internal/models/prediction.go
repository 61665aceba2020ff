// Package models contains domain types for the CerebroScan backend.
package models

import "time"

// PredictionResult is the canonical record for one classified image.
// Size and Timestamp are attached locally and never taken from the service.
type PredictionResult struct {
	ID         string             `json:"id"`
	BatchID    string             `json:"batchId"`
	Filename   string             `json:"filename"`
	Prediction string             `json:"prediction"`
	Confidence float64            `json:"confidence"` // 0-100
	Scores     map[string]float64 `json:"scores,omitempty"`
	Heatmap    []byte             `json:"heatmap,omitempty"` // PNG bytes
	Size       int64              `json:"size"`
	Timestamp  time.Time          `json:"timestamp"`
}

// HasScores reports whether a per-class breakdown is present.
func (r *PredictionResult) HasScores() bool {
	return len(r.Scores) > 0
}

// HasHeatmap reports whether a heatmap image is present.
func (r *PredictionResult) HasHeatmap() bool {
	return len(r.Heatmap) > 0
}

// ItemFailure describes one response item that could not be normalized.
type ItemFailure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// SkippedFile is a source file excluded from a batch before upload.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
