package presentation

import (
	"fmt"
	"sort"
	"time"

	"github.com/cerebroscan/backend/internal/models"
)

const bytesPerMiB = 1024 * 1024

// Card is the display model for one result.
type Card struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Prediction string `json:"prediction"`
	Confidence string `json:"confidence"` // one decimal, no unit
	Band       string `json:"band"`
	BandColor  string `json:"bandColor,omitempty"`
	SizeMB     string `json:"sizeMb"`
	Timestamp  string `json:"timestamp"`
	Bars       []Bar  `json:"bars,omitempty"`
	HasHeatmap bool   `json:"hasHeatmap"`
}

// Bar is one class label's share of the score breakdown.
type Bar struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"` // as reported
	Width   float64 `json:"width"`   // clamped to [0,100]
}

// BandFor returns the first band whose minimum the confidence reaches.
// Rules must be ordered by descending Min, as ParseRules leaves them.
func BandFor(rules *models.PresentationRules, confidence float64) models.Band {
	for _, b := range rules.Bands {
		if confidence >= b.Min {
			return b
		}
	}
	if n := len(rules.Bands); n > 0 {
		return rules.Bands[n-1]
	}
	return models.Band{Name: BandAlert}
}

// NewCard builds the card view for r.
func NewCard(r models.PredictionResult, rules *models.PresentationRules) Card {
	band := BandFor(rules, r.Confidence)
	return Card{
		ID:         r.ID,
		Filename:   r.Filename,
		Prediction: r.Prediction,
		Confidence: fmt.Sprintf("%.1f", r.Confidence),
		Band:       band.Name,
		BandColor:  band.Color,
		SizeMB:     FormatMiB(r.Size),
		Timestamp:  FormatTimestamp(r.Timestamp),
		Bars:       Bars(r.Scores, rules.Labels),
		HasHeatmap: r.HasHeatmap(),
	}
}

// Cards builds one card per result, in store order.
func Cards(results []models.PredictionResult, rules *models.PresentationRules) []Card {
	cards := make([]Card, 0, len(results))
	for _, r := range results {
		cards = append(cards, NewCard(r, rules))
	}
	return cards
}

// Bars returns one bar per label present in scores, preferred labels first,
// remaining labels alphabetically.
func Bars(scores map[string]float64, preferred []string) []Bar {
	if len(scores) == 0 {
		return nil
	}
	labels := OrderLabels(preferred, [][]string{keys(scores)})
	bars := make([]Bar, 0, len(labels))
	for _, label := range labels {
		v := scores[label]
		bars = append(bars, Bar{Label: label, Percent: v, Width: clamp(v, 0, 100)})
	}
	return bars
}

// OrderLabels merges label sets into one ordering: labels from preferred that occur
// in any set first, then the rest sorted.
func OrderLabels(preferred []string, sets [][]string) []string {
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, l := range set {
			seen[l] = true
		}
	}

	ordered := make([]string, 0, len(seen))
	for _, l := range preferred {
		if seen[l] {
			ordered = append(ordered, l)
			delete(seen, l)
		}
	}
	rest := make([]string, 0, len(seen))
	for l := range seen {
		rest = append(rest, l)
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// FormatMiB renders a byte count in mebibytes with two decimals.
func FormatMiB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/bytesPerMiB)
}

// FormatTimestamp renders t in the local zone, human readable.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("1/2/2006, 3:04:05 PM")
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
