package presentation

import (
	"strings"
	"testing"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		confidence float64
		want       string
	}{
		{100, BandGood},
		{92.3, BandGood},
		{90, BandGood},
		{89.99, BandCaution},
		{80, BandCaution},
		{79.9, BandAlert},
		{76.5, BandAlert},
		{0, BandAlert},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(rules, tt.confidence).Name, "confidence %v", tt.confidence)
	}
}

func TestNewCard(t *testing.T) {
	r := models.PredictionResult{
		ID:         "id-1",
		Filename:   "a.png",
		Prediction: "glioma",
		Confidence: 92.34,
		Size:       2097152,
		Timestamp:  time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Scores:     map[string]float64{"notumor": 2.5, "glioma": 92.34, "extra": 130},
		Heatmap:    []byte{1},
	}

	card := NewCard(r, DefaultRules())
	assert.Equal(t, "a.png", card.Filename)
	assert.Equal(t, "92.3", card.Confidence)
	assert.Equal(t, BandGood, card.Band)
	assert.Equal(t, "2.00", card.SizeMB)
	assert.NotEmpty(t, card.Timestamp)
	assert.True(t, card.HasHeatmap)

	require.Len(t, card.Bars, 3)
	assert.Equal(t, "glioma", card.Bars[0].Label)
	assert.Equal(t, "notumor", card.Bars[1].Label)
	assert.Equal(t, "extra", card.Bars[2].Label)
	assert.Equal(t, 130.0, card.Bars[2].Percent)
	assert.Equal(t, 100.0, card.Bars[2].Width)
}

func TestCards_TwoFileScenario(t *testing.T) {
	results := []models.PredictionResult{
		{Filename: "a.png", Prediction: "glioma", Confidence: 92.3, Size: 2097152},
		{Filename: "b.png", Prediction: "notumor", Confidence: 76.5, Size: 1048576},
	}

	cards := Cards(results, DefaultRules())
	require.Len(t, cards, 2)
	assert.Equal(t, BandGood, cards[0].Band)
	assert.Equal(t, BandAlert, cards[1].Band)
	assert.Equal(t, "1.00", cards[1].SizeMB)
	assert.Nil(t, cards[1].Bars)
	assert.False(t, cards[1].HasHeatmap)
}

func TestBars_Clamped(t *testing.T) {
	bars := Bars(map[string]float64{"glioma": -5}, nil)
	require.Len(t, bars, 1)
	assert.Equal(t, 0.0, bars[0].Width)
}

func TestOrderLabels(t *testing.T) {
	got := OrderLabels([]string{"glioma", "meningioma", "notumor"}, [][]string{
		{"notumor", "zeta"},
		{"alpha", "glioma"},
	})
	assert.Equal(t, []string{"glioma", "notumor", "alpha", "zeta"}, got)
}

func TestParseRules(t *testing.T) {
	content := `
bands:
  - name: alert
    min: 0
    color: "#FF0000"
  - name: good
    min: 95
    color: "#00FF00"
labels: [pituitary, glioma]
`
	rules, err := ParseRules(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, rules.Bands, 2)
	assert.Equal(t, "good", rules.Bands[0].Name, "bands are sorted by descending minimum")
	assert.Equal(t, "alert", BandFor(rules, 94).Name)
	assert.Equal(t, []string{"pituitary", "glioma"}, rules.Labels)
}

func TestParseRules_DefaultsForMissingSections(t *testing.T) {
	rules, err := ParseRules(strings.NewReader("labels: [a]\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules().Bands, rules.Bands)
	assert.Equal(t, []string{"a"}, rules.Labels)
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules(strings.NewReader("bands: [: broken"))
	assert.Error(t, err)
}

func TestLoadRules_MissingFile(t *testing.T) {
	rules, err := LoadRules(t.TempDir() + "/nope.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestTheme(t *testing.T) {
	theme := NewTheme(false)
	assert.False(t, theme.Dark())
	assert.Equal(t, "light", theme.Name())

	assert.True(t, theme.Toggle())
	assert.Equal(t, "dark", theme.Name())

	theme.Set(false)
	assert.False(t, theme.Dark())
}
