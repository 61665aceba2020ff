// Package presentation derives read-only views (cards, bars, charts) from stored results.
package presentation

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cerebroscan/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Band names used by the default rules.
const (
	BandGood    = "good"
	BandCaution = "caution"
	BandAlert   = "alert"
)

// DefaultRules returns the three-tier banding and the classifier's label order.
func DefaultRules() *models.PresentationRules {
	return &models.PresentationRules{
		Bands: []models.Band{
			{Name: BandGood, Min: 90, Color: "#16A34A"},
			{Name: BandCaution, Min: 80, Color: "#CA8A04"},
			{Name: BandAlert, Min: 0, Color: "#DC2626"},
		},
		Labels: []string{"glioma", "meningioma", "notumor", "pituitary"},
	}
}

// LoadRules parses a YAML rules file. A missing path yields the defaults.
func LoadRules(path string) (*models.PresentationRules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, err
	}
	defer file.Close()

	return ParseRules(file)
}

// ParseRules parses rules from an io.Reader. Omitted sections fall back to the defaults.
func ParseRules(r io.Reader) (*models.PresentationRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules models.PresentationRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing presentation rules: %w", err)
	}

	defaults := DefaultRules()
	if len(rules.Bands) == 0 {
		rules.Bands = defaults.Bands
	}
	if len(rules.Labels) == 0 {
		rules.Labels = defaults.Labels
	}

	sort.SliceStable(rules.Bands, func(i, j int) bool {
		return rules.Bands[i].Min > rules.Bands[j].Min
	})

	return &rules, nil
}
