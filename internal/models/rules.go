package models

// PresentationRules defines the YAML configuration for confidence banding and class label order.
type PresentationRules struct {
	Bands  []Band   `json:"bands" yaml:"bands"`
	Labels []string `json:"labels" yaml:"labels"` // preferred column/bar order
}

// Band is one confidence tier. Bands are evaluated from the highest Min down.
type Band struct {
	Name  string  `json:"name" yaml:"name"`
	Min   float64 `json:"min" yaml:"min"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
}
