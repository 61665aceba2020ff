// Package results holds the append-only, in-memory log of normalized predictions.
package results

import (
	"sync"

	"github.com/cerebroscan/backend/internal/models"
)

// Store is an ordered, append-only collection of PredictionResult.
// Insertion order is the only ordering; there is no removal or update.
type Store struct {
	mu      sync.RWMutex
	results []models.PredictionResult
	byID    map[string]int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		results: make([]models.PredictionResult, 0),
		byID:    make(map[string]int),
	}
}

// Append concatenates results to the end of the store.
func (s *Store) Append(results ...models.PredictionResult) {
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		if r.ID != "" {
			s.byID[r.ID] = len(s.results)
		}
		s.results = append(s.results, r)
	}
}

// All returns a snapshot copy of every result in insertion order.
func (s *Store) All() []models.PredictionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PredictionResult, len(s.results))
	copy(out, s.results)
	return out
}

// Count returns the number of stored results.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Get retrieves a result by its id.
func (s *Store) Get(id string) (models.PredictionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return models.PredictionResult{}, false
	}
	return s.results[idx], true
}
