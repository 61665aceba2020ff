package results

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id, name string) models.PredictionResult {
	return models.PredictionResult{
		ID:         id,
		Filename:   name,
		Prediction: "glioma",
		Confidence: 90,
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	s := NewStore()
	s.Append(result("1", "a.png"), result("2", "b.png"))
	s.Append(result("3", "c.png"))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a.png", all[0].Filename)
	assert.Equal(t, "b.png", all[1].Filename)
	assert.Equal(t, "c.png", all[2].Filename)
	assert.Equal(t, 3, s.Count())
}

func TestStore_NoDeduplication(t *testing.T) {
	s := NewStore()
	s.Append(result("1", "a.png"))
	s.Append(result("2", "a.png"))

	assert.Equal(t, 2, s.Count())
}

func TestStore_AllIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Append(result("1", "a.png"), result("2", "b.png"))

	first := s.All()
	second := s.All()
	assert.Equal(t, first, second)
}

func TestStore_AllIsSnapshot(t *testing.T) {
	s := NewStore()
	s.Append(result("1", "a.png"))

	snapshot := s.All()
	snapshot[0].Filename = "mutated.png"
	s.Append(result("2", "b.png"))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "a.png", s.All()[0].Filename)
}

func TestStore_EmptyAppendIsNoop(t *testing.T) {
	s := NewStore()
	s.Append()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
}

func TestStore_Get(t *testing.T) {
	s := NewStore()
	s.Append(result("1", "a.png"), result("2", "b.png"))

	r, ok := s.Get("2")
	require.True(t, ok)
	assert.Equal(t, "b.png", r.Filename)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(result(fmt.Sprintf("id-%d", i), fmt.Sprintf("%d.png", i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Count())
	for i := 0; i < 20; i++ {
		_, ok := s.Get(fmt.Sprintf("id-%d", i))
		assert.True(t, ok)
	}
}
