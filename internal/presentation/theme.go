package presentation

import "sync"

// Theme holds the light/dark preference. It is injected where needed and not persisted.
type Theme struct {
	mu   sync.RWMutex
	dark bool
}

// NewTheme creates a theme with the given initial mode.
func NewTheme(dark bool) *Theme {
	return &Theme{dark: dark}
}

// Dark reports whether dark mode is active.
func (t *Theme) Dark() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dark
}

// Set switches to the given mode.
func (t *Theme) Set(dark bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dark = dark
}

// Toggle flips the mode and returns the new value.
func (t *Theme) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dark = !t.dark
	return t.dark
}

// Name returns "dark" or "light".
func (t *Theme) Name() string {
	if t.Dark() {
		return "dark"
	}
	return "light"
}
