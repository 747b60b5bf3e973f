package scale

import (
	"sync"

	"github.com/shopspring/decimal"
)

const defaultEventLogSize = 50

// Monitor is the shared view of a scale: the reader goroutine writes to it,
// HTTP handlers read from it.
type Monitor struct {
	mu         sync.RWMutex
	latest     *Reading
	lastStable *Reading
	events     []Reading
	maxEvents  int
}

// NewMonitor creates a monitor that keeps the last maxEvents readings.
func NewMonitor(maxEvents int) *Monitor {
	if maxEvents <= 0 {
		maxEvents = defaultEventLogSize
	}
	return &Monitor{maxEvents: maxEvents}
}

// Record stores a reading. It is the Reader callback.
func (m *Monitor) Record(r Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest = &r
	if r.Status == StatusStable {
		m.lastStable = &r
	}

	m.events = append(m.events, r)
	if over := len(m.events) - m.maxEvents; over > 0 {
		m.events = append(m.events[:0:0], m.events[over:]...)
	}
}

// Latest returns the most recent reading, if any.
func (m *Monitor) Latest() (Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return Reading{}, false
	}
	return *m.latest, true
}

// LastStable returns the most recent stable reading, if any.
func (m *Monitor) LastStable() (Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastStable == nil {
		return Reading{}, false
	}
	return *m.lastStable, true
}

// LastStableWeight mirrors Parser.LastStableWeight for other goroutines.
func (m *Monitor) LastStableWeight() decimal.Decimal {
	r, ok := m.LastStable()
	if !ok || r.Weight == nil {
		return decimal.Zero
	}
	return *r.Weight
}

// Events returns the buffered readings, newest first.
func (m *Monitor) Events() []Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Reading, len(m.events))
	for i, r := range m.events {
		out[len(m.events)-1-i] = r
	}
	return out
}

// Reset forgets everything, e.g. after switching to another device.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = nil
	m.lastStable = nil
	m.events = nil
}
