package provider

import (
	"sync"
	"time"
)

// Interaction is one recorded provider attempt: the exact request payload
// sent (preserved for replay) and either the raw response text or the error
// detail. Advisory only; no retention across process restarts.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Request   string    `json:"request"`
	Response  string    `json:"response,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// The recorder is a process-wide singleton with last-writer-wins semantics.
// At most one run is in flight at a time, so the lock only guards against
// a reader polling the diagnostics endpoint mid-write.
var recorder struct {
	mu   sync.RWMutex
	last *Interaction
}

// RecordInteraction overwrites the stored interaction.
func RecordInteraction(rec Interaction) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.last = &rec
}

// LastInteraction returns the most recent interaction, or false when no
// provider call has been attempted since the process started.
func LastInteraction() (Interaction, bool) {
	recorder.mu.RLock()
	defer recorder.mu.RUnlock()
	if recorder.last == nil {
		return Interaction{}, false
	}
	return *recorder.last, true
}
