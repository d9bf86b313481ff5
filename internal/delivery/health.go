package delivery

import "sync"

// Health tracks consecutive collector failures. It only reports; it never
// stops submissions.
type Health struct {
	mu                  sync.Mutex
	consecutiveFailures int
	threshold           int
}

// NewHealth creates a tracker that reports degraded after threshold failures in a row.
func NewHealth(threshold int) *Health {
	if threshold <= 0 {
		threshold = 5 // default
	}
	return &Health{threshold: threshold}
}

// RecordFailure increments the failure counter.
func (h *Health) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures++
}

// RecordSuccess resets the failure counter.
func (h *Health) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures = 0
}

// Degraded returns true once the threshold is reached.
func (h *Health) Degraded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveFailures >= h.threshold
}

// ConsecutiveFailures returns the current failure count.
func (h *Health) ConsecutiveFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveFailures
}
