// Package journal provides SQLite-backed persistence of delivery attempts.
package journal

import "time"

// Delivery status values.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Entry is one attempt to forward an answer to the collector.
type Entry struct {
	ID         string
	UserID     string
	Category   string
	Task       string
	Answer     string
	Comment    string
	Status     string // delivered, failed
	Error      string
	DurationMs int64
	CreatedAt  time.Time
}

// Summary aggregates attempts for one category.
type Summary struct {
	Category  string
	Delivered int
	Failed    int
}
