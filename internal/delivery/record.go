// Package delivery forwards completed answers to the external collector.
//
// Submission is fire-and-forget: Submit returns immediately, the POST runs
// on its own goroutine with a bounded timeout, and failures are logged and
// journaled but never retried or surfaced to the user.
package delivery

import (
	"fmt"
	"net/http"
	"time"
)

// Record is one completed answer as the collector receives it.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Task      string    `json:"task"`
	Answer    string    `json:"answer"`
	Code      string    `json:"code"`
	Comment   string    `json:"comment"`
}

// Submitter accepts records for asynchronous delivery.
type Submitter interface {
	Submit(rec Record)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(rec Record)

// Submit calls f(rec).
func (f SubmitterFunc) Submit(rec Record) { f(rec) }

// StatusError is returned when the collector answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector returned %d %s", e.Code, http.StatusText(e.Code))
}
