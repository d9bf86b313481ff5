// Package log provides structured logging.
// This file appends checklist transition events to a JSONL audit trail.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventChecklistStarted   = "checklist_started"
	EventAnswerRecorded     = "answer_recorded"
	EventCommentRequested   = "comment_requested"
	EventChecklistFinished  = "checklist_finished"
	EventChecklistCancelled = "checklist_cancelled"
)

// AuditEvent represents a single transition written to the audit trail.
type AuditEvent struct {
	Time       time.Time `json:"time"`
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	Category   string    `json:"category,omitempty"`
	QuestionID int       `json:"question_id,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	Position   int       `json:"position,omitempty"`
	Total      int       `json:"total,omitempty"`
}

// AuditLog writes append-only JSONL events to a file.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog creates an AuditLog that writes to path.
// Creates the parent directory if it does not already exist.
// Does not truncate an existing log file.
func NewAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}

	return &AuditLog{path: path}, nil
}

// Append writes a single AuditEvent as one JSON line.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
func (l *AuditLog) Append(event AuditEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the audit log.
// Returns an empty slice (not an error) if the file does not exist.
func (l *AuditLog) ReadAll() ([]AuditEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []AuditEvent{}, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse audit line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return events, nil
}

// CategoryStats counts audit events for one category.
type CategoryStats struct {
	Category  string
	Started   int
	Finished  int
	Cancelled int
	Answers   int
}

// Summarize folds events into per-category counts, ordered by first appearance.
func Summarize(events []AuditEvent) []CategoryStats {
	var order []string
	stats := make(map[string]*CategoryStats)
	for _, ev := range events {
		if ev.Category == "" {
			continue
		}
		s, ok := stats[ev.Category]
		if !ok {
			s = &CategoryStats{Category: ev.Category}
			stats[ev.Category] = s
			order = append(order, ev.Category)
		}
		switch ev.Event {
		case EventChecklistStarted:
			s.Started++
		case EventChecklistFinished:
			s.Finished++
		case EventChecklistCancelled:
			s.Cancelled++
		case EventAnswerRecorded:
			s.Answers++
		}
	}

	out := make([]CategoryStats, 0, len(order))
	for _, c := range order {
		out = append(out, *stats[c])
	}
	return out
}
