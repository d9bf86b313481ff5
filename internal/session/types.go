// Package session keeps per-user checklist state in memory.
package session

import "github.com/andrey78787878/audit/internal/catalog"

// Traversal is a walk through one category's questions.
// Index is always within [0, len(Questions)).
type Traversal struct {
	Category  string
	Questions []catalog.Question
	Index     int
}

// Current returns the question at the cursor.
func (t *Traversal) Current() catalog.Question {
	return t.Questions[t.Index]
}

// Pending is a negative or partial answer waiting for its comment.
type Pending struct {
	Question catalog.Question
	Answer   string
	UserID   string
}

// Session is one user's state. A nil Traversal means the user is idle.
type Session struct {
	Traversal *Traversal
	Pending   *Pending
}

// State names the position of a session in the checklist flow.
type State string

const (
	StateIdle            State = "idle"
	StateBrowsing        State = "browsing"
	StateAwaitingComment State = "awaiting_comment"
)

// State derives the flow state from the stored fields.
func (s Session) State() State {
	switch {
	case s.Pending != nil:
		return StateAwaitingComment
	case s.Traversal != nil:
		return StateBrowsing
	default:
		return StateIdle
	}
}

// Step is the outcome kind of AdvanceOrFinish.
type Step int

const (
	// StepNone means there was no traversal to advance.
	StepNone Step = iota
	// StepQuestion means the cursor moved to another question.
	StepQuestion
	// StepFinished means the last question was resolved and the traversal cleared.
	StepFinished
)

// Decision tells the caller what to show after advancing.
type Decision struct {
	Step     Step
	Category string
	Question catalog.Question
	Position int // 1-based position of Question
	Total    int
}

// clone returns a copy that shares no mutable state with s.
func (s Session) clone() Session {
	var out Session
	if s.Traversal != nil {
		t := *s.Traversal
		out.Traversal = &t
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}
