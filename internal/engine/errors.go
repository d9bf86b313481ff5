package engine

import "fmt"

// LookupError reports an event that referenced an unknown category, or a
// question that is not the current step of the user's traversal.
type LookupError struct {
	Kind string // category, question, choice
	Ref  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Ref)
}

// EmptyInputError reports a blank comment.
type EmptyInputError struct {
	QuestionID int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty comment for question %d", e.QuestionID)
}
