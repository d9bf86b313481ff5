package catalog

import (
	"errors"
	"fmt"
)

// Load error kinds. Match them with errors.Is.
var (
	ErrSourceMissing = errors.New("catalog source missing")
	ErrMalformedJSON = errors.New("catalog source is not valid JSON")
	ErrInvalidShape  = errors.New("catalog source is not a list of question records")
)

// LoadError reports why a catalog could not be loaded.
type LoadError struct {
	Kind error
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
