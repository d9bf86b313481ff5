// Package catalog loads the immutable question list that checklists are built from.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Question is a single checklist item. Questions are immutable after load.
type Question struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Task     string `json:"task"`
	Code     string `json:"code,omitempty"`
}

// Catalog is the read-only question set shared by all sessions.
type Catalog struct {
	questions  []Question
	byID       map[int]Question
	categories []string
}

// record mirrors one entry of the source file. Pointers let validation tell
// a missing field apart from a zero value.
type record struct {
	ID       *int    `json:"id" validate:"required"`
	Category *string `json:"category" validate:"required,min=1"`
	Task     *string `json:"task" validate:"required"`
	Code     *string `json:"code"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: ErrSourceMissing, Path: path, Err: err}
	}

	c, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse builds a Catalog from the raw JSON source.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Kind: ErrMalformedJSON, Err: err}
	}
	if _, ok := raw.([]any); !ok {
		return nil, &LoadError{Kind: ErrInvalidShape, Err: errors.New("top-level value is not a list")}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &LoadError{Kind: ErrInvalidShape, Err: err}
	}

	questions := make([]Question, 0, len(records))
	for i, msg := range records {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, &LoadError{Kind: ErrInvalidShape, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		if err := validate.Struct(rec); err != nil {
			return nil, &LoadError{Kind: ErrInvalidShape, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		q := Question{ID: *rec.ID, Category: *rec.Category, Task: *rec.Task}
		if rec.Code != nil {
			q.Code = *rec.Code
		}
		questions = append(questions, q)
	}

	return New(questions)
}

// New builds a Catalog from questions already in memory. Source order is kept.
func New(questions []Question) (*Catalog, error) {
	c := &Catalog{
		questions: make([]Question, len(questions)),
		byID:      make(map[int]Question, len(questions)),
	}
	copy(c.questions, questions)

	seen := make(map[string]bool)
	for _, q := range c.questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, &LoadError{Kind: ErrInvalidShape, Err: fmt.Errorf("duplicate question id %d", q.ID)}
		}
		c.byID[q.ID] = q
		if !seen[q.Category] {
			seen[q.Category] = true
			c.categories = append(c.categories, q.Category)
		}
	}
	sort.Strings(c.categories)

	return c, nil
}

// Categories returns the distinct categories in lexicographic order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// QuestionsInCategory returns the category's questions in source order.
// Unknown categories yield an empty slice.
func (c *Catalog) QuestionsInCategory(category string) []Question {
	var out []Question
	for _, q := range c.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

// QuestionByID looks up a question by its identity.
func (c *Catalog) QuestionByID(id int) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}
