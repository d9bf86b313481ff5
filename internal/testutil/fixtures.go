// Package testutil provides test helper utilities for auditbot tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempFile writes content to name inside a fresh temporary directory and
// returns the full path. The directory is removed when the test finishes.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}

	return path
}

// QuestionsJSON returns a small questions.json with two categories.
// "Backend" holds ids 1 and 2 in that order; "Api" holds id 3.
func QuestionsJSON() string {
	return `[
  {"id": 1, "category": "Backend", "task": "Errors are wrapped", "code": "fmt.Errorf(\"x: %w\", err)"},
  {"id": 2, "category": "Backend", "task": "Context is propagated"},
  {"id": 3, "category": "Api", "task": "Handlers validate input", "code": ""}
]`
}

// TempCatalog writes QuestionsJSON to a temporary questions.json.
func TempCatalog(t *testing.T) string {
	t.Helper()
	return TempFile(t, "questions.json", QuestionsJSON())
}
