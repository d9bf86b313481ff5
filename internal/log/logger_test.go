package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAppendAndReadAll(t *testing.T) {
	l, err := NewAuditLog(filepath.Join(t.TempDir(), "nested", "audit.jsonl"))
	if err != nil {
		t.Fatalf("NewAuditLog failed: %v", err)
	}

	events := []AuditEvent{
		{Event: EventChecklistStarted, UserID: "1", Category: "A", Total: 2},
		{Event: EventAnswerRecorded, UserID: "1", Category: "A", QuestionID: 1, Answer: "Да"},
	}
	for _, ev := range events {
		if err := l.Append(ev); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll returned %d events, want 2", len(got))
	}
	if got[1].Answer != "Да" || got[1].QuestionID != 1 {
		t.Errorf("second event = %+v", got[1])
	}
	if got[0].Time.IsZero() {
		t.Error("Time should be filled in on append")
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l := &AuditLog{path: filepath.Join(t.TempDir(), "none.jsonl")}
	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestReadAllCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, []byte("{\"event\":\"x\"}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	l := &AuditLog{path: path}
	_, err := l.ReadAll()
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ReadAll() error = %v, want line 2 parse error", err)
	}
}

func TestAppendConcurrent(t *testing.T) {
	l, err := NewAuditLog(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Append(AuditEvent{Event: EventAnswerRecorded, UserID: "u"})
		}()
	}
	wg.Wait()

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 25 {
		t.Errorf("got %d events, want 25", len(got))
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]AuditEvent{
		{Event: EventChecklistStarted, Category: "B"},
		{Event: EventAnswerRecorded, Category: "B"},
		{Event: EventChecklistFinished, Category: "B"},
		{Event: EventChecklistStarted, Category: "A"},
		{Event: EventChecklistCancelled, Category: "A"},
		{Event: EventChecklistCancelled},
	})

	if len(stats) != 2 {
		t.Fatalf("Summarize returned %d rows, want 2", len(stats))
	}
	if stats[0] != (CategoryStats{Category: "B", Started: 1, Finished: 1, Answers: 1}) {
		t.Errorf("B stats = %+v", stats[0])
	}
	if stats[1] != (CategoryStats{Category: "A", Started: 1, Cancelled: 1}) {
		t.Errorf("A stats = %+v", stats[1])
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "text", false},
		{"", "", false},
		{"WARN", "json", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger, err := New(tt.level, tt.format, &buf)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			continue
		}
		if err == nil {
			logger.Error("probe", "k", "v")
			if !strings.Contains(buf.String(), "probe") {
				t.Errorf("New(%q, %q) did not write output", tt.level, tt.format)
			}
		}
	}
}
