package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)

	e := Entry{
		ID:         "d-1",
		UserID:     "42",
		Category:   "Backend",
		Task:       "Errors are wrapped",
		Answer:     "Нет",
		Comment:    "missing null check",
		Status:     StatusFailed,
		Error:      "collector returned 500",
		DurationMs: 12,
	}
	if err := s.Record(e); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := s.Get("d-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for recorded entry")
	}
	if got.Comment != e.Comment || got.Status != StatusFailed || got.Error != e.Error || got.DurationMs != 12 {
		t.Errorf("Get() = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}

	missing, err := s.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("Get(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestRecentOrderingAndFilter(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ID: "a", Category: "Api", Status: StatusDelivered, CreatedAt: base},
		{ID: "b", Category: "Api", Status: StatusFailed, CreatedAt: base.Add(time.Minute)},
		{ID: "c", Category: "Backend", Status: StatusDelivered, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.Record(e); err != nil {
			t.Fatalf("Record(%s) failed: %v", e.ID, err)
		}
	}

	all, err := s.Recent(10, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("Recent(10) ids = %v, want [c b a]", ids(all))
	}

	limited, _ := s.Recent(1, "")
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Errorf("Recent(1) ids = %v, want [c]", ids(limited))
	}

	failed, _ := s.Recent(10, StatusFailed)
	if len(failed) != 1 || failed[0].ID != "b" {
		t.Errorf("Recent(failed) ids = %v, want [b]", ids(failed))
	}
}

func TestSummaries(t *testing.T) {
	s := openTestStore(t)
	for i, e := range []Entry{
		{Category: "Backend", Status: StatusDelivered},
		{Category: "Backend", Status: StatusFailed},
		{Category: "Backend", Status: StatusDelivered},
		{Category: "Api", Status: StatusFailed},
	} {
		e.ID = string(rune('a' + i))
		if err := s.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	sums, err := s.Summaries()
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	want := []Summary{
		{Category: "Api", Delivered: 0, Failed: 1},
		{Category: "Backend", Delivered: 2, Failed: 1},
	}
	if len(sums) != len(want) {
		t.Fatalf("Summaries() = %+v, want %+v", sums, want)
	}
	for i := range want {
		if sums[i] != want[i] {
			t.Errorf("Summaries()[%d] = %+v, want %+v", i, sums[i], want[i])
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Record(Entry{ID: "x", Status: StatusDelivered}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()
	if got, _ := s2.Get("x"); got == nil {
		t.Error("entry lost across reopen")
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestPruneByAge(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old-1", "old-2", "new-1"} {
		e := Entry{ID: id, UserID: "1", Category: "A", Task: "T", Answer: "Да", Status: StatusDelivered,
			CreatedAt: base.AddDate(0, 0, i*10)}
		if err := s.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	cutoff := base.AddDate(0, 0, 15)

	n, err := s.PruneByAge(cutoff, true)
	if err != nil {
		t.Fatalf("PruneByAge dry run failed: %v", err)
	}
	if n != 2 {
		t.Errorf("dry run: got %d, want 2", n)
	}
	if all, _ := s.Recent(10, ""); len(all) != 3 {
		t.Fatalf("dry run deleted entries: %d left", len(all))
	}

	n, err = s.PruneByAge(cutoff, false)
	if err != nil {
		t.Fatalf("PruneByAge failed: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned: got %d, want 2", n)
	}
	all, _ := s.Recent(10, "")
	if got := ids(all); len(got) != 1 || got[0] != "new-1" {
		t.Errorf("remaining: got %v, want [new-1]", got)
	}
}

func TestPruneKeepRecent(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := Entry{ID: string(rune('a' + i)), UserID: "1", Category: "A", Task: "T", Answer: "Да",
			Status: StatusDelivered, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	n, err := s.PruneKeepRecent(2, false)
	if err != nil {
		t.Fatalf("PruneKeepRecent failed: %v", err)
	}
	if n != 3 {
		t.Errorf("pruned: got %d, want 3", n)
	}
	all, _ := s.Recent(10, "")
	if got := ids(all); len(got) != 2 || got[0] != "e" || got[1] != "d" {
		t.Errorf("remaining: got %v, want [e d]", got)
	}
}
