package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite-backed persistence for delivery attempts.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dbPath and creates tables if they don't exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Deliveries finish on many goroutines; one connection keeps sqlite writes serialized.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		task TEXT NOT NULL,
		answer TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS deliveries_created_at ON deliveries (created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record inserts a delivery attempt.
func (s *Store) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO deliveries (id, user_id, category, task, answer, comment, status, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Category, e.Task, e.Answer, e.Comment, e.Status, e.Error, e.DurationMs, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	return nil
}

// Get retrieves a delivery attempt by ID. Returns nil if not found.
func (s *Store) Get(id string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, category, task, answer, comment, status, error, duration_ms, created_at
		 FROM deliveries WHERE id = ?`,
		id,
	)

	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Category, &e.Task, &e.Answer, &e.Comment, &e.Status, &e.Error, &e.DurationMs, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan delivery: %w", err)
	}

	return &e, nil
}

// Recent returns the most recent attempts, newest first.
// When status is non-empty only attempts with that status are returned.
func (s *Store) Recent(limit int, status string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, category, task, answer, comment, status, error, duration_ms, created_at
		 FROM deliveries
		 WHERE ? = '' OR status = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		status, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Task, &e.Answer, &e.Comment, &e.Status, &e.Error, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Summaries returns per-category delivered/failed counts ordered by category.
func (s *Store) Summaries() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT category,
		        COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		 FROM deliveries
		 GROUP BY category
		 ORDER BY category ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Category, &sum.Delivered, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// PruneByAge deletes attempts created before cutoff. If dryRun is true,
// nothing is deleted and the number that would be removed is returned.
func (s *Store) PruneByAge(cutoff time.Time, dryRun bool) (int64, error) {
	cutoff = cutoff.UTC()
	if dryRun {
		var n int64
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM deliveries WHERE created_at < ?`, cutoff).Scan(&n); err != nil {
			return 0, fmt.Errorf("count deliveries: %w", err)
		}
		return n, nil
	}

	res, err := s.db.Exec(`DELETE FROM deliveries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return res.RowsAffected()
}

// PruneKeepRecent deletes all but the keep most recent attempts. If dryRun
// is true, nothing is deleted and the number that would be removed is returned.
func (s *Store) PruneKeepRecent(keep int, dryRun bool) (int64, error) {
	const older = `FROM deliveries WHERE id NOT IN (
		SELECT id FROM deliveries ORDER BY created_at DESC LIMIT ?)`

	if dryRun {
		var n int64
		if err := s.db.QueryRow(`SELECT COUNT(*) `+older, keep).Scan(&n); err != nil {
			return 0, fmt.Errorf("count deliveries: %w", err)
		}
		return n, nil
	}

	res, err := s.db.Exec(`DELETE `+older, keep)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return res.RowsAffected()
}
