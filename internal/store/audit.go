package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dotcommander/errfriendly/pkg/friendly"
)

// Failure is one audited uncaught failure.
type Failure struct {
	ID          int64             `json:"id"`
	Category    friendly.Category `json:"category"`
	Message     string            `json:"message"`
	Stack       string            `json:"stack,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// RecordFailure appends a handled failure to the audit log.
func RecordFailure(db *sql.DB, rec friendly.Record, explanation string) (int64, error) {
	var id int64
	err := Transact(db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO failures (category, message, stack, explanation)
			VALUES (?, ?, ?, ?)`,
			string(rec.Category), rec.Message, string(rec.Stack), explanation,
		)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// Sink adapts the audit log to the hook's AuditSink seam.
func Sink(db *sql.DB) friendly.AuditSink {
	return func(rec friendly.Record, explanation string) error {
		_, err := RecordFailure(db, rec, explanation)
		return err
	}
}

// ListFailures returns the most recent failures, newest first. A non-empty
// category narrows the result; limit <= 0 means a default of 50.
func ListFailures(db *sql.DB, category friendly.Category, limit int) ([]Failure, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, category, message, stack, explanation, created_at
		FROM failures`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Failure
	for rows.Next() {
		var f Failure
		var cat, createdAt string
		if err := rows.Scan(&f.ID, &cat, &f.Message, &f.Stack, &f.Explanation, &createdAt); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		f.Category = friendly.Category(cat)
		if t, perr := time.Parse("2006-01-02 15:04:05", createdAt); perr == nil {
			f.CreatedAt = t.UTC()
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountByCategory returns failure counts keyed by category.
func CountByCategory(db *sql.DB) (map[friendly.Category]int64, error) {
	rows, err := db.Query(`SELECT category, COUNT(*) FROM failures GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[friendly.Category]int64)
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[friendly.Category(cat)] = n
	}
	return counts, rows.Err()
}

// PruneFailures deletes audit rows older than retentionDays.
// Returns the number of rows removed.
func PruneFailures(db *sql.DB, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	var pruned int64
	err := Transact(db, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`DELETE FROM failures WHERE created_at < datetime('now', ?)`,
			fmt.Sprintf("-%d days", retentionDays),
		)
		if err != nil {
			return fmt.Errorf("prune failures: %w", err)
		}
		pruned, err = res.RowsAffected()
		return err
	})
	return pruned, err
}
