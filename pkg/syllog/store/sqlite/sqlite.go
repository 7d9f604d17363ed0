package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/store"
)

// sqliteJournal implements store.Journal using SQLite
type sqliteJournal struct {
	db *sql.DB
}

// OpenJournal opens a SQLite journal with WAL mode enabled.
func OpenJournal(ctx context.Context, path string) (store.Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteJournal{db: db}, nil
}

// Close closes the database connection
func (j *sqliteJournal) Close() error {
	return j.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	at INTEGER NOT NULL,
	query TEXT NOT NULL,
	exhausted INTEGER NOT NULL DEFAULT 0,
	refuted INTEGER NOT NULL DEFAULT 0,
	duration_ns INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS entries_at ON entries(at);

CREATE TABLE IF NOT EXISTS entry_answers (
	entry_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	answer TEXT NOT NULL,
	PRIMARY KEY(entry_id, seq),
	FOREIGN KEY(entry_id) REFERENCES entries(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Record inserts an entry and its answers in one transaction
func (j *sqliteJournal) Record(ctx context.Context, e store.Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if e.ID == (ulid.ULID{}) {
		e.ID = store.NewID(e.At)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO entries (id, at, query, exhausted, refuted, duration_ns)
VALUES (?, ?, ?, ?, ?, ?);
`,
		e.ID.String(),
		e.At.UTC().UnixNano(),
		e.Query,
		e.Exhausted,
		e.Refuted,
		int64(e.Duration),
	)
	if err != nil {
		return err
	}

	if len(e.Answers) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO entry_answers (entry_id, seq, answer) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, ans := range e.Answers {
			if _, err := stmt.ExecContext(ctx, e.ID.String(), i, ans); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Entries returns the newest entries first
func (j *sqliteJournal) Entries(ctx context.Context, limit int) ([]store.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, at, query, exhausted, refuted, duration_ns
FROM entries
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Entry
	for rows.Next() {
		var (
			id      string
			at, dur int64
			e       store.Entry
		)
		if err := rows.Scan(&id, &at, &e.Query, &e.Exhausted, &e.Refuted, &dur); err != nil {
			return nil, err
		}
		e.ID, err = ulid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", id, err)
		}
		e.At = time.Unix(0, at).UTC()
		e.Duration = time.Duration(dur)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		answers, err := j.loadAnswers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Answers = answers
	}
	return out, nil
}

func (j *sqliteJournal) loadAnswers(ctx context.Context, id ulid.ULID) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT answer FROM entry_answers WHERE entry_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ans string
		if err := rows.Scan(&ans); err != nil {
			return nil, err
		}
		out = append(out, ans)
	}
	return out, rows.Err()
}

// Prune deletes entries recorded before the cutoff, answers included
func (j *sqliteJournal) Prune(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().UnixNano()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so the cascade is not relied on
	if _, err := tx.ExecContext(ctx, `
DELETE FROM entry_answers
WHERE entry_id IN (SELECT id FROM entries WHERE at < ?);
`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}
