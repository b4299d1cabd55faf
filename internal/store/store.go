// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes merged answer files in SQLite with an FTS5
// full-text mirror over answer text.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cord-answers/internal/merge"
	"github.com/pdiddy/cord-answers/pkg/types"
)

const (
	indexDir          = "index"
	dbFile            = "answers.db"
	defaultMaxResults = 20
)

// Store manages the answer store SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at dir/index/answers.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			paper_id TEXT NOT NULL,
			task INTEGER NOT NULL,
			source TEXT NOT NULL,
			question TEXT NOT NULL,
			PRIMARY KEY (paper_id, task, source)
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			task INTEGER NOT NULL,
			source TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			FOREIGN KEY (paper_id, task, source) REFERENCES records(paper_id, task, source) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_record ON answers(paper_id, task, source)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_scope ON answers(task, source)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='answers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE answers_fts USING fts5(text, content=answers, content_rowid=rowid)`,
		`CREATE TRIGGER answers_ai AFTER INSERT ON answers BEGIN
			INSERT INTO answers_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER answers_ad AFTER DELETE ON answers BEGIN
			INSERT INTO answers_fts(answers_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER answers_au AFTER UPDATE ON answers BEGIN
			INSERT INTO answers_fts(answers_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO answers_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of merged files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// MergedFiles lists the merged answer files directly under dir, sorted by
// name.
func MergedFiles(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "answers.task.*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing merged files in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Ingest indexes every merged answer file under dir.
func (s *Store) Ingest(ctx context.Context, dir string, w io.Writer) (IngestSummary, error) {
	paths, err := MergedFiles(dir)
	if err != nil {
		return IngestSummary{}, err
	}
	return s.IngestFiles(ctx, paths, w)
}

// IngestFiles indexes the given merged answer files. A file whose mod time
// is unchanged since its last ingest is skipped; a changed file replaces
// every row of its task and source type.
func (s *Store) IngestFiles(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := filepath.Base(path)
		task, source, err := merge.ParseOutputName(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE file = ?`, key,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		recs, err := merge.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		n, err := s.ingestFile(ctx, key, task, source, recs, modTime)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d records)\n", name, n)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d records)\n", name, n)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

// ingestFile replaces the rows of one task and source type with recs and
// returns the number of records stored. Placeholders are not stored.
func (s *Store) ingestFile(ctx context.Context, key string, task int, source string, recs []types.ResultRecord, modTime string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE task = ? AND source = ?`, task, source); err != nil {
		return 0, fmt.Errorf("deleting old answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE task = ? AND source = ?`, task, source); err != nil {
		return 0, fmt.Errorf("deleting old records: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (paper_id, task, source, question) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	ansStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO answers (paper_id, task, source, position, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing answer insert: %w", err)
	}
	defer ansStmt.Close()

	stored := 0
	for _, rec := range recs {
		if rec.PaperID == "" {
			continue
		}
		if _, err := recStmt.ExecContext(ctx, rec.PaperID, task, source, rec.Question); err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", rec.PaperID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM answers WHERE paper_id = ? AND task = ? AND source = ?`,
			rec.PaperID, task, source,
		); err != nil {
			return 0, fmt.Errorf("clearing answers of %s: %w", rec.PaperID, err)
		}
		for i, text := range rec.Answers {
			if _, err := ansStmt.ExecContext(ctx, rec.PaperID, task, source, i, text); err != nil {
				return 0, fmt.Errorf("inserting answer %d of %s: %w", i, rec.PaperID, err)
			}
		}
		stored++
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		key, modTime,
	)
	if err != nil {
		return 0, fmt.Errorf("updating ingest status: %w", err)
	}

	return stored, tx.Commit()
}
