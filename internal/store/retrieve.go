// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a query has no search terms or filters.
var ErrEmptyQuery = errors.New("query has no search terms or filters")

// QueryOptions holds parameters for answer store queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Task filters by task number when non-nil.
	Task *int

	// Source filters by source type.
	Source string

	// PaperID filters by paper.
	PaperID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// TaskFilter returns a task filter for QueryOptions.Task.
func TaskFilter(n int) *int { return &n }

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Task == nil && q.Source == "" && q.PaperID == ""
}

// Answer is one stored answer with the question it answers.
type Answer struct {
	PaperID  string `json:"paper_id" yaml:"paper_id"`
	Task     int    `json:"task" yaml:"task"`
	Source   string `json:"source" yaml:"source"`
	Question string `json:"question" yaml:"question"`
	Position int    `json:"position" yaml:"position"`
	Text     string `json:"text" yaml:"text"`
}

// Query searches stored answers. Full-text queries are ranked by
// relevance; filter-only queries are sorted by task, source, paper, and
// answer position.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Answer, error) {
	if opts.IsEmpty() {
		return nil, ErrEmptyQuery
	}
	return s.query(ctx, opts)
}

func (s *Store) query(ctx context.Context, opts QueryOptions) ([]Answer, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT a.paper_id, a.task, a.source, r.question, a.position, a.text
			FROM answers_fts
			JOIN answers a ON a.rowid = answers_fts.rowid
			JOIN records r ON r.paper_id = a.paper_id AND r.task = a.task AND r.source = a.source
			WHERE answers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT a.paper_id, a.task, a.source, r.question, a.position, a.text
			FROM answers a
			JOIN records r ON r.paper_id = a.paper_id AND r.task = a.task AND r.source = a.source
			WHERE 1=1`)
	}

	if opts.Task != nil {
		qb.WriteString(` AND a.task = ?`)
		args = append(args, *opts.Task)
	}
	if opts.Source != "" {
		qb.WriteString(` AND a.source = ?`)
		args = append(args, opts.Source)
	}
	if opts.PaperID != "" {
		qb.WriteString(` AND a.paper_id = ?`)
		args = append(args, opts.PaperID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY answers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY a.task, a.source, a.paper_id, a.position`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying answer store: %w", err)
	}
	defer rows.Close()

	var results []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.PaperID, &a.Task, &a.Source, &a.Question, &a.Position, &a.Text); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
