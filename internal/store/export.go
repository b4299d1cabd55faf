// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry groups the answers of one paper for one task and source.
type ExportEntry struct {
	PaperID  string   `json:"paper_id" yaml:"paper_id"`
	Task     int      `json:"task" yaml:"task"`
	Source   string   `json:"source" yaml:"source"`
	Question string   `json:"question" yaml:"question"`
	Answers  []string `json:"answers" yaml:"answers"`
}

const exportLimit = 1000000

// ErrFullTextExport is returned when an export is given a full-text query.
var ErrFullTextExport = errors.New("export does not support full-text queries")

// ExportYAML writes the matching answers to dir/index/export.yaml and
// returns the path. Empty options export everything.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, indexDir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the matching answers to dir/index/export.json and
// returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dir, indexDir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

// exportEntries runs a filter-only query and folds consecutive answers of
// the same record into one entry. Records without answers are omitted.
func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	if opts.Query != "" {
		return nil, ErrFullTextExport
	}
	results, err := s.query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := []ExportEntry{}
	for _, a := range results {
		n := len(entries)
		if n > 0 {
			last := &entries[n-1]
			if last.PaperID == a.PaperID && last.Task == a.Task && last.Source == a.Source {
				last.Answers = append(last.Answers, a.Text)
				continue
			}
		}
		entries = append(entries, ExportEntry{
			PaperID:  a.PaperID,
			Task:     a.Task,
			Source:   a.Source,
			Question: a.Question,
			Answers:  []string{a.Text},
		})
	}
	return entries, nil
}
