// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cord-answers/pkg/types"
)

// ErrMissingField is returned when a paper record lacks a required field.
var ErrMissingField = errors.New("missing required field")

// BatchResult holds the outcome of an answer-writing run.
type BatchResult struct {
	Written int
	Failed  int
}

// Total returns the number of papers processed.
func (r BatchResult) Total() int {
	return r.Written + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Writer applies a Selector to every paper of a manifest and writes one
// result record per paper under OutputDir, mirroring each paper's path
// relative to InputDir.
type Writer struct {
	Selector  Selector
	InputDir  string
	OutputDir string
}

// WriteAnswers processes the manifest in order. A paper that cannot be
// loaded or written is reported to w and skipped. The returned error is
// non-nil only when the task is unknown or ctx is cancelled.
func (wr Writer) WriteAnswers(ctx context.Context, manifest types.Manifest, task int, w io.Writer) (BatchResult, error) {
	var result BatchResult
	if _, err := wr.Selector.Table.Task(task); err != nil {
		return result, err
	}

	for _, path := range manifest.Paper {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		paperID, n, err := wr.writeOne(path, task)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "answered %s (%d answers)\n", paperID, n)
		result.Written++
	}

	fmt.Fprintf(w, "\nwritten: %d, failed: %d\n", result.Written, result.Failed)
	return result, nil
}

func (wr Writer) writeOne(path string, task int) (string, int, error) {
	paper, err := LoadPaper(path)
	if err != nil {
		return "", 0, err
	}

	paperID := PaperID(path)
	answers, err := wr.Selector.Select(paper, task)
	if err != nil {
		return paperID, 0, err
	}
	rec, err := wr.Selector.Record(paperID, task, answers)
	if err != nil {
		return paperID, 0, err
	}

	out := OutputPath(wr.InputDir, wr.OutputDir, path)
	if err := WriteRecord(out, rec); err != nil {
		return paperID, 0, err
	}
	return paperID, len(answers), nil
}

// LoadPaper reads a paper record and checks that paper_id, abstract, and
// body_text are present.
func LoadPaper(path string) (*types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading paper: %w", err)
	}

	var raw struct {
		PaperID  *string            `json:"paper_id"`
		Abstract *[]types.Paragraph `json:"abstract"`
		BodyText *[]types.Paragraph `json:"body_text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing paper: %w", err)
	}
	switch {
	case raw.PaperID == nil:
		return nil, fmt.Errorf("%w: paper_id", ErrMissingField)
	case raw.Abstract == nil:
		return nil, fmt.Errorf("%w: abstract", ErrMissingField)
	case raw.BodyText == nil:
		return nil, fmt.Errorf("%w: body_text", ErrMissingField)
	}

	return &types.Paper{
		ID:       *raw.PaperID,
		Abstract: *raw.Abstract,
		BodyText: *raw.BodyText,
	}, nil
}

// PaperID derives the paper identifier from a file name: everything before
// the first dot.
func PaperID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// OutputPath maps a paper path under inputDir to the same relative path
// under outputDir. Paths outside inputDir are re-rooted whole.
func OutputPath(inputDir, outputDir, path string) string {
	rel, err := filepath.Rel(absPath(inputDir), absPath(path))
	if err != nil || inputDir == "" || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = strings.TrimLeft(strings.TrimPrefix(path, filepath.VolumeName(path)), `/\`)
	}
	return filepath.Join(outputDir, rel)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// WriteRecord writes rec as indented JSON, creating parent directories.
func WriteRecord(path string, rec types.ResultRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRecord loads a result record written by WriteRecord.
func ReadRecord(path string) (types.ResultRecord, error) {
	var rec types.ResultRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("reading result record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parsing result record: %w", err)
	}
	return rec, nil
}
