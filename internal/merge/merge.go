// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge collects per-paper result records for one task and one
// source type into a single merged answers file.
package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/cord-answers/internal/walk"
	"github.com/pdiddy/cord-answers/pkg/types"
)

// placeholder stands in for a result record that has no task field.
var placeholder = json.RawMessage(`{}`)

// Result holds the outcome of a merge.
type Result struct {
	Merged       int
	Placeholders int
	Skipped      int
	Failed       int
}

// Total returns the number of result files inspected.
func (r Result) Total() int {
	return r.Merged + r.Placeholders + r.Skipped + r.Failed
}

// HasFailures reports whether any result file could not be read.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Merger writes merged answer files.
type Merger struct {
	// Legacy reproduces the published byte layout: a comma follows every
	// inspected file that is not the last file of its directory, whether
	// or not the file contributed a record. The output may not be valid
	// JSON.
	Legacy bool

	Logger *slog.Logger
}

// OutputPath returns the merged file location for a task and source type.
func OutputPath(workingDir string, task int, source string) string {
	return filepath.Join(workingDir, "answers.task."+strconv.Itoa(task)+"."+source+".json")
}

// Merge scans root for result records passing f and writes those whose
// task equals task to outPath, replacing any previous content once the
// scan completes. A record without a task field becomes an empty object; a
// null task matches no task. Unreadable files are reported to w and
// skipped.
func (m Merger) Merge(ctx context.Context, root string, f walk.Filter, task int, outPath string, w io.Writer) (Result, error) {
	var result Result

	paths, err := walk.Files(root, f, types.WalkFull)
	if err != nil {
		return result, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	last := make(map[string]string)
	wrote := false

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rec, ok, err := m.selectRecord(path, task)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			result.Failed++
			continue
		}

		switch {
		case rec == nil:
			result.Skipped++
		case ok:
			result.Merged++
		default:
			result.Placeholders++
		}

		if m.Legacy {
			if rec != nil {
				if err := json.Indent(&buf, rec, "", "  "); err != nil {
					return result, fmt.Errorf("formatting %s: %w", path, err)
				}
			}
			if !isLastFile(path, last) {
				buf.WriteByte(',')
			}
			continue
		}

		if rec == nil {
			continue
		}
		if wrote {
			buf.WriteByte(',')
		}
		if err := json.Indent(&buf, rec, "", "  "); err != nil {
			return result, fmt.Errorf("formatting %s: %w", path, err)
		}
		wrote = true
	}
	buf.WriteByte(']')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return result, fmt.Errorf("creating directory for %s: %w", outPath, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return result, fmt.Errorf("writing merged file: %w", err)
	}

	m.logger().Debug("merged answers", "root", root, "task", task, "out", outPath,
		"merged", result.Merged, "placeholders", result.Placeholders, "skipped", result.Skipped)
	fmt.Fprintf(w, "\nmerged: %d, placeholders: %d, skipped: %d, failed: %d\n",
		result.Merged, result.Placeholders, result.Skipped, result.Failed)
	return result, nil
}

// selectRecord returns the raw record to emit for path, or nil when the
// record belongs to another task. ok is false for a placeholder.
func (m Merger) selectRecord(path string, task int) (json.RawMessage, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading result record: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, fmt.Errorf("parsing result record: %w", err)
	}

	raw, present := fields["task"]
	if !present {
		m.logger().Debug("result record has no task", "path", path)
		return placeholder, false, nil
	}
	var got *int
	if err := json.Unmarshal(raw, &got); err != nil {
		return nil, false, fmt.Errorf("parsing task of result record: %w", err)
	}
	if got == nil || *got != task {
		return nil, false, nil
	}
	return json.RawMessage(data), true, nil
}

// isLastFile reports whether path is the last regular file of its
// directory listing. The answer per directory is cached in last.
func isLastFile(path string, last map[string]string) bool {
	dir := filepath.Dir(path)
	name, ok := last[dir]
	if !ok {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					name = e.Name()
				}
			}
		}
		last[dir] = name
	}
	return filepath.Base(path) == name
}

func (m Merger) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
