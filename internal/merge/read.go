// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/cord-answers/pkg/types"
)

// ErrNotMergedFile is returned when a file name does not follow the
// answers.task.<n>.<source>.json convention.
var ErrNotMergedFile = errors.New("not a merged answers file")

// ParseOutputName extracts the task and source type from a merged file name.
func ParseOutputName(path string) (int, string, error) {
	name := filepath.Base(path)
	rest, ok := strings.CutPrefix(name, "answers.task.")
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrNotMergedFile, name)
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrNotMergedFile, name)
	}
	num, source, ok := strings.Cut(rest, ".")
	if !ok || source == "" {
		return 0, "", fmt.Errorf("%w: %s", ErrNotMergedFile, name)
	}
	task, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", ErrNotMergedFile, name)
	}
	return task, source, nil
}

// ReadFile loads the records of a merged answers file.
func ReadFile(path string) ([]types.ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading merged file: %w", err)
	}
	recs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}

// Parse decodes a merged answers array. It accepts the legacy layout,
// where empty elements between commas are ignored. Placeholders decode to
// zero-value records.
func Parse(data []byte) ([]types.ResultRecord, error) {
	body := bytes.TrimSpace(data)
	if len(body) < 2 || body[0] != '[' || body[len(body)-1] != ']' {
		return nil, errors.New("expected a JSON array")
	}
	rest := body[1 : len(body)-1]

	recs := []types.ResultRecord{}
	for {
		rest = bytes.TrimLeft(rest, " \t\r\n,")
		if len(rest) == 0 {
			return recs, nil
		}
		dec := json.NewDecoder(bytes.NewReader(rest))
		var rec types.ResultRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
		rest = rest[dec.InputOffset():]
	}
}
