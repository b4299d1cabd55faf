// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-answers/internal/walk"
	"github.com/pdiddy/cord-answers/pkg/types"
)

const source = "biorxiv_medrxiv"

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func record(id string, task int) string {
	return `{"paper_id":"` + id + `","task":` + strconv.Itoa(task) + `,"abstract":"Q?","body_text":["a"]}`
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("work", "answers.task.3.comm_use_subset.json"),
		OutputPath("work", 3, "comm_use_subset"))
}

func TestMergeSelectsRequestedTask(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), record("aa11", 0))
	writeFile(t, filepath.Join(root, "bb22.json"), record("bb22", 1))
	writeFile(t, filepath.Join(root, "cc33.json"), record("cc33", 0))
	out := OutputPath(t.TempDir(), 0, source)

	var buf bytes.Buffer
	res, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merged)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Total())
	assert.False(t, res.HasFailures())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []types.ResultRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "aa11", got[0].PaperID)
	assert.Equal(t, "cc33", got[1].PaperID)
}

func TestMergeMissingTaskBecomesPlaceholder(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), `{"paper_id":"aa11","abstract":"Q?","body_text":[]}`)
	writeFile(t, filepath.Join(root, "bb22.json"), record("bb22", 2))
	out := OutputPath(t.TempDir(), 2, source)

	res, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 2, out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Placeholders)
	assert.Equal(t, 1, res.Merged)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Empty(t, got[0])
	assert.Equal(t, "bb22", got[1]["paper_id"])
}

func TestMergeEmptyRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	require.NoError(t, os.MkdirAll(root, 0o755))
	out := OutputPath(t.TempDir(), 0, source)

	_, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMergeTruncatesPreviousOutput(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), record("aa11", 1))
	out := OutputPath(t.TempDir(), 0, source)
	writeFile(t, out, `[{"stale":true},{"stale":true},{"stale":true}]`)

	_, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMergeReportsUnparseableFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	bad := filepath.Join(root, "aa11.json")
	writeFile(t, bad, `{"paper_id":`)
	writeFile(t, filepath.Join(root, "bb22.json"), record("bb22", 0))
	out := OutputPath(t.TempDir(), 0, source)

	var buf bytes.Buffer
	res, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Merged)
	assert.Contains(t, buf.String(), "failed  "+bad)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestMergeLegacyLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), `{"task":0}`)
	writeFile(t, filepath.Join(root, "bb22.json"), `{"task":1}`)
	writeFile(t, filepath.Join(root, "cc33.json"), `{"task":0}`)
	out := OutputPath(t.TempDir(), 0, source)

	_, err := Merger{Legacy: true}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	// The skipped record still contributes its trailing comma.
	assert.Equal(t, "[{\n  \"task\": 0\n},,{\n  \"task\": 0\n}]", string(data))
	assert.False(t, json.Valid(data))
}

func TestMergeStrictLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), `{"task":0}`)
	writeFile(t, filepath.Join(root, "bb22.json"), `{"task":1}`)
	writeFile(t, filepath.Join(root, "cc33.json"), `{"task":0}`)
	out := OutputPath(t.TempDir(), 0, source)

	_, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[{\n  \"task\": 0\n},{\n  \"task\": 0\n}]", string(data))
}

func TestMergeCancelled(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), record("aa11", 0))
	out := OutputPath(t.TempDir(), 0, source)
	previous := "[" + record("zz99", 0) + "]"
	writeFile(t, out, previous)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Merger{}.Merge(ctx, root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, previous, string(data), "a cancelled merge leaves the previous file intact")
}

func TestMergeNullTaskMatchesNoTask(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), `{"paper_id":"aa11","task":null}`)
	writeFile(t, filepath.Join(root, "bb22.json"), record("bb22", 0))
	out := OutputPath(t.TempDir(), 0, source)

	res, err := Merger{}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Placeholders)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []types.ResultRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "bb22", got[0].PaperID)
}

func TestParseOutputName(t *testing.T) {
	tests := []struct {
		name   string
		task   int
		source string
		ok     bool
	}{
		{"answers.task.0.biorxiv_medrxiv.json", 0, "biorxiv_medrxiv", true},
		{"/work/answers.task.9.pmc_custom_license.json", 9, "pmc_custom_license", true},
		{"papers.biorxiv_medrxiv.json", 0, "", false},
		{"answers.task.x.biorxiv_medrxiv.json", 0, "", false},
		{"answers.task.3.json", 0, "", false},
		{"answers.task.3.comm_use_subset.yaml", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, source, err := ParseOutputName(tt.name)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrNotMergedFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.task, task)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		ids     []string
		wantErr bool
	}{
		{"strict", `[{"paper_id":"a1","task":0},{"paper_id":"b2","task":0}]`, []string{"a1", "b2"}, false},
		{"empty", `[]`, []string{}, false},
		{"legacy commas", "[{\"paper_id\":\"a1\"},,{\"paper_id\":\"b2\"},]", []string{"a1", "b2"}, false},
		{"placeholder", `[{},{"paper_id":"b2"}]`, []string{"", "b2"}, false},
		{"not an array", `{"paper_id":"a1"}`, nil, true},
		{"broken element", `[{"paper_id":]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(recs))
			for i, r := range recs {
				ids[i] = r.PaperID
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestReadFileLegacyOutput(t *testing.T) {
	root := filepath.Join(t.TempDir(), source)
	writeFile(t, filepath.Join(root, "aa11.json"), record("aa11", 0))
	writeFile(t, filepath.Join(root, "bb22.json"), record("bb22", 1))
	writeFile(t, filepath.Join(root, "cc33.json"), record("cc33", 0))
	out := OutputPath(t.TempDir(), 0, source)

	_, err := Merger{Legacy: true}.Merge(context.Background(), root, walk.Filter{Source: source}, 0, out, &bytes.Buffer{})
	require.NoError(t, err)

	recs, err := ReadFile(out)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "cc33", recs[1].PaperID)
	assert.Equal(t, []string{"a"}, recs[1].Answers)
}
