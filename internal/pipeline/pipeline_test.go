// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-answers/internal/merge"
	"github.com/pdiddy/cord-answers/internal/questions"
	"github.com/pdiddy/cord-answers/internal/walk"
	"github.com/pdiddy/cord-answers/pkg/types"
)

const abstract = "SARS-CoV-2 has an incubation period of 5 days."

func writePaper(t *testing.T, root, source, id string) {
	t.Helper()
	dir := filepath.Join(root, source, source)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := `{"paper_id":"` + id + `","abstract":[{"text":"` + abstract + `"}],"body_text":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
}

func testConfig(t *testing.T, sources ...string) types.PipelineConfig {
	t.Helper()
	return types.PipelineConfig{
		Ranking:    types.DefaultRankingConfig(),
		Walk:       types.WalkConfig{InputDir: t.TempDir(), Extension: "json", Mode: types.WalkFull},
		WorkingDir: t.TempDir(),
		Sources:    sources,
	}
}

func TestNewRequiresSources(t *testing.T) {
	_, err := New(types.PipelineConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t, "biorxiv_medrxiv", "comm_use_subset")
	writePaper(t, cfg.Walk.InputDir, "biorxiv_medrxiv", "aa11")
	writePaper(t, cfg.Walk.InputDir, "biorxiv_medrxiv", "bb22")
	writePaper(t, cfg.Walk.InputDir, "comm_use_subset", "cc33")

	var out bytes.Buffer
	p, err := New(cfg, questions.Default(), WithOutput(&out))
	require.NoError(t, err)
	defer p.Release()

	reports, err := p.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, PhaseWalk, reports[0].Phase)
	assert.Equal(t, PhaseWrite, reports[1].Phase)
	assert.Equal(t, PhaseMerge, reports[2].Phase)
	for _, r := range reports {
		assert.False(t, r.HasFailures(), r.Phase)
	}

	m, err := walk.ReadManifest(walk.ManifestPath(cfg.WorkingDir, "biorxiv_medrxiv"))
	require.NoError(t, err)
	assert.Len(t, m.Paper, 2)

	tests := []struct {
		source string
		ids    []string
	}{
		{"biorxiv_medrxiv", []string{"aa11", "bb22"}},
		{"comm_use_subset", []string{"cc33"}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			data, err := os.ReadFile(merge.OutputPath(cfg.WorkingDir, 0, tt.source))
			require.NoError(t, err)
			var recs []types.ResultRecord
			require.NoError(t, json.Unmarshal(data, &recs))
			require.Len(t, recs, len(tt.ids))
			for i, id := range tt.ids {
				assert.Equal(t, id, recs[i].PaperID)
				assert.Equal(t, []string{abstract}, recs[i].Answers)
			}
		})
	}

	assert.Contains(t, out.String(), "== walk biorxiv_medrxiv")
	assert.Contains(t, out.String(), "answered aa11 (1 answers)")
}

func TestWriteFailureDoesNotAbortSiblings(t *testing.T) {
	cfg := testConfig(t, "biorxiv_medrxiv", "comm_use_subset")
	writePaper(t, cfg.Walk.InputDir, "comm_use_subset", "cc33")
	require.NoError(t, walk.WriteManifest(
		walk.ManifestPath(cfg.WorkingDir, "comm_use_subset"),
		types.Manifest{Paper: []string{filepath.Join(cfg.Walk.InputDir, "comm_use_subset", "comm_use_subset", "cc33.json")}},
	))

	p, err := New(cfg, nil, WithWorkers(1))
	require.NoError(t, err)
	defer p.Release()

	report := p.Write(context.Background(), 0)
	require.Len(t, report.Results, 2)
	assert.True(t, report.HasFailures())
	assert.Equal(t, []string{"comm_use_subset"}, report.Succeeded())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "biorxiv_medrxiv", report.Failed()[0].Source)
	assert.Contains(t, report.Err().Error(), "write biorxiv_medrxiv")

	_, err = os.Stat(filepath.Join(cfg.WorkingDir, "comm_use_subset", "comm_use_subset", "cc33.json"))
	assert.NoError(t, err)
}

func TestRunSkipsFailedSourcesInLaterPhases(t *testing.T) {
	cfg := testConfig(t, "biorxiv_medrxiv")
	cfg.Walk.InputDir = filepath.Join(cfg.Walk.InputDir, "missing")

	p, err := New(cfg, nil)
	require.NoError(t, err)
	defer p.Release()

	reports, err := p.Run(context.Background(), 0)
	require.Error(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, PhaseWalk, reports[0].Phase)
}

func TestRunUnknownTask(t *testing.T) {
	p, err := New(testConfig(t, "biorxiv_medrxiv"), nil)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), 42)
	assert.ErrorIs(t, err, questions.ErrUnknownTask)
}

func TestRunCancelled(t *testing.T) {
	p, err := New(testConfig(t, "biorxiv_medrxiv"), nil)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
