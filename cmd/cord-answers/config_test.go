// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-answers/pkg/types"
)

func TestParseDocFreq(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    types.DocFreq
		wantErr bool
	}{
		{"float fraction", 0.1, types.Fraction(0.1), false},
		{"float one is a fraction", 1.0, types.Fraction(1), false},
		{"int is a count", 3, types.Count(3), false},
		{"int64 is a count", int64(2), types.Count(2), false},
		{"string fraction", "0.9", types.Fraction(0.9), false},
		{"string integer", "5", types.Count(5), false},
		{"count prefix", "count: 7", types.Count(7), false},
		{"fraction above one", 1.5, types.DocFreq{}, true},
		{"negative count", "-1", types.DocFreq{}, true},
		{"garbage", "lots", types.DocFreq{}, true},
		{"unsupported type", true, types.DocFreq{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDocFreq(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipelineConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults(viper.GetViper())

	cfg, err := pipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultRankingConfig(), cfg.Ranking)
	assert.Equal(t, types.WalkFull, cfg.Walk.Mode)
	assert.Equal(t, "json", cfg.Walk.Extension)
	assert.Equal(t, types.DefaultSources, cfg.Sources)
	assert.False(t, cfg.Merge.Legacy)
	assert.Equal(t, 20, cfg.Store.MaxResults)
}

func TestPipelineConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"walk.mode", "sideways"},
		{"ranking.top", 0},
		{"ranking.min_df", "many"},
		{"ranking.max_df", 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			setDefaults(viper.GetViper())
			viper.Set(tt.key, tt.value)

			_, err := pipelineConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
