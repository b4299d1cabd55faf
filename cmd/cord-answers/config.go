// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/cord-answers/pkg/types"
)

func setDefaults(v *viper.Viper) {
	rc := types.DefaultRankingConfig()
	v.SetDefault("ranking.min_df", rc.MinDF.Value)
	v.SetDefault("ranking.max_df", rc.MaxDF.Value)
	v.SetDefault("ranking.top", rc.Top)
	v.SetDefault("ranking.keep_case", false)
	v.SetDefault("walk.input_dir", "CORD-19-research-challenge")
	v.SetDefault("walk.extension", "json")
	v.SetDefault("walk.mode", string(types.WalkFull))
	v.SetDefault("output.working_dir", "working")
	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.sources", types.DefaultSources)
	v.SetDefault("merge.legacy", false)
	v.SetDefault("store.dir", "store")
	v.SetDefault("store.max_results", 20)
}

// bindFlags binds each named flag of fs to a viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// pipelineConfig assembles the pipeline settings from viper.
func pipelineConfig() (types.PipelineConfig, error) {
	minDF, err := parseDocFreq(viper.Get("ranking.min_df"))
	if err != nil {
		return types.PipelineConfig{}, fmt.Errorf("ranking.min_df: %w", err)
	}
	maxDF, err := parseDocFreq(viper.Get("ranking.max_df"))
	if err != nil {
		return types.PipelineConfig{}, fmt.Errorf("ranking.max_df: %w", err)
	}

	mode := types.WalkMode(viper.GetString("walk.mode"))
	switch mode {
	case types.WalkFull, types.WalkLegacy:
	default:
		return types.PipelineConfig{}, fmt.Errorf("walk.mode: unsupported mode %q: use full or legacy", mode)
	}

	top := viper.GetInt("ranking.top")
	if top < 1 {
		return types.PipelineConfig{}, fmt.Errorf("ranking.top: must be at least 1, got %d", top)
	}

	return types.PipelineConfig{
		Ranking: types.RankingConfig{
			MinDF:    minDF,
			MaxDF:    maxDF,
			Top:      top,
			KeepCase: viper.GetBool("ranking.keep_case"),
		},
		Walk: types.WalkConfig{
			InputDir:  viper.GetString("walk.input_dir"),
			Extension: viper.GetString("walk.extension"),
			Mode:      mode,
		},
		Merge:      types.MergeConfig{Legacy: viper.GetBool("merge.legacy")},
		Store:      storeConfig(),
		WorkingDir: viper.GetString("output.working_dir"),
		Sources:    viper.GetStringSlice("pipeline.sources"),
		Workers:    viper.GetInt("pipeline.workers"),
	}, nil
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		Dir:        viper.GetString("store.dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

// parseDocFreq interprets a document-frequency bound. Integers and
// "count:N" are absolute snippet counts; anything with a decimal point is
// a fraction of the snippets.
func parseDocFreq(v any) (types.DocFreq, error) {
	switch x := v.(type) {
	case int:
		return types.Count(x), nil
	case int64:
		return types.Count(int(x)), nil
	case float64:
		return fraction(x)
	case string:
		s := strings.TrimSpace(x)
		if n, ok := strings.CutPrefix(s, "count:"); ok {
			c, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil || c < 0 {
				return types.DocFreq{}, fmt.Errorf("invalid count %q", x)
			}
			return types.Count(c), nil
		}
		if !strings.ContainsAny(s, ".eE") {
			c, err := strconv.Atoi(s)
			if err != nil || c < 0 {
				return types.DocFreq{}, fmt.Errorf("invalid bound %q", x)
			}
			return types.Count(c), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.DocFreq{}, fmt.Errorf("invalid bound %q", x)
		}
		return fraction(f)
	default:
		return types.DocFreq{}, fmt.Errorf("unsupported bound %v (%T)", v, v)
	}
}

func fraction(f float64) (types.DocFreq, error) {
	if f < 0 || f > 1 {
		return types.DocFreq{}, fmt.Errorf("fraction %g outside [0, 1]", f)
	}
	return types.Fraction(f), nil
}
