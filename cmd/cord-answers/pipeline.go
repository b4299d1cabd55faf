// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cord-answers/internal/pipeline"
	"github.com/pdiddy/cord-answers/pkg/types"
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Build the paper manifest of each source type",
	Long: `Walk scans the corpus root for paper files of each source type and
writes the list to papers.<source>.json in the working directory. A file
qualifies when its name is a paper id (lowercase letters and digits, at
least one of each) and the source type is one of its directory names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Release()
		return p.Walk(cmd.Context()).Err()
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Write answers for every paper in the source manifests",
	Long: `Answer reads papers.<source>.json for each source type, ranks the
paragraphs of every paper against the questions of the task, and writes one
result record per paper under the working directory. Papers that cannot be
read are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		task, _ := cmd.Flags().GetInt("task")
		if _, err := table.Task(task); err != nil {
			return err
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Release()
		return p.Write(cmd.Context(), task).Err()
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the result records of a task into one file per source type",
	Long: `Merge collects the result records of the task under the working
directory into answers.task.<n>.<source>.json. Records without a task field
are written as empty objects. Use --legacy for the older bracket and
comma layout, which may not be valid JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		task, _ := cmd.Flags().GetInt("task")
		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Release()
		return p.Merge(cmd.Context(), task).Err()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run walk, answer, and merge for a task",
	Long: `Run executes the three stages in order. Each stage processes all
source types concurrently and finishes before the next begins. A source
type that fails a stage is dropped from the later ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		task, _ := cmd.Flags().GetInt("task")
		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Release()

		reports, err := p.Run(cmd.Context(), task)
		for _, r := range reports {
			fmt.Fprintf(os.Stdout, "%-6s ok: %d, failed: %d\n", r.Phase, len(r.Succeeded()), len(r.Failed()))
		}
		return err
	},
}

func newPipeline() (*pipeline.Pipeline, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = types.DefaultSources
	}
	slog.Debug("pipeline config",
		"input_dir", cfg.Walk.InputDir, "working_dir", cfg.WorkingDir,
		"sources", cfg.Sources, "workers", cfg.Workers, "mode", cfg.Walk.Mode)
	return pipeline.New(cfg, table,
		pipeline.WithLogger(slog.Default()),
		pipeline.WithOutput(os.Stdout),
	)
}

func init() {
	walkCmd.Flags().String("mode", "", "walk mode: full or legacy (default full)")
	walkCmd.Flags().String("extension", "", "paper file suffix (default json)")
	runCmd.Flags().String("mode", "", "walk mode: full or legacy (default full)")

	for _, c := range []*cobra.Command{answerCmd, runCmd} {
		c.Flags().String("min-df", "", "ignore n-grams in fewer snippets than this (fraction, or integer count)")
		c.Flags().String("max-df", "", "ignore n-grams in more snippets than this (fraction, or integer count)")
		c.Flags().Int("top", 0, "ranks inspected per question (default 4)")
		c.Flags().Bool("keep-case", false, "do not lower-case snippets before tokenizing")
	}
	for _, c := range []*cobra.Command{answerCmd, mergeCmd, runCmd} {
		c.Flags().Int("task", 0, "task index (0-9 with the built-in table)")
	}
	for _, c := range []*cobra.Command{mergeCmd, runCmd} {
		c.Flags().Bool("legacy", false, "write the older bracket and comma layout")
	}

	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(runCmd)
}

// bindCommandFlags binds the flags of the running command only, so
// sibling commands sharing a flag name do not shadow each other.
func bindCommandFlags(cmd *cobra.Command, args []string) error {
	keys := map[string]string{
		"mode":      "walk.mode",
		"extension": "walk.extension",
		"min-df":    "ranking.min_df",
		"max-df":    "ranking.max_df",
		"top":       "ranking.top",
		"keep-case": "ranking.keep_case",
		"legacy":    "merge.legacy",
	}
	for name, key := range keys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}
