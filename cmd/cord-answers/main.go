// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cord-answers CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cord-answers/internal/questions"
)

// version is set at build time via ldflags.
var version = "dev"

// table is the question table loaded at startup.
var table *questions.Table

// rootCmd is the base command for the cord-answers CLI.
var rootCmd = &cobra.Command{
	Use:   "cord-answers",
	Short: "Extract candidate answers to research questions from CORD-19 papers",
	Long: `cord-answers ranks the paragraphs of CORD-19 papers against the
research questions of a task and keeps the closest ones as answers.

The pipeline has three stages, each a subcommand: walk builds a manifest
of papers per source type, answer writes one result record per paper, and
merge gathers the records of a task into one file per source type. run
executes all three. store indexes merged answers for full-text search.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		if err := bindCommandFlags(cmd, args); err != nil {
			return err
		}

		path := viper.GetString("questions")
		if path == "" {
			table = questions.Default()
			return nil
		}
		t, err := questions.Load(path)
		if err != nil {
			return err
		}
		slog.Debug("loaded question table", "path", path, "tasks", t.Len())
		table = t
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cord-answers.yaml or ~/.config/cord-answers/cord-answers.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("questions", "", "question table YAML file (default: built-in ten-task table)")
	pf.String("input-dir", "", "corpus root containing the source-type directories")
	pf.String("working-dir", "", "directory receiving manifests, result records, and merged answers")
	pf.StringSlice("sources", nil, "source types to process (default: the four CORD-19 subsets)")
	pf.Int("workers", 0, "maximum source types processed at once (0 = one per source)")

	bindFlags(pf, map[string]string{
		"verbose":     "verbose",
		"questions":   "questions",
		"input-dir":   "walk.input_dir",
		"working-dir": "output.working_dir",
		"sources":     "pipeline.sources",
		"workers":     "pipeline.workers",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cord-answers")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cord-answers"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("CORD_ANSWERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
