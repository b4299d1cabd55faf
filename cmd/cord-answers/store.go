// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cord-answers/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the answer store (ingest, query, export)",
	Long: `Store manages a local SQLite index of merged answers. Use
subcommands to ingest merged files, search them, or export them.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest merged answer files into the answer store",
	Long: `Ingest reads answers.task.<n>.<source>.json files (by default every
one in the working directory) into a SQLite database with FTS5 indexing.
Unchanged files are skipped on subsequent runs; a changed file replaces
the answers of its task and source type.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	var summary store.IngestSummary
	if len(args) > 0 {
		summary, err = s.IngestFiles(cmd.Context(), args, os.Stdout)
	} else {
		summary, err = s.Ingest(cmd.Context(), viper.GetString("output.working_dir"), os.Stdout)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed ingest", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Search stored answers with full-text search and filters",
	Long: `Query searches stored answers using FTS5 full-text search,
filters (task, source, paper), or a combination of both.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --task, --source, or --paper")
	}

	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.Answer, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-4s  %-20s  %-20s  %s\n", "Rank", "Task", "Source", "Paper", "Answer")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		text := r.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		paper := r.PaperID
		if len(paper) > 20 {
			paper = paper[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-4d  %-20s  %-20s  %s\n", i+1, r.Task, r.Source, paper, text)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored answers to YAML or JSON",
	Long: `Export writes every stored answer (or a filtered subset) to
index/export.yaml or index/export.json under the store directory, one
entry per paper, task, and source type.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd, nil)

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText := strings.Join(args, " ")
	source, _ := cmd.Flags().GetString("source")
	paperID, _ := cmd.Flags().GetString("paper")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Query:      queryText,
		Source:     source,
		PaperID:    paperID,
		MaxResults: limit,
	}
	if cmd.Flags().Changed("task") {
		task, _ := cmd.Flags().GetInt("task")
		opts.Task = store.TaskFilter(task)
	}
	return opts
}

func init() {
	storeCmd.PersistentFlags().String("store-dir", "", "answer store directory (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", 0, "default maximum number of query results")
	bindFlags(storeCmd.PersistentFlags(), map[string]string{
		"store-dir":   "store.dir",
		"max-results": "store.max_results",
	})

	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().Int("task", 0, "filter by task")
		c.Flags().String("source", "", "filter by source type")
		c.Flags().String("paper", "", "filter by paper ID")
	}
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
