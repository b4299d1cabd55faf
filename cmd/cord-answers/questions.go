// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the question table",
	Long: `Questions prints the question table in use (the built-in ten tasks
or the file given with --questions). The YAML output can be edited and
passed back with --questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("task") {
			n, _ := cmd.Flags().GetInt("task")
			t, err := table.Task(n)
			if err != nil {
				return err
			}
			for _, q := range t.Questions() {
				fmt.Println(q)
			}
			return nil
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(table.Tasks())
		}

		data, err := table.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	questionsCmd.Flags().Int("task", 0, "print the questions of one task, in scoring order")
	questionsCmd.Flags().Bool("json", false, "print the table as JSON")

	rootCmd.AddCommand(questionsCmd)
}
