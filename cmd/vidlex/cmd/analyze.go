package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video URL or ID]...",
	Short: "Report the words shared by the given videos",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	report, err := run(cmd.Context(), args)
	if report != nil && len(report.Failures) > 0 && err != nil {
		fmt.Fprint(os.Stderr, formatFailures(report.Failures))
	}
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatReport(report))
	return nil
}
