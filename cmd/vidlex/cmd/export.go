package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowledge-engine/vidlex/internal/export"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [video URL or ID]...",
	Short: "Write the overlap report to an xlsx or csv file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "vidlex-report.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "xlsx or csv (default from the output extension)")
}

// outputFormat picks the export format from the flag or the file extension
func outputFormat(path, flag string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return export.FormatCSV
	}
	return export.FormatXLSX
}

func runExport(cmd *cobra.Command, args []string) error {
	format := outputFormat(exportOutput, exportFormat)
	if format != export.FormatXLSX && format != export.FormatCSV {
		return fmt.Errorf("%w: %q", export.ErrUnknownFormat, format)
	}

	report, err := run(cmd.Context(), args)
	if report != nil && len(report.Failures) > 0 {
		fmt.Fprint(os.Stderr, formatFailures(report.Failures))
	}
	if err != nil {
		return err
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	if err := export.Write(f, format, report.Videos, report.Result); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d items)\n", exportOutput, report.Result.TotalItems)
	return nil
}
