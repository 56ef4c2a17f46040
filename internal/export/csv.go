package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/catalog"
)

// WriteCSV writes every section into one CSV stream. Each section starts
// with its upper-cased name and ends with an empty record.
func WriteCSV(w io.Writer, videos []*catalog.Metadata, res *analysis.Result) error {
	cw := csv.NewWriter(w)

	for _, s := range Sections(videos, res) {
		if err := cw.Write([]string{strings.ToUpper(s.Name)}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		if err := cw.Write(s.Header); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		for _, row := range s.Rows {
			record := make([]string, len(row))
			for i, value := range row {
				record[i] = fmt.Sprint(value)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if err := cw.Write([]string{""}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
