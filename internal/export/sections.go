// Package export renders an analysis report as a spreadsheet.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/catalog"
)

var ErrUnknownFormat = errors.New("unknown export format")

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Section is one table of the report: a sheet in xlsx, a block in csv
type Section struct {
	Name   string
	Header []string
	Rows   [][]any
	// LinkColumn is the zero-based column holding URLs, or -1
	LinkColumn int
}

var channelHeaders = map[analysis.Channel]string{
	analysis.ChannelTitle:       "Common Title Words",
	analysis.ChannelTags:        "Common Tags",
	analysis.ChannelDescription: "Common Description Words",
}

// Sections lays out the report tables in sheet order
func Sections(videos []*catalog.Metadata, res *analysis.Result) []Section {
	if res == nil {
		res = &analysis.Result{}
	}

	scores := make(map[string]int, len(res.Items))
	for _, item := range res.Items {
		scores[item.ID] = item.Score
	}

	links := Section{
		Name:       "Video Links",
		Header:     []string{"Title", "Link", "Views", "Published", "Score"},
		LinkColumn: 1,
	}
	for _, v := range videos {
		published := ""
		if !v.PublishedAt.IsZero() {
			published = v.PublishedAt.Format("02 Jan 2006")
		}
		links.Rows = append(links.Rows, []any{v.Title, v.URL, v.ViewCount, published, scores[v.ID]})
	}

	sections := []Section{links}
	for _, c := range analysis.Channels {
		cr := res.Channel(c)
		s := Section{
			Name:       channelHeaders[c],
			Header:     []string{channelHeaders[c], "Videos", "Share"},
			LinkColumn: -1,
		}
		for _, ct := range cr.Common {
			s.Rows = append(s.Rows, []any{ct.Display, ct.Members, fmt.Sprintf("%d/%d", ct.Members, ct.Total)})
		}
		sections = append(sections, s)
	}

	unique := Section{
		Name:       "Unique Terms",
		Header:     []string{"Channel", "Term"},
		LinkColumn: -1,
	}
	for _, c := range analysis.Channels {
		cr := res.Channel(c)
		for _, term := range cr.UniqueTerms() {
			unique.Rows = append(unique.Rows, []any{c.String(), cr.Unique[term]})
		}
	}

	ranking := Section{
		Name:       "Ranking",
		Header:     []string{"Rank", "Item", "Score"},
		LinkColumn: -1,
	}
	for _, r := range res.Ranking {
		ranking.Rows = append(ranking.Rows, []any{r.Rank, r.Label, r.Score})
	}

	summary := Section{
		Name:       "Summary",
		Header:     []string{"Metric", "Value"},
		LinkColumn: -1,
		Rows: [][]any{
			{"Items analyzed", res.TotalItems},
			{"Common threshold", res.Threshold},
		},
	}
	for _, c := range analysis.Channels {
		cr := res.Channel(c)
		name := strings.ToUpper(c.String()[:1]) + c.String()[1:]
		summary.Rows = append(summary.Rows,
			[]any{name + " common terms", len(cr.Common)},
			[]any{name + " distinct terms", cr.DistinctTerms},
			[]any{name + " overlap %", fmt.Sprintf("%.1f", cr.Percentage)},
		)
	}

	return append(sections, unique, ranking, summary)
}

// Write renders the report in the given format
func Write(w io.Writer, format string, videos []*catalog.Metadata, res *analysis.Result) error {
	switch strings.ToLower(format) {
	case FormatXLSX, "":
		return WriteXLSX(w, videos, res)
	case FormatCSV:
		return WriteCSV(w, videos, res)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type for format
func ContentType(format string) string {
	if strings.ToLower(format) == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
