package app

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/importer"
)

var printer = message.NewPrinter(language.English)

// WriteResultSet prints rs as an aligned table followed by a row count.
func WriteResultSet(w io.Writer, rs *datastore.ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rs.Rows) == 1 {
		_, err := fmt.Fprintln(w, "(1 row)")
		return err
	}
	_, err := printer.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return err
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return strings.NewReplacer("\t", " ", "\n", " ").Replace(x)
	case float64:
		return printer.Sprintf("%v", x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteReport prints an import report with per-table counts.
func WriteReport(w io.Writer, r importer.Report) error {
	if _, err := printer.Fprintf(w, "Run %s: %s, %d pages requested, %d records fetched in %v\n",
		r.RunID, r.Classification, r.Pages, r.Fetched, r.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if r.Shared {
		fmt.Fprintln(w, "(joined an import already in progress)")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "table\tstaged\tinserted\tskipped\trejected\t")
	for _, t := range r.Tables {
		printer.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", t.Table, t.Staged, t.Inserted, t.Skipped, t.Rejected)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Error != "" {
		fmt.Fprintf(w, "status: %s (%s)\n", r.Status, r.Error)
	} else {
		fmt.Fprintf(w, "status: %s\n", r.Status)
	}
	return nil
}
