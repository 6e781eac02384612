package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
)

// FormatCell renders a single cell for text and CSV output.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		if h, m, s := x.Clock(); h == 0 && m == 0 && s == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case string:
		return x
	}
	return model.ToText(v)
}

// WriteCSV writes the table with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.Columns {
			record[j] = FormatCell(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes the table as aligned columns for a terminal.
func (t *Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.ColumnNames(), "\t"))
	cells := make([]string, len(t.Columns))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.Columns {
			cells[j] = sanitizeCell(FormatCell(c.Values[i]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func sanitizeCell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
