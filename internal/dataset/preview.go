package dataset

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// DefaultPreviewRows is the number of rows shown after a load.
const DefaultPreviewRows = 5

const maxCellRunes = 24

// WritePreview prints the first n rows as a table followed by the row count.
func (d *Dataset) WritePreview(w io.Writer, n int) {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	rows := d.Head(n)
	for _, row := range rows {
		for j, v := range row {
			row[j] = truncateRunes(v, maxCellRunes)
		}
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader(d.Names())
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
	fmt.Fprintf(w, "(%d of %d rows)\n", len(rows), d.Len())
}

// truncateRunes shortens s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
