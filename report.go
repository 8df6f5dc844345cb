package gsplex

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dpotapov/go-gsplex/gsp"
)

func newTable(w io.Writer, header []string, align []int) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment(align)
	return table
}

// WriteReport writes results as a text table followed by a summary footer.
func WriteReport(w io.Writer, results []CheckResult) {
	table := newTable(w,
		[]string{"Template", "Tokens", "Status"},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			failed++
			status = fmt.Sprintf("%d:%d: %s", r.Err.Span.Line, r.Err.Span.Column, r.Err.Message())
		}
		table.Append([]string{r.Path, strconv.Itoa(r.Tokens), status})
	}

	table.SetFooter([]string{
		"Total " + strconv.Itoa(len(results)),
		"",
		strconv.Itoa(failed) + " failed",
	})
	table.Render()
}

// WriteTokenTable writes tokens as a text table. Token text is quoted so every token stays on one
// row.
func WriteTokenTable(w io.Writer, tokens []gsp.Token) {
	table := newTable(w,
		[]string{"#", "Kind", "Namespace", "Position", "Text"},
		[]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for i, t := range tokens {
		table.Append([]string{
			strconv.Itoa(i),
			t.Kind.String(),
			t.Namespace,
			fmt.Sprintf("%d:%d", t.Line, t.Column),
			strconv.Quote(t.Text),
		})
	}
	table.Render()
}
