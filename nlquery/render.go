package nlquery

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", val), "0"), ".")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatResults renders rows as tab-separated text for prompts and fallbacks.
func FormatResults(answer *Answer) string {
	if len(answer.Rows) == 0 {
		return "No results found"
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(answer.Columns, "\t"))
	for _, row := range answer.Rows {
		sb.WriteString("\n")
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		sb.WriteString(strings.Join(cells, "\t"))
	}
	if answer.Truncated {
		sb.WriteString("\n(results truncated)")
	}
	return sb.String()
}

// DisplayResults writes the rows of answer as a table.
func DisplayResults(w io.Writer, answer *Answer) {
	if len(answer.Rows) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(answer.Columns)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, row := range answer.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		table.Append(cells)
	}

	table.Render()
	if answer.Truncated {
		fmt.Fprintln(w, "(results truncated)")
	}
}
