package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/wallarm/wafpresence/internal/scanner"
)

const (
	TextFormat  = "text"
	TableFormat = "table"
	JsonFormat  = "json"
)

var (
	OutputFormatsSet = map[string]any{
		TextFormat:  nil,
		TableFormat: nil,
		JsonFormat:  nil,
	}
	OutputFormats = slices.Sorted(maps.Keys(OutputFormatsSet))
)

func ValidateOutputFormat(format string) error {
	if _, ok := OutputFormatsSet[format]; !ok {
		return fmt.Errorf("unknown output format: %s (supported: %s)", format, strings.Join(OutputFormats, ", "))
	}

	return nil
}

// RenderConsoleReport prints the results in the selected format. A single
// result is printed on its own; several results are prefixed with their
// input names (text, table) or wrapped into an array (JSON).
func RenderConsoleReport(w io.Writer, results []*scanner.Result, format string) error {
	switch format {
	case TextFormat:
		return printConsoleReport(w, results, RenderText)
	case TableFormat:
		return printConsoleReport(w, results, RenderTable)
	case JsonFormat:
		if len(results) == 1 && results[0].Err == nil {
			return RenderJSON(w, results[0].Report)
		}
		return RenderBatchJSON(w, results)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func printConsoleReport(w io.Writer, results []*scanner.Result, render renderFunc) error {
	batch := len(results) > 1

	for i, r := range results {
		if batch {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s\n", r.Input)
		}

		if r.Err != nil {
			fmt.Fprintf(w, "Error: %v\n", r.Err)
			continue
		}

		if err := render(w, r.Report); err != nil {
			return err
		}
	}

	return nil
}
