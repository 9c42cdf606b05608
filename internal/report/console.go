package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/wallarm/wafpresence/internal/detector"
)

// RenderTable prints the verdict as a summary line followed by a table of
// the indicators.
func RenderTable(w io.Writer, r *detector.Report) error {
	var buffer strings.Builder

	fmt.Fprintf(&buffer, "WAF Presence: %s (confidence=%.2f)\n", Verdict(r), r.Confidence)
	if len(r.VendorGuesses) > 0 {
		fmt.Fprintf(&buffer, "Possible vendors: %s\n", strings.Join(r.VendorGuesses, ", "))
	}
	fmt.Fprintf(&buffer, "Rationale: %s\n", r.Rationale)

	if len(r.VendorVotes) > 0 {
		fmt.Fprintf(&buffer, "\nVendor votes:\n")

		votes := tablewriter.NewWriter(&buffer)
		votes.Header("Vendor", "Vote")
		for _, v := range r.VendorVotes {
			if err := votes.Append([]string{v.Vendor, fmt.Sprintf("%.2f", v.Score)}); err != nil {
				return errors.Wrap(err, "couldn't add table row")
			}
		}
		if err := votes.Render(); err != nil {
			return errors.Wrap(err, "couldn't render table")
		}
	}

	if len(r.Indicators) > 0 {
		fmt.Fprintf(&buffer, "\nIndicators:\n")

		table := tablewriter.NewWriter(&buffer)
		table.Header("Weight", "Source", "Key", "Value", "Note")
		for _, i := range r.Indicators {
			row := []string{
				fmt.Sprintf("%.2f", i.Weight),
				i.Source,
				i.Key,
				i.Value,
				i.Note,
			}
			if err := table.Append(row); err != nil {
				return errors.Wrap(err, "couldn't add table row")
			}
		}
		table.Footer("", "", "", "Confidence", fmt.Sprintf("%.2f", r.Confidence))
		if err := table.Render(); err != nil {
			return errors.Wrap(err, "couldn't render table")
		}
	}

	_, err := io.WriteString(w, buffer.String())
	return err
}
