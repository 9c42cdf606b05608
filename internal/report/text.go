package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wallarm/wafpresence/internal/detector"
	htmlreport "github.com/wallarm/wafpresence/pkg/report"
)

type renderFunc func(w io.Writer, r *detector.Report) error

// Verdict returns the human readable verdict of a report.
func Verdict(r *detector.Report) string {
	if r.LikelyWAF {
		return htmlreport.VerdictLikely
	}

	return htmlreport.VerdictUnlikely
}

// RenderText prints a report as plain text, one indicator per line.
func RenderText(w io.Writer, r *detector.Report) error {
	_, err := io.WriteString(w, FormatText(r)+"\n")
	return err
}

// FormatText returns the plain text form of a report without a trailing
// newline.
func FormatText(r *detector.Report) string {
	lines := []string{
		fmt.Sprintf("WAF Presence: %s (confidence=%.2f)", Verdict(r), r.Confidence),
	}

	if len(r.VendorGuesses) > 0 {
		lines = append(lines, "Possible vendors: "+strings.Join(r.VendorGuesses, ", "))
	}

	if r.Rationale != "" {
		lines = append(lines, "Rationale: "+r.Rationale)
	}

	if len(r.Indicators) > 0 {
		lines = append(lines, "Indicators:")
		for _, i := range r.Indicators {
			lines = append(lines, fmt.Sprintf("  - [%.2f] %s :: %s :: %s", i.Weight, i.Source, i.Key, i.Note))
		}
	}

	return strings.Join(lines, "\n")
}
