package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/wallarm/wafpresence/internal/detector"
	"github.com/wallarm/wafpresence/internal/scanner"
)

// jsonReport represents a report in JSON format.
type jsonReport struct {
	LikelyWAF     bool                  `json:"likely_waf"`
	Confidence    float64               `json:"confidence"`
	VendorGuesses []string              `json:"vendor_guesses"`
	Rationale     string                `json:"rationale"`
	Indicators    []*detector.Indicator `json:"indicators"`
}

// jsonBatchEntry is one element of the JSON array printed for several inputs.
type jsonBatchEntry struct {
	Input  string      `json:"input"`
	Report *jsonReport `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func newJSONReport(r *detector.Report) *jsonReport {
	report := &jsonReport{
		LikelyWAF:     r.LikelyWAF,
		Confidence:    r.Confidence,
		VendorGuesses: r.VendorGuesses,
		Rationale:     r.Rationale,
		Indicators:    r.Indicators,
	}

	if report.VendorGuesses == nil {
		report.VendorGuesses = []string{}
	}
	if report.Indicators == nil {
		report.Indicators = []*detector.Indicator{}
	}

	return report
}

// RenderJSON prints a report as an indented JSON object.
func RenderJSON(w io.Writer, r *detector.Report) error {
	return writeJSON(w, newJSONReport(r))
}

// RenderBatchJSON prints the results as a JSON array in input order.
func RenderBatchJSON(w io.Writer, results []*scanner.Result) error {
	entries := make([]*jsonBatchEntry, len(results))
	for i, r := range results {
		entries[i] = &jsonBatchEntry{Input: r.Input}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
			continue
		}
		entries[i].Report = newJSONReport(r.Report)
	}

	return writeJSON(w, entries)
}

func writeJSON(w io.Writer, v any) error {
	var buffer bytes.Buffer

	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return errors.Wrap(err, "couldn't dump report to JSON")
	}

	_, err := w.Write(buffer.Bytes())
	return err
}

// ParseJSON reads a report printed by RenderJSON. Vendor votes are not part
// of the JSON form, so the returned report has none.
func ParseJSON(data []byte) (*detector.Report, error) {
	var report jsonReport

	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, "couldn't parse JSON report")
	}

	r := &detector.Report{
		LikelyWAF:     report.LikelyWAF,
		Confidence:    report.Confidence,
		VendorGuesses: report.VendorGuesses,
		Rationale:     report.Rationale,
		Indicators:    report.Indicators,
		VendorVotes:   []*detector.VendorVote{},
	}

	if r.VendorGuesses == nil {
		r.VendorGuesses = []string{}
	}
	if r.Indicators == nil {
		r.Indicators = []*detector.Indicator{}
	}

	return r, nil
}
