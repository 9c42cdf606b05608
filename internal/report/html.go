package report

import (
	"io"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/wallarm/wafpresence/internal/helpers"
	"github.com/wallarm/wafpresence/internal/scanner"
	"github.com/wallarm/wafpresence/internal/version"
	htmlreport "github.com/wallarm/wafpresence/pkg/report"
)

const maxReportFilenameLength = 249 // 255 (max length) - 5 (".html") - 1 (to be sure)

// ExportHTMLReport saves the results as an HTML report with a chart of the
// vendor votes.
func ExportHTMLReport(results []*scanner.Result, reportFile string, fingerprintsFP string, reportTime time.Time) error {
	_, reportFileName := filepath.Split(reportFile)
	if len(reportFileName) > maxReportFilenameLength {
		return errors.New("report filename too long")
	}

	data := prepareHTMLReport(results, fingerprintsFP, reportTime)

	if err := htmlreport.ValidateReportData(data); err != nil {
		return errors.Wrap(err, "couldn't validate report data")
	}

	buffer, err := htmlreport.RenderFullReportToHTML(data)
	if err != nil {
		return errors.Wrap(err, "couldn't render HTML report")
	}

	err = helpers.WriteFile(reportFile, "wafpresence_report_*.html", func(w io.Writer) error {
		_, err := buffer.WriteTo(w)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "couldn't save HTML report")
	}

	return nil
}

func prepareHTMLReport(results []*scanner.Result, fingerprintsFP string, reportTime time.Time) *htmlreport.HtmlReport {
	data := &htmlreport.HtmlReport{
		Version:        version.Version,
		AnalysisDate:   reportTime.Format("02 January 2006"),
		FingerprintsFP: fingerprintsFP,
	}

	// highest vote of every vendor over all captures, shown capped at 1
	votes := make(map[string]float64)
	var vendors []string

	for _, r := range results {
		capture := &htmlreport.Capture{Input: r.Input}

		if r.Err != nil {
			capture.Verdict = htmlreport.VerdictError
			capture.CSSClassSuffix = htmlreport.VerdictSuffix(htmlreport.VerdictError)
			capture.Error = r.Err.Error()
			data.FailedNumber++
			data.Captures = append(data.Captures, capture)
			continue
		}

		report := r.Report
		capture.Verdict = Verdict(report)
		capture.CSSClassSuffix = htmlreport.VerdictSuffix(capture.Verdict)
		capture.Confidence = report.Confidence
		capture.VendorGuesses = report.VendorGuesses
		capture.Rationale = report.Rationale

		for _, i := range report.Indicators {
			capture.Indicators = append(capture.Indicators, &htmlreport.Indicator{
				Source: i.Source,
				Key:    i.Key,
				Value:  i.Value,
				Weight: i.Weight,
				Note:   i.Note,
			})
		}

		for _, v := range report.VendorVotes {
			score, ok := votes[v.Vendor]
			if !ok {
				vendors = append(vendors, v.Vendor)
			}
			if v.Score > score {
				votes[v.Vendor] = v.Score
			}
		}

		if report.LikelyWAF {
			data.LikelyNumber++
		} else {
			data.UnlikelyNumber++
		}

		data.Captures = append(data.Captures, capture)
	}

	sort.SliceStable(vendors, func(i, j int) bool {
		return votes[vendors[i]] > votes[vendors[j]]
	})

	for _, v := range vendors {
		data.VotesChartData.Vendors = append(data.VotesChartData.Vendors, v)
		data.VotesChartData.Scores = append(data.VotesChartData.Scores, math.Min(votes[v], 1))
	}

	return data
}
