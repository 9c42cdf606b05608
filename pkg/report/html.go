package report

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"strings"

	"github.com/pkg/errors"
)

//go:embed report_template.html
var HtmlTemplate string

const (
	VerdictLikely   = "LIKELY PRESENT"
	VerdictUnlikely = "UNLIKELY/INDETERMINATE"
	VerdictError    = "ERROR"
)

// HtmlReport represents a data required to render a WAF presence report in
// HTML format.
type HtmlReport struct {
	Version        string `json:"version" validate:"required,wp_version"`
	AnalysisDate   string `json:"analysis_date" validate:"required,datetime=02 January 2006"`
	FingerprintsFP string `json:"fingerprints_fp" validate:"required,fp"`

	LikelyNumber   int `json:"likely_number" validate:"min=0"`
	UnlikelyNumber int `json:"unlikely_number" validate:"min=0"`
	FailedNumber   int `json:"failed_number" validate:"min=0"`

	VotesChartData struct {
		Vendors []string       `json:"vendors" validate:"omitempty,max=100,dive,required,max=256"`
		Scores  []float64      `json:"scores" validate:"omitempty,max=100,dive,min=0,max=1"`
		Chart   *template.HTML `json:"-" validate:"-"`
	} `json:"votes_chart_data"`

	Captures []*Capture `json:"captures" validate:"required,min=1,dive,required"`
}

// Capture is the analysis of one input file.
type Capture struct {
	Input          string  `json:"input" validate:"required,max=4096"`
	Verdict        string  `json:"verdict" validate:"required,verdict"`
	CSSClassSuffix string  `json:"css_class_suffix" validate:"required,css_suffix"`
	Confidence     float64 `json:"confidence" validate:"min=0,max=1"`

	VendorGuesses []string     `json:"vendor_guesses" validate:"omitempty,dive,required"`
	Rationale     string       `json:"rationale"`
	Indicators    []*Indicator `json:"indicators" validate:"omitempty,dive,required"`

	// Used for failed captures
	Error string `json:"error,omitempty"`
}

type Indicator struct {
	Source string  `json:"source" validate:"required"`
	Key    string  `json:"key"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight" validate:"gt=0,lte=1"`
	Note   string  `json:"note" validate:"required"`
}

// RenderFullReportToHTML substitutes report data into HTML template.
func RenderFullReportToHTML(reportData *HtmlReport) (*bytes.Buffer, error) {
	votesChart, err := generateVotesChart(reportData.VotesChartData.Vendors, reportData.VotesChartData.Scores)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't generate chart script")
	}

	if votesChart != nil {
		v := template.HTML(*votesChart)
		reportData.VotesChartData.Chart = &v
	}

	templ := template.Must(
		template.New("report").
			Funcs(template.FuncMap{
				"StringsJoin":  strings.Join,
				"FormatWeight": FormatWeight,
			}).
			Parse(HtmlTemplate))

	var buffer bytes.Buffer

	err = templ.Execute(io.MultiWriter(&buffer), reportData)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't execute template")
	}

	return &buffer, nil
}
