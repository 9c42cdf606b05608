package report

import (
	"bytes"
	"regexp"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

const (
	titleColor = "#000000"

	votesChartID = "votes_chart"
)

var (
	scriptRegex   = regexp.MustCompile(`<script type="text/javascript">(\n|.)*</script>`)
	rendererRegex = regexp.MustCompile(`(echarts\.init\()(.*)(\))`)
)

// generateVotesChart generates JS code to render the vendor votes bar chart
// in HTML report. No chart is generated without votes.
func generateVotesChart(vendors []string, scores []float64) (*string, error) {
	if len(vendors) != len(scores) {
		return nil, errors.New("the number of vendors does not match the number of scores")
	}

	if len(vendors) == 0 {
		return nil, nil
	}

	items := make([]opts.BarData, len(scores))
	for i, s := range scores {
		items[i] = opts.BarData{
			Name:  vendors[i],
			Value: s,
		}
	}

	chart := charts.NewBar()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Vendor votes",
			Right: "center",
			TitleStyle: &opts.TextStyle{
				Color: titleColor,
			},
		}),
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: votesChartID,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Min: 0,
			Max: 1,
		}),
	)
	chart.SetXAxis(vendors).AddSeries("vote", items)

	var buffer bytes.Buffer

	err := chart.Render(&buffer)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't render chart")
	}

	scriptParts := scriptRegex.FindAllString(buffer.String(), -1)
	if len(scriptParts) != 1 {
		return nil, errors.New("couldn't get chart script")
	}

	script := rendererRegex.ReplaceAllString(scriptParts[0], "$1$2, {renderer: \"svg\"}$3")

	return &script, nil
}
