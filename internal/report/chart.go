// Package report renders correction runs as human-readable artifacts: an
// HTML enrichment chart and offline PNG plots.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/isotrace-data/nacorrect/internal/mavenio"
	"github.com/isotrace-data/nacorrect/internal/workflow"
)

// WriteEnrichmentChart renders a stacked bar chart of fractional enrichment
// per labeling state, one bar per (metabolite, sample) group. Failed groups
// are omitted.
func WriteEnrichmentChart(w io.Writer, run workflow.Run) error {
	var xAxis []string
	maxStates := 0
	for _, gr := range run.Results {
		if gr.Err != nil {
			continue
		}
		xAxis = append(xAxis, fmt.Sprintf("%s (%s)", gr.Group.Metabolite, gr.Group.Sample))
		if n := len(gr.Result.Enrichment); n > maxStates {
			maxStates = n
		}
	}
	if len(xAxis) == 0 {
		return fmt.Errorf("run %s has no successful groups to chart", run.ID)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fractional Enrichment", Width: "1200px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Fractional enrichment by labeling state",
			Subtitle: fmt.Sprintf("run=%s tracer=%s groups=%d", run.ID, run.Tracer, len(xAxis)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "fraction of pool", Min: 0, Max: 1}),
	)
	bar.SetXAxis(xAxis)

	// One stacked series per labeling state so each bar totals 1.
	for state := 0; state < maxStates; state++ {
		label, err := mavenio.FormatLabel(run.Tracer, state)
		if err != nil {
			// The run's tracer was valid for every corrected group; an
			// unknown tracer here means the results were not produced by
			// this engine.
			return err
		}
		data := make([]opts.BarData, 0, len(xAxis))
		for _, gr := range run.Results {
			if gr.Err != nil {
				continue
			}
			v := 0.0
			if state < len(gr.Result.Enrichment) {
				v = gr.Result.Enrichment[state]
			}
			data = append(data, opts.BarData{Value: v})
		}
		bar.AddSeries(label, data, charts.WithBarChartOpts(opts.BarChart{Stack: "enrichment"}))
	}

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
