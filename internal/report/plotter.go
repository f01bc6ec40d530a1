package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/isotrace-data/nacorrect/internal/workflow"
)

// EnrichmentPlotter writes one PNG bar plot per corrected group, showing the
// fraction of pool at each labeling state. Useful for offline inspection
// without a browser.
type EnrichmentPlotter struct {
	outputDir string
}

// NewEnrichmentPlotter creates a plotter writing into outputDir.
func NewEnrichmentPlotter(outputDir string) *EnrichmentPlotter {
	return &EnrichmentPlotter{outputDir: outputDir}
}

// PlotRun renders every successful group in the run. Returns the paths of the
// files written.
func (p *EnrichmentPlotter) PlotRun(run workflow.Run) ([]string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var files []string
	for _, gr := range run.Results {
		if gr.Err != nil {
			continue
		}
		file, err := p.plotGroup(gr)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (p *EnrichmentPlotter) plotGroup(gr workflow.GroupResult) (string, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s / %s", gr.Group.Metabolite, gr.Group.Sample)
	pl.X.Label.Text = "labeled atoms"
	pl.Y.Label.Text = "fraction of pool"
	pl.Y.Min, pl.Y.Max = 0, 1

	values := make(plotter.Values, len(gr.Result.Enrichment))
	copy(values, gr.Result.Enrichment)

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return "", fmt.Errorf("bar chart for %s/%s: %w", gr.Group.Metabolite, gr.Group.Sample, err)
	}
	pl.Add(bars)

	labels := make([]string, len(values))
	for i := range labels {
		labels[i] = fmt.Sprintf("M%d", i)
	}
	pl.NominalX(labels...)

	file := filepath.Join(p.outputDir, fmt.Sprintf("%s_%s_enrichment.png",
		sanitize(gr.Group.Metabolite), sanitize(gr.Group.Sample)))
	if err := pl.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	return file, nil
}

// sanitize keeps file names portable for metabolite names that carry spaces
// or separators.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
