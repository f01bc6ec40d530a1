package mavenio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/isotrace-data/nacorrect/internal/workflow"
)

var outputHeader = []string{
	"Name", "Formula", "Label", "Sample",
	"NA Corrected", "Pool Total", "Fractional Enrichment",
}

// WriteResults renders a run as long-format corrected CSV, one row per
// (metabolite, label state, sample). Failed groups are skipped; the caller
// reports them separately.
func WriteResults(w io.Writer, run workflow.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return err
	}

	for _, gr := range run.Results {
		if gr.Err != nil {
			continue
		}
		for i, corrected := range gr.Result.Corrected {
			label, err := FormatLabel(gr.Group.Tracer, i)
			if err != nil {
				return fmt.Errorf("group %s/%s: %w", gr.Group.Metabolite, gr.Group.Sample, err)
			}
			record := []string{
				gr.Group.Metabolite,
				gr.Group.Formula,
				label,
				gr.Group.Sample,
				formatFloat(corrected),
				formatFloat(gr.Result.PoolTotal),
				formatFloat(gr.Result.Enrichment[i]),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteIntensities renders raw observed intensities in the input format.
// Used by the fixture generator to emit synthetic datasets.
func WriteIntensities(w io.Writer, groups []workflow.Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(inputHeader); err != nil {
		return err
	}
	for _, g := range groups {
		for i, v := range g.Observed {
			label, err := FormatLabel(g.Tracer, i)
			if err != nil {
				return fmt.Errorf("group %s/%s: %w", g.Metabolite, g.Sample, err)
			}
			record := []string{g.Metabolite, g.Formula, label, g.Sample, formatFloat(v)}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
