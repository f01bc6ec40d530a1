// Command gen-fixture emits a synthetic MAVEN-style intensity file by running
// the forward natural-abundance model over known true labeling vectors. Use
// it to produce regression fixtures with exactly reproducible inputs.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/isotrace-data/nacorrect/internal/correct"
	"github.com/isotrace-data/nacorrect/internal/formula"
	"github.com/isotrace-data/nacorrect/internal/mavenio"
	"github.com/isotrace-data/nacorrect/internal/workflow"
)

func main() {
	output := flag.String("o", "fixture.csv", "output path")
	formulaStr := flag.String("formula", "C3H7O2", "metabolite formula")
	name := flag.String("name", "synthetic", "metabolite name")
	tracer := flag.String("tracer", "C", "tracer element")
	samples := flag.Int("samples", 3, "number of samples")
	seed := flag.Int64("seed", 1, "random seed for true vectors")
	flag.Parse()

	f, err := formula.Parse(*formulaStr)
	if err != nil {
		log.Fatalf("bad formula: %v", err)
	}
	n := f.Count(*tracer)
	if n == 0 {
		log.Fatalf("tracer %q not in formula %s", *tracer, *formulaStr)
	}

	m, err := correct.BuildMatrix(f, correct.TracerSpec{Element: *tracer, MaxLabel: n})
	if err != nil {
		log.Fatalf("failed to build matrix: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	groups := make([]workflow.Group, 0, *samples)
	for s := 0; s < *samples; s++ {
		truth := make([]float64, n+1)
		truth[0] = 100 + 900*rng.Float64()
		for i := 1; i <= n; i++ {
			truth[i] = truth[i-1] * rng.Float64()
		}

		observed, err := m.Observe(truth)
		if err != nil {
			log.Fatalf("forward model failed: %v", err)
		}
		groups = append(groups, workflow.Group{
			Metabolite: *name,
			Formula:    *formulaStr,
			Tracer:     *tracer,
			Sample:     sampleName(s),
			Observed:   observed,
		})
	}

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer out.Close()
	if err := mavenio.WriteIntensities(out, groups); err != nil {
		log.Fatalf("failed to write fixture: %v", err)
	}
	log.Printf("✓ Created: %s (%d samples, %d labeling states)", *output, *samples, n+1)
}

func sampleName(i int) string {
	return "sample_" + string(rune('a'+i%26))
}
