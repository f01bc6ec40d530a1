// Command nacorrect removes natural isotope abundance from isotopologue
// intensity measurements and reports pool totals and fractional enrichment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/isotrace-data/nacorrect/internal/mavenio"
	"github.com/isotrace-data/nacorrect/internal/report"
	"github.com/isotrace-data/nacorrect/internal/resultdb"
	"github.com/isotrace-data/nacorrect/internal/version"
	"github.com/isotrace-data/nacorrect/internal/workflow"
)

var (
	inputPath   = flag.String("input", "", "MAVEN-style intensity CSV to correct (required)")
	tracer      = flag.String("tracer", "C", "Tracer element symbol (C for 13C tracing, N for 15N)")
	outputPath  = flag.String("output", "corrected.csv", "Corrected CSV output path")
	dbPath      = flag.String("db", "", "Optional sqlite database recording the run")
	chartPath   = flag.String("chart", "", "Optional HTML enrichment chart output path")
	plotDir     = flag.String("plot-dir", "", "Optional directory for PNG enrichment plots")
	workers     = flag.Int("workers", 0, "Worker pool size (0 means number of CPUs)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// correctFile reads a MAVEN intensity file and runs the correction batch.
func correctFile(ctx context.Context, path, tracer string, workers int) (workflow.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return workflow.Run{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	groups, err := mavenio.ReadGroups(f, tracer)
	if err != nil {
		return workflow.Run{}, fmt.Errorf("parse input: %w", err)
	}

	runner := workflow.NewRunner(workflow.Config{Workers: workers})
	return runner.Run(ctx, tracer, groups), nil
}

func describeRun(run workflow.Run) string {
	return fmt.Sprintf("run %s: %d groups corrected, %d failed, took %s",
		run.ID, len(run.Results)-run.Failed(), run.Failed(), run.Finished.Sub(run.Started))
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("nacorrect %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *inputPath == "" {
		log.Fatal("input file is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := correctFile(ctx, *inputPath, *tracer, *workers)
	if err != nil {
		log.Fatalf("failed to correct %s: %v", *inputPath, err)
	}
	log.Print(describeRun(run))

	out, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	if err := mavenio.WriteResults(out, run); err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("failed to close output file: %v", err)
	}
	log.Printf("wrote corrected intensities to %s", *outputPath)

	if *dbPath != "" {
		db, err := resultdb.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open results database: %v", err)
		}
		if err := db.SaveRun(run); err != nil {
			log.Fatalf("failed to save run: %v", err)
		}
		db.Close()
		log.Printf("recorded run %s in %s", run.ID, *dbPath)
	}

	if *chartPath != "" {
		f, err := os.Create(*chartPath)
		if err != nil {
			log.Fatalf("failed to create chart file: %v", err)
		}
		if err := report.WriteEnrichmentChart(f, run); err != nil {
			log.Fatalf("failed to render chart: %v", err)
		}
		f.Close()
		log.Printf("wrote enrichment chart to %s", *chartPath)
	}

	if *plotDir != "" {
		files, err := report.NewEnrichmentPlotter(*plotDir).PlotRun(run)
		if err != nil {
			log.Fatalf("failed to render plots: %v", err)
		}
		log.Printf("wrote %d enrichment plots to %s", len(files), *plotDir)
	}

	if len(run.Results) > 0 && run.Failed() == len(run.Results) {
		log.Fatal("every group in the batch failed")
	}
}
