// Package workflow runs natural-abundance correction over batches of
// metabolite/sample groups.
//
// Groups are independent, so the runner fans them out across a worker pool
// sharing a read-mostly matrix cache. Per-group failures are recorded on the
// group's result and never abort the rest of the batch.
package workflow

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/isotrace-data/nacorrect/internal/correct"
	"github.com/isotrace-data/nacorrect/internal/formula"
	"github.com/isotrace-data/nacorrect/internal/monitoring"
)

// Group is one (metabolite, sample) unit of work: the observed intensity per
// labeled-atom count, plus the metadata needed to build its correction
// matrix.
type Group struct {
	Metabolite string
	Formula    string
	Tracer     string
	Sample     string
	Observed   []float64
}

// GroupResult tags a correction result (or the error that prevented one) with
// its originating group.
type GroupResult struct {
	Group  Group
	Result correct.Result
	Err    error
}

// Run is the outcome of one batch.
type Run struct {
	ID       string
	Tracer   string
	Started  time.Time
	Finished time.Time
	Results  []GroupResult
}

// Failed counts the groups that produced an error.
func (r Run) Failed() int {
	n := 0
	for _, gr := range r.Results {
		if gr.Err != nil {
			n++
		}
	}
	return n
}

// Config holds runner settings.
type Config struct {
	// Workers is the worker pool size. Zero or negative means NumCPU.
	Workers int

	// Cache shares correction matrices across groups and batches. Nil means
	// a fresh cache per runner.
	Cache *correct.MatrixCache
}

// DefaultConfig returns settings suitable for a local batch run.
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Runner corrects batches of groups.
type Runner struct {
	workers int
	cache   *correct.MatrixCache
}

// NewRunner builds a Runner from a Config.
func NewRunner(cfg Config) *Runner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = correct.NewMatrixCache()
	}
	return &Runner{workers: workers, cache: cache}
}

// Run corrects every group and returns a Run tagged with a fresh ID. Results
// are positionally aligned with the input groups. When ctx is canceled the
// runner stops dispatching; groups never dispatched carry ctx.Err() as their
// group error.
func (r *Runner) Run(ctx context.Context, tracer string, groups []Group) Run {
	run := Run{
		ID:      uuid.NewString(),
		Tracer:  tracer,
		Started: time.Now().UTC(),
		Results: make([]GroupResult, len(groups)),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				run.Results[idx] = r.processGroup(groups[idx])
			}
		}()
	}

dispatch:
	for idx := range groups {
		if ctx.Err() == nil {
			select {
			case jobs <- idx:
				continue
			case <-ctx.Done():
			}
		}
		// Indices from idx on were never handed to a worker, so they are
		// safe to mark here.
		for i := idx; i < len(groups); i++ {
			run.Results[i] = GroupResult{Group: groups[i], Err: ctx.Err()}
		}
		break dispatch
	}
	close(jobs)
	wg.Wait()

	run.Finished = time.Now().UTC()
	if failed := run.Failed(); failed > 0 {
		monitoring.Logf("run %s: %d/%d groups failed", run.ID, failed, len(groups))
	}
	return run
}

// processGroup runs one group through parse, matrix build, solve, aggregate.
func (r *Runner) processGroup(g Group) GroupResult {
	out := GroupResult{Group: g}

	f, err := formula.Parse(g.Formula)
	if err != nil {
		out.Err = err
		monitoring.Logf("group %s/%s: %v", g.Metabolite, g.Sample, err)
		return out
	}

	// The label range resolves from the formula; a vector of any other
	// length is a dimension mismatch in the solve.
	spec := correct.TracerSpec{Element: g.Tracer, MaxLabel: f.Count(g.Tracer)}
	m, err := r.cache.Get(f, spec)
	if err != nil {
		out.Err = err
		monitoring.Logf("group %s/%s: %v", g.Metabolite, g.Sample, err)
		return out
	}

	corrected, err := correct.Solve(m, g.Observed)
	if err != nil {
		out.Err = err
		monitoring.Logf("group %s/%s: %v", g.Metabolite, g.Sample, err)
		return out
	}

	out.Result = correct.Aggregate(corrected)
	return out
}
