package pacing

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one independent steady-state run of an ensemble.
type Job struct {
	Name      string
	Driver    *Driver
	Paces     int
	Tolerance float64
}

type EnsembleOptions struct {
	Workers  int  // concurrent jobs, default GOMAXPROCS
	FailFast bool // cancel the remaining jobs after the first failure
}

type EnsembleResult struct {
	Name   string
	Steady *SteadyState
	Err    error
}

// RunEnsemble runs each job's RunSimulation on its own goroutine. Jobs must
// not share drivers or models. Results are in job order.
func RunEnsemble(ctx context.Context, jobs []Job, opts EnsembleOptions) []EnsembleResult {
	results := make([]EnsembleResult, len(jobs))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g *errgroup.Group
	if opts.FailFast {
		g, ctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(workers)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Driver.RunSimulation(ctx, job.Paces, job.Tolerance)
			results[i] = EnsembleResult{Name: job.Name, Steady: res, Err: err}
			if opts.FailFast {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
