package warmup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Runner executes warm-up jobs on a bounded worker pool.
type Runner struct {
	jobs   []Job
	config Config
}

func NewRunner(jobs []Job, config Config) *Runner {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &Runner{jobs: jobs, config: config}
}

// Jobs returns the names of the registered jobs.
func (r *Runner) Jobs() []string {
	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.Name())
	}
	return names
}

// Run executes every job whose name is in only, or all jobs when only is
// empty. A failing job never stops the others.
func (r *Runner) Run(ctx context.Context, only ...string) (Run, error) {
	jobs, err := r.selectJobs(only)
	if err != nil {
		return Run{Status: StatusFailed}, err
	}

	run := Run{Status: StatusProcessing, StartedAt: time.Now()}
	log.Info().Int("jobs", len(jobs)).Int("workers", r.config.WorkerCount).Msg("warmup: starting run")

	jobChan := make(chan Job, len(jobs))
	resultChan := make(chan JobResult, len(jobs))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < r.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				resultChan <- r.runJob(ctx, job)
			}
		}()
	}

	// Enqueue jobs
	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	wg.Wait()
	close(resultChan)

	for res := range resultChan {
		run.Results = append(run.Results, res)
	}
	sort.Slice(run.Results, func(i, j int) bool { return run.Results[i].Name < run.Results[j].Name })

	run.CompletedAt = time.Now()
	run.Status = StatusCompleted
	if failed := run.Failed(); len(failed) > 0 {
		run.Status = StatusFailed
		log.Warn().Int("failed", len(failed)).Dur("duration", run.CompletedAt.Sub(run.StartedAt)).Msg("warmup: run finished with failures")
	} else {
		log.Info().Dur("duration", run.CompletedAt.Sub(run.StartedAt)).Msg("warmup: run completed")
	}

	return run, nil
}

// runJob retries a job until it succeeds, attempts run out or ctx ends.
func (r *Runner) runJob(ctx context.Context, job Job) JobResult {
	start := time.Now()
	result := JobResult{Name: job.Name(), Status: StatusProcessing}

	var err error
	for result.Attempts < r.config.RetryAttempts {
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		if result.Attempts > 0 && r.config.RetryBackoff > 0 {
			log.Debug().Str("job", job.Name()).Int("attempt", result.Attempts+1).Msg("warmup: retrying job")
			select {
			case <-ctx.Done():
			case <-time.After(r.config.RetryBackoff):
			}
			if ctx.Err() != nil {
				err = ctx.Err()
				break
			}
		}

		result.Attempts++
		err = r.attempt(ctx, job)
		if err == nil {
			break
		}
		log.Warn().Err(err).Str("job", job.Name()).Int("attempt", result.Attempts).Msg("warmup: job attempt failed")
	}

	result.Duration = time.Since(start)
	metrics.RecordWarmupRun(job.Name(), err)
	if err != nil {
		result.Status = StatusFailed
		result.ErrorMessage = err.Error()
		return result
	}
	result.Status = StatusCompleted
	return result
}

func (r *Runner) attempt(ctx context.Context, job Job) error {
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}
	return job.Run(ctx)
}

func (r *Runner) selectJobs(only []string) ([]Job, error) {
	if len(only) == 0 {
		return r.jobs, nil
	}

	byName := make(map[string]Job, len(r.jobs))
	for _, j := range r.jobs {
		byName[j.Name()] = j
	}

	selected := make([]Job, 0, len(only))
	for _, name := range only {
		job, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown warmup job %q", name)
		}
		selected = append(selected, job)
	}
	return selected, nil
}
