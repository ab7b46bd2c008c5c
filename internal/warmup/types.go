package warmup

import (
	"context"
	"time"
)

// Job recomputes one cached dataset.
type Job interface {
	// Name returns the unique identifier for this job
	Name() string

	// Run refreshes the dataset
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string {
	return j.JobName
}

func (j JobFunc) Run(ctx context.Context) error {
	return j.Fn(ctx)
}

// Config holds configuration for a warm-up run
type Config struct {
	WorkerCount   int           // Number of concurrent workers
	JobTimeout    time.Duration // Max time for a single attempt
	RetryAttempts int           // Attempts per job, including the first
	RetryBackoff  time.Duration // Wait between attempts
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount:   3,
		JobTimeout:    2 * time.Minute,
		RetryAttempts: 2,
		RetryBackoff:  5 * time.Second,
	}
}

// RunStatus represents the current state of a run or job
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// JobResult tracks the execution of a single job
type JobResult struct {
	Name         string
	Status       RunStatus
	Attempts     int
	Duration     time.Duration
	ErrorMessage string
}

// Run tracks a single execution over every job. Status is failed when any
// job failed.
type Run struct {
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Results     []JobResult
}

// Failed returns the results of jobs that did not complete.
func (r Run) Failed() []JobResult {
	var failed []JobResult
	for _, res := range r.Results {
		if res.Status != StatusCompleted {
			failed = append(failed, res)
		}
	}
	return failed
}
