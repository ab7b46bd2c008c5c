package warmup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/cache"
	"github.com/andresuchdata/dialfa-analytics/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRunsAllJobs(t *testing.T) {
	var calls atomic.Int32
	job := func(name string) Job {
		return JobFunc{JobName: name, Fn: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		}}
	}

	runner := NewRunner([]Job{job("b"), job("a"), job("c")}, Config{WorkerCount: 2})
	run, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, run.Results, 3)
	assert.Equal(t, "a", run.Results[0].Name)
	assert.Empty(t, run.Failed())
	assert.False(t, run.CompletedAt.Before(run.StartedAt))
}

func TestRunnerRetriesAndReportsFailures(t *testing.T) {
	var flaky atomic.Int32
	jobs := []Job{
		JobFunc{JobName: "flaky", Fn: func(ctx context.Context) error {
			if flaky.Add(1) == 1 {
				return errors.New("transient")
			}
			return nil
		}},
		JobFunc{JobName: "broken", Fn: func(ctx context.Context) error {
			return errors.New("permanent")
		}},
	}

	runner := NewRunner(jobs, Config{WorkerCount: 1, RetryAttempts: 2})
	run, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, run.Status)
	failed := run.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].Name)
	assert.Equal(t, 2, failed[0].Attempts)
	assert.Equal(t, "permanent", failed[0].ErrorMessage)

	for _, res := range run.Results {
		if res.Name == "flaky" {
			assert.Equal(t, StatusCompleted, res.Status)
			assert.Equal(t, 2, res.Attempts)
		}
	}
}

func TestRunnerAppliesJobTimeout(t *testing.T) {
	job := JobFunc{JobName: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	run, err := NewRunner([]Job{job}, Config{JobTimeout: 10 * time.Millisecond}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, StatusFailed, run.Results[0].Status)
	assert.Contains(t, run.Results[0].ErrorMessage, "deadline")
}

func TestRunnerSelectsJobs(t *testing.T) {
	var ran []string
	job := func(name string) Job {
		return JobFunc{JobName: name, Fn: func(ctx context.Context) error {
			ran = append(ran, name)
			return nil
		}}
	}
	runner := NewRunner([]Job{job("a"), job("b")}, Config{})
	assert.Equal(t, []string{"a", "b"}, runner.Jobs())

	_, err := runner.Run(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ran)

	_, err = runner.Run(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDatasetJobsCoverEveryServiceDataset(t *testing.T) {
	jobs := DatasetJobs(cache.NewNoopAnalyticsCache(), Services{
		Purchase:  &service.PurchaseService{},
		Inventory: &service.InventoryService{},
		Financial: &service.FinancialService{},
		Dashboard: &service.DashboardService{},
	})

	require.Len(t, jobs, 16)
	for _, j := range jobs {
		assert.True(t, service.KnownDataset(j.Name()), j.Name())
	}
	assert.Empty(t, DatasetJobs(nil, Services{}))
}

func TestDatasetJobsSkipRevenue(t *testing.T) {
	jobs := DatasetJobs(nil, Services{Financial: &service.FinancialService{}, SkipRevenue: true})

	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{
		service.DatasetCreditRisk,
		service.DatasetAgingAnalysis,
		service.DatasetCashFlowHistory,
		service.DatasetCashFlowForecast,
	}, names)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	runner := NewRunner(nil, DefaultConfig())

	_, err := NewScheduler(runner, "every now and then")
	assert.Error(t, err)

	s, err := NewScheduler(runner, "*/5 * * * *")
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
