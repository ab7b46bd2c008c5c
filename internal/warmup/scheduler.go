package warmup

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler triggers the runner on a cron schedule. A run still in progress
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

func NewScheduler(runner *Runner, spec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, runner: runner}

	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid warmup schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	run, err := s.runner.Run(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("warmup: scheduled run failed")
		return
	}
	for _, failed := range run.Failed() {
		log.Warn().Str("job", failed.Name).Str("error", failed.ErrorMessage).Msg("warmup: job failed")
	}
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running warm-up to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("warmup: stop timed out with a run in progress")
	}
}
