package sched

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"learnloop/internal/usecase"
)

// BatchRunner executes orchestrator runs on a cron schedule (daemon mode).
// Runs never overlap: a still-running job blocks the next trigger.
type BatchRunner struct {
	orchestrator *usecase.BatchOrchestrator
	scheduler    *gocron.Scheduler
	cron         string
	log          *zerolog.Logger
}

func NewBatchRunner(orchestrator *usecase.BatchOrchestrator, cron string, logger *zerolog.Logger) *BatchRunner {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	l := logger.With().Str("component", "BatchRunner").Logger()
	return &BatchRunner{
		orchestrator: orchestrator,
		scheduler:    s,
		cron:         cron,
		log:          &l,
	}
}

// Start schedules the cron job and runs it asynchronously until Stop.
func (r *BatchRunner) Start(ctx context.Context) error {
	_, err := r.scheduler.Cron(r.cron).Do(func() {
		summary, err := r.orchestrator.Run(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("scheduled batch run failed")
			return
		}
		r.log.Info().
			Str("run_id", summary.RunID).
			Int("submitted", summary.Submitted).
			Int("completed", summary.Completed).
			Int("failed", summary.Failed).
			Msg("scheduled batch run finished")
	})
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	r.log.Info().Str("cron", r.cron).Msg("batch runner started")
	return nil
}

func (r *BatchRunner) Stop() {
	r.scheduler.Stop()
}
