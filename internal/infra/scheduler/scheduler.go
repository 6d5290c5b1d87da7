package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifecycle_notification_service/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultBatchTimeout = 30 * time.Minute

// ErrBatchIncomplete is returned by RunNow when the batch finished but some
// subjects failed or were never processed.
var ErrBatchIncomplete = errors.New("lifecycle batch finished with unprocessed subjects")

// BatchRunner runs one lifecycle batch and reports it.
type BatchRunner interface {
	RunScheduledBatch(ctx context.Context) (*app.BatchSummary, error)
}

type BatchScheduler struct {
	cronEngine    *cron.Cron
	baseCtx       context.Context // cancelled by Stop so a running batch winds down
	cancel        context.CancelFunc
	runner        BatchRunner
	logger        *logrus.Entry
	cronSpecDaily string
	batchTimeout  time.Duration
}

func NewBatchScheduler(
	runner BatchRunner,
	logger *logrus.Entry,
	location *time.Location,
	cronSpecDaily string, // e.g., "0 6 * * *" (06:00 daily)
	batchTimeout time.Duration,
) *BatchScheduler {
	if location == nil {
		location = time.Local
	}
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}
	log := logger.WithField("component", "scheduler")
	baseCtx, cancel := context.WithCancel(context.Background())
	return &BatchScheduler{
		baseCtx:       baseCtx,
		cancel:        cancel,
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cron.PrintfLogger(log)),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		runner:        runner,
		logger:        log,
		cronSpecDaily: cronSpecDaily,
		batchTimeout:  batchTimeout,
	}
}

// Start registers the daily batch job and starts the cron engine.
func (s *BatchScheduler) Start() error {
	s.logger.Info("Starting lifecycle batch scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily lifecycle batch.")
		_ = s.RunNow() // outcome is logged and reported by RunNow
	})
	if err != nil {
		return fmt.Errorf("could not add daily batch cron job %q: %w", s.cronSpecDaily, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpecDaily).Info("Lifecycle batch scheduler started.")
	return nil
}

// RunNow runs one batch synchronously with the configured timeout. It returns
// the runner error, or ErrBatchIncomplete when subjects failed or were cancelled.
func (s *BatchScheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.batchTimeout)
	defer cancel()

	summary, err := s.runner.RunScheduledBatch(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Daily lifecycle batch failed")
		return err
	}
	if summary.Failed > 0 || summary.Cancelled > 0 {
		s.logger.WithFields(logrus.Fields{
			"run_id":    summary.RunID.String(),
			"failed":    summary.Failed,
			"cancelled": summary.Cancelled,
		}).Warn("Daily lifecycle batch finished with unprocessed subjects")
		return fmt.Errorf("%w: run %s, %d failed, %d cancelled", ErrBatchIncomplete, summary.RunID, summary.Failed, summary.Cancelled)
	}
	return nil
}

// Stop cancels a running batch between subjects, stops the cron engine and
// returns a context that is done once the running job has returned.
func (s *BatchScheduler) Stop() context.Context {
	s.logger.Info("Stopping lifecycle batch scheduler...")
	s.cancel()
	return s.cronEngine.Stop()
}
