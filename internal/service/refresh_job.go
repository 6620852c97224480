package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSchedule recomputes bad segments every 15 minutes
const DefaultRefreshSchedule = "@every 15m"

// Refresher recomputes the bad segment projection
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RefreshJob periodically refreshes bad segments on a cron schedule
type RefreshJob struct {
	cronScheduler *cron.Cron
	refresher     Refresher
	schedule      string
	timeout       time.Duration
	logger        *zap.Logger
	jobID         cron.EntryID
}

// NewRefreshJob creates a refresh job. An empty schedule uses DefaultRefreshSchedule.
func NewRefreshJob(refresher Refresher, schedule string, logger *zap.Logger) *RefreshJob {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshJob{
		cronScheduler: cron.New(),
		refresher:     refresher,
		schedule:      schedule,
		timeout:       time.Minute,
		logger:        logger,
	}
}

// Start schedules the job and starts the scheduler
func (j *RefreshJob) Start() error {
	var err error
	j.jobID, err = j.cronScheduler.AddFunc(j.schedule, j.RunOnce)
	if err != nil {
		return fmt.Errorf("error scheduling segment refresh %q: %w", j.schedule, err)
	}

	j.cronScheduler.Start()
	j.logger.Info("segment refresh scheduler started", zap.String("schedule", j.schedule))
	return nil
}

// Stop terminates the scheduler and waits for a running refresh to finish
func (j *RefreshJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	<-j.cronScheduler.Stop().Done()
	j.logger.Info("segment refresh scheduler stopped")
}

// RunOnce refreshes segments immediately. Failures are logged, never fatal.
func (j *RefreshJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	count, err := j.refresher.Refresh(ctx)
	if err != nil {
		j.logger.Error("scheduled segment refresh failed", zap.Error(err))
		return
	}
	j.logger.Debug("scheduled segment refresh done", zap.Int("segments", count))
}

// SegmentRefresher adapts a SegmentService to Refresher
type SegmentRefresher struct {
	Service *SegmentService
}

func (r SegmentRefresher) Refresh(ctx context.Context) (int, error) {
	segments, err := r.Service.Refresh(ctx)
	return len(segments), err
}
