package sync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"dotasync/internal/domain"
)

// Scheduler triggers periodic incremental syncs for every known account on
// a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	svc      *Service
	jobs     domain.SyncJobRepository
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a new periodic sync scheduler. schedule is a
// standard five-field cron expression; an empty schedule disables the
// scheduler.
func NewScheduler(svc *Service, jobs domain.SyncJobRepository, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		svc:      svc,
		jobs:     jobs,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the periodic sync entry and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("periodic sync disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.syncAllAccounts); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("periodic sync scheduler started", "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the cron runner.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("periodic sync scheduler stopped")
}

// syncAllAccounts triggers an incremental sync for every account that has
// synced before. Accounts mid-sync are skipped: their trigger fails the
// single-active-sync check, which is the expected steady state for long
// running jobs.
func (s *Scheduler) syncAllAccounts() {
	ctx := context.Background()

	accounts, err := s.jobs.ListAccounts(ctx)
	if err != nil {
		s.logger.Warn("periodic sync: list accounts failed", "error", err)
		return
	}

	for _, accountID := range accounts {
		_, err := s.svc.Trigger(ctx, accountID, domain.TriggerSyncRequest{
			JobType: domain.JobTypeIncrementalSync,
		})
		if err != nil {
			var conflict *domain.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			s.logger.Warn("periodic sync trigger failed", "account_id", accountID, "error", err)
		}
	}
}
