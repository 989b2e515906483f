// Package sync implements the sync job orchestration core: job dispatch,
// the executor state machine, cooperative cancellation, and status reads.
package sync

import (
	"context"
	"log/slog"
	"time"

	"dotasync/internal/domain"
)

// Tunables for the executor's unit loop.
const (
	defaultPageSize         = 100
	defaultMaxAttempts      = 3
	defaultFetchConcurrency = 4
	defaultJobsLimit        = 10
	maxJobsLimit            = 100
)

// Service provides business logic for sync job orchestration.
type Service struct {
	jobs     domain.SyncJobRepository
	matches  domain.MatchRepository
	provider domain.MatchProvider
	logger   *slog.Logger
	runners  *runnerRegistry

	pageSize         int
	maxAttempts      int
	fetchConcurrency int

	// retryDelay computes the backoff before retry attempt n (n >= 1).
	retryDelay func(attempt int) time.Duration
}

// NewService creates a new sync Service.
func NewService(
	jobs domain.SyncJobRepository,
	matches domain.MatchRepository,
	provider domain.MatchProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		jobs:             jobs,
		matches:          matches,
		provider:         provider,
		logger:           logger,
		runners:          newRunnerRegistry(),
		pageSize:         defaultPageSize,
		maxAttempts:      defaultMaxAttempts,
		fetchConcurrency: defaultFetchConcurrency,
		retryDelay: func(attempt int) time.Duration {
			// Exponential backoff: 1s, 2s, 4s...
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// Trigger creates a pending job for the account and schedules its executor.
// It returns a ConflictError when the account already has an active job;
// the check and the insert are one atomic store operation, so two
// concurrent triggers can never both succeed.
func (s *Service) Trigger(ctx context.Context, accountID int64, req domain.TriggerSyncRequest) (*domain.SyncJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job, err := s.jobs.Create(ctx, accountID, req.JobType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync job triggered",
		"job_id", job.ID,
		"account_id", accountID,
		"job_type", req.JobType,
	)

	runCtx, release := s.runners.register(job.ID)
	go s.executeJob(runCtx, release, job)

	return job, nil
}

// Cancel transitions a pending or running job to cancelled and signals its
// executor to stop at the next checkpoint. Cancelling a terminal job
// returns an InvalidStateError; the transition itself is a compare-and-set,
// so racing the executor's own completion is safe.
func (s *Service) Cancel(ctx context.Context, jobID int64) (*domain.SyncJob, error) {
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, err
	}

	msg := "cancelled by user"
	if err := s.jobs.Finish(ctx, jobID, domain.JobStatusCancelled, &msg); err != nil {
		return nil, err
	}

	// The status is already final; the signal just stops the runner's
	// remaining work. Its guarded writes all miss once the job left
	// 'running', so no progress lands after this point.
	s.runners.cancel(jobID)

	s.logger.Info("sync job cancelled", "job_id", jobID)
	return s.jobs.GetByID(ctx, jobID)
}

// CancelAll cancels every active job for the account independently and
// reports the outcome per job.
func (s *Service) CancelAll(ctx context.Context, accountID int64) ([]domain.CancelResult, error) {
	active, err := s.jobs.ListActive(ctx, accountID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.CancelResult, 0, len(active))
	for _, job := range active {
		cancelled, cancelErr := s.Cancel(ctx, job.ID)
		results = append(results, domain.CancelResult{
			JobID: job.ID,
			Job:   cancelled,
			Err:   cancelErr,
		})
	}
	return results, nil
}

// Status returns the account's externally visible sync view. At most one
// active job can exist per account, so the answer is a single record.
func (s *Service) Status(ctx context.Context, accountID int64) (*domain.SyncStatus, error) {
	active, err := s.jobs.GetActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.SyncStatus{
		IsSyncing: active != nil,
		ActiveJob: active,
	}, nil
}

// Jobs returns the account's job history, newest first, length <= limit.
func (s *Service) Jobs(ctx context.Context, accountID int64, limit int) ([]domain.SyncJob, error) {
	if limit <= 0 {
		limit = defaultJobsLimit
	}
	if limit > maxJobsLimit {
		limit = maxJobsLimit
	}
	return s.jobs.ListByAccount(ctx, accountID, limit)
}

// Job returns a single job record.
func (s *Service) Job(ctx context.Context, jobID int64) (*domain.SyncJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}
