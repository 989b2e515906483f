package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"dotasync/internal/domain"
)

// executeJob runs one job to a terminal state in a background goroutine.
//
// ctx carries only the cancellation signal; store writes use a detached
// context so the final transition still lands after ctx is cancelled. All
// store writes are status-guarded, so a transition applied concurrently by
// Cancel simply makes the executor's writes miss.
func (s *Service) executeJob(ctx context.Context, release func(), job *domain.SyncJob) {
	defer release()

	store := context.Background()
	logger := s.logger.With("job_id", job.ID, "account_id", job.AccountID, "job_type", job.JobType)

	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("panic: %v", r)
			logger.Error("sync job panicked", "error", errMsg)
			_ = s.jobs.Finish(store, job.ID, domain.JobStatusFailed, &errMsg)
		}
	}()

	if err := s.jobs.MarkRunning(store, job.ID); err != nil {
		// Cancelled while still pending: never ran, nothing to do.
		var invalid *domain.InvalidStateError
		if errors.As(err, &invalid) {
			logger.Info("job no longer pending, not starting")
		} else {
			logger.Error("failed to mark job running", "error", err)
		}
		return
	}

	err := s.runPlan(ctx, store, job, logger)
	s.finishJob(store, job.ID, err, logger)
}

// runPlan dispatches to the work plan selected by the job type.
func (s *Service) runPlan(ctx, store context.Context, job *domain.SyncJob, logger *slog.Logger) error {
	switch job.JobType {
	case domain.JobTypeCollectMatchIDs:
		collected, err := s.collectIDs(ctx, store, job, true, true)
		if err != nil {
			return err
		}
		// Plan size is only known once enumeration completes.
		return s.jobs.SetTotalMatches(store, job.ID, collected)

	case domain.JobTypeFetchMatchDetails, domain.JobTypeSyncMissing:
		return s.fetchDetails(ctx, store, job, logger)

	case domain.JobTypeFullSync, domain.JobTypeManualSync:
		if _, err := s.collectIDs(ctx, store, job, true, false); err != nil {
			return err
		}
		return s.fetchDetails(ctx, store, job, logger)

	case domain.JobTypeIncrementalSync:
		if _, err := s.collectIDs(ctx, store, job, false, false); err != nil {
			return err
		}
		return s.fetchDetails(ctx, store, job, logger)

	default:
		return domain.ErrValidation("invalid job type: %s", job.JobType)
	}
}

// collectIDs walks the upstream match history newest-first and stores a
// stub per match. A full collect walks every page; an incremental collect
// stops at the newest match that already has details. trackProgress makes
// each collected ID count as one processed unit (standalone collect jobs);
// composite jobs track progress in their fetch phase instead.
func (s *Service) collectIDs(ctx, store context.Context, job *domain.SyncJob, full, trackProgress bool) (int64, error) {
	var latest int64
	if !full {
		var err error
		latest, err = s.matches.LatestDetailedMatchID(store, job.AccountID)
		if err != nil {
			return 0, err
		}
	}

	var collected int64
	offset := 0
	for {
		// Cancellation checkpoint between pages.
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		var page []domain.MatchSummary
		err := s.withRetry(ctx, func() error {
			var fetchErr error
			page, fetchErr = s.provider.GetMatchHistory(ctx, job.AccountID, s.pageSize, offset)
			return fetchErr
		})
		if err != nil {
			return collected, err
		}

		var pageCount, newCount int64
		reachedKnown := false
		for _, m := range page {
			if !full && latest != 0 && m.MatchID <= latest {
				reachedKnown = true
				break
			}
			created, err := s.matches.UpsertStub(store, job.AccountID, m.MatchID)
			if err != nil {
				return collected, err
			}
			if created {
				newCount++
			}
			pageCount++
			collected++
		}

		if trackProgress && pageCount > 0 {
			if err := s.jobs.AddProcessed(store, job.ID, pageCount); err != nil {
				return collected, err
			}
		}
		if newCount > 0 {
			if err := s.jobs.AddNewMatches(store, job.ID, newCount); err != nil {
				return collected, err
			}
		}

		if reachedKnown || !full || len(page) < s.pageSize {
			break
		}
		offset += len(page)
	}

	return collected, nil
}

// fetchDetails resolves every stub missing details. The plan size is known
// up front, units fan out with bounded concurrency, and each unit's
// progress increment follows its durable commit. A unit that exhausts its
// retries fails the whole job; everything already committed stays.
func (s *Service) fetchDetails(ctx, store context.Context, job *domain.SyncJob, logger *slog.Logger) error {
	ids, err := s.matches.ListNeedingDetails(store, job.AccountID)
	if err != nil {
		return err
	}

	if err := s.jobs.SetTotalMatches(store, job.ID, int64(len(ids))); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)

	for _, matchID := range ids {
		matchID := matchID
		// Cancellation checkpoint between units.
		if err := gctx.Err(); err != nil {
			break
		}

		g.Go(func() error {
			var details *domain.MatchDetails
			err := s.withRetry(gctx, func() error {
				var fetchErr error
				details, fetchErr = s.provider.GetMatchDetails(gctx, matchID)
				return fetchErr
			})
			if err != nil {
				if gctx.Err() == nil {
					// Keep the retry budget for this stub across future runs.
					_ = s.matches.MarkDetailsFailed(store, matchID)
					logger.Warn("match detail fetch failed", "match_id", matchID, "error", err)
				}
				return err
			}

			if err := s.matches.MarkDetailsFetched(store, matchID, details); err != nil {
				return err
			}
			// Unit is durably committed; make it visible immediately.
			return s.jobs.AddProcessed(store, job.ID, 1)
		})
	}

	return g.Wait()
}

// withRetry runs op, retrying transient upstream failures with exponential
// backoff up to the attempt budget. Fatal upstream errors and everything
// else return immediately. The wait between attempts doubles as a
// cancellation checkpoint.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay(attempt)):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		var transient *domain.UpstreamTransientError
		if !errors.As(lastErr, &transient) {
			return lastErr
		}
	}
	return lastErr
}

// finishJob applies the terminal transition for the run outcome. Losing the
// compare-and-set means Cancel already finalized the record, which is fine.
func (s *Service) finishJob(store context.Context, jobID int64, runErr error, logger *slog.Logger) {
	var (
		status domain.JobStatus
		msg    *string
	)
	switch {
	case runErr == nil:
		status = domain.JobStatusCompleted
	case errors.Is(runErr, context.Canceled):
		status = domain.JobStatusCancelled
		m := "cancelled by user"
		msg = &m
	default:
		status = domain.JobStatusFailed
		m := runErr.Error()
		msg = &m
	}

	if err := s.jobs.Finish(store, jobID, status, msg); err != nil {
		var invalid *domain.InvalidStateError
		if !errors.As(err, &invalid) {
			logger.Error("failed to finalize job", "status", status, "error", err)
		}
		return
	}
	logger.Info("sync job finished", "status", status)
}
