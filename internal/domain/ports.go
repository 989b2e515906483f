package domain

import (
	"context"
	"time"
)

// SyncJobRepository is the durable job store. All status transitions are
// compare-and-set on the current status so that the executor and the
// cancellation path can never both apply a transition to the same record.
type SyncJobRepository interface {
	// Create inserts a new pending job for the account. It returns a
	// ConflictError when the account already has a pending or running job;
	// the existence check and the insert are a single atomic step.
	Create(ctx context.Context, accountID int64, jobType JobType) (*SyncJob, error)

	GetByID(ctx context.Context, id int64) (*SyncJob, error)

	// ListByAccount returns up to limit jobs, most recently created first.
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]SyncJob, error)

	// GetActiveByAccount returns the account's pending or running job, or
	// nil when the account is idle.
	GetActiveByAccount(ctx context.Context, accountID int64) (*SyncJob, error)

	// ListActive returns every non-terminal job for the account.
	ListActive(ctx context.Context, accountID int64) ([]SyncJob, error)

	// ListAccounts returns the distinct account IDs that have ever synced.
	ListAccounts(ctx context.Context) ([]int64, error)

	// MarkRunning transitions pending -> running and sets started_at.
	// Returns an InvalidStateError when the job is no longer pending.
	MarkRunning(ctx context.Context, id int64) error

	// SetTotalMatches records the discovered plan size. The value is
	// updatable until first set, then fixed: calls after total_matches is
	// already known are no-ops.
	SetTotalMatches(ctx context.Context, id int64, total int64) error

	// AddProcessed increments processed_matches by n for a running job.
	// The increment is dropped (not an error) if the job has left the
	// running state, and refused if it would exceed a known total.
	AddProcessed(ctx context.Context, id int64, n int64) error

	// AddNewMatches increments the new-match counter for a running job.
	AddNewMatches(ctx context.Context, id int64, n int64) error

	// Finish transitions a non-terminal job to the given terminal status
	// and sets completed_at. Returns an InvalidStateError when the job is
	// already terminal.
	Finish(ctx context.Context, id int64, status JobStatus, errorMsg *string) error
}

// APICallRepository is the append-only usage ledger.
type APICallRepository interface {
	Insert(ctx context.Context, call *APICall) error
	StatsByProvider(ctx context.Context, provider string) (*ProviderStats, error)
	CountSince(ctx context.Context, provider string, since time.Time) (int64, error)
	// FirstKeyedCallAt returns the timestamp of the provider's earliest
	// keyed call, or nil when no keyed call was ever made.
	FirstKeyedCallAt(ctx context.Context, provider string) (*time.Time, error)
	DailyUsage(ctx context.Context, since time.Time) ([]DailyUsage, error)
}

// MatchRepository stores match stubs and details for the two-phase sync.
type MatchRepository interface {
	// UpsertStub inserts a stub for the match ID if it does not exist.
	// It reports whether a new row was created.
	UpsertStub(ctx context.Context, accountID, matchID int64) (bool, error)

	// LatestDetailedMatchID returns the newest match ID that has details
	// stored, or 0 when none exists.
	LatestDetailedMatchID(ctx context.Context, accountID int64) (int64, error)

	// ListNeedingDetails returns IDs of matches whose details are missing:
	// fresh stubs plus failed fetches with retries left, oldest first.
	ListNeedingDetails(ctx context.Context, accountID int64) ([]int64, error)

	// MarkDetailsFetched stores the detail payload and marks the match done.
	MarkDetailsFetched(ctx context.Context, matchID int64, details *MatchDetails) error

	// MarkDetailsFailed records a failed detail fetch, bumping retry_count.
	MarkDetailsFailed(ctx context.Context, matchID int64) error
}

// MatchProvider is the upstream match-data API. Implementations record a
// usage ledger entry for every call they make, before returning.
type MatchProvider interface {
	// GetMatchHistory returns one page of the player's match history,
	// newest first. offset paginates: 0 requests the newest page.
	GetMatchHistory(ctx context.Context, accountID int64, limit, offset int) ([]MatchSummary, error)

	GetMatchDetails(ctx context.Context, matchID int64) (*MatchDetails, error)

	// HasAPIKey reports whether a metered key is configured.
	HasAPIKey() bool
}
