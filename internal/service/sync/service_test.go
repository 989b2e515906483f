package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotasync/internal/db"
	"dotasync/internal/db/repository"
	"dotasync/internal/domain"
	"dotasync/internal/testutil"
)

// newTestService wires a Service onto a fresh SQLite store and the given
// provider mock, with retry backoff shortened to keep tests fast.
func newTestService(t *testing.T, provider domain.MatchProvider) (*Service, *repository.SyncJobRepo, *repository.MatchRepo) {
	t.Helper()

	writeDB, _ := db.OpenTestSQLite(t)
	jobs := repository.NewSyncJobRepo(writeDB)
	matches := repository.NewMatchRepo(writeDB)

	svc := NewService(jobs, matches, provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.retryDelay = func(int) time.Duration { return time.Millisecond }
	return svc, jobs, matches
}

// waitTerminal polls until the job reaches a terminal status.
func waitTerminal(t *testing.T, jobs *repository.SyncJobRepo, jobID int64) *domain.SyncJob {
	t.Helper()

	var job *domain.SyncJob
	require.Eventually(t, func() bool {
		var err error
		job, err = jobs.GetByID(context.Background(), jobID)
		require.NoError(t, err)
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

// waitStatus polls until the job reaches the given status.
func waitStatus(t *testing.T, jobs *repository.SyncJobRepo, jobID int64, status domain.JobStatus) {
	t.Helper()

	require.Eventually(t, func() bool {
		job, err := jobs.GetByID(context.Background(), jobID)
		require.NoError(t, err)
		return job.Status == status
	}, 5*time.Second, 10*time.Millisecond)
}

func TestService_TriggerDefaultsToManualSync(t *testing.T) {
	t.Parallel()

	svc, jobs, _ := newTestService(t, &testutil.MockMatchProvider{})

	job, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobTypeManualSync, job.JobType)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	// Empty upstream history: the job completes with nothing to do.
	done := waitTerminal(t, jobs, job.ID)
	assert.Equal(t, domain.JobStatusCompleted, done.Status)
}

func TestService_TriggerRejectsInvalidType(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, &testutil.MockMatchProvider{})

	_, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{JobType: "bogus"})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestService_TriggerConflictWhileActive(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	provider := &testutil.MockMatchProvider{
		GetMatchHistoryFn: func(ctx context.Context, _ int64, _, _ int) ([]domain.MatchSummary, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return nil, ctx.Err()
		},
	}
	svc, jobs, _ := newTestService(t, provider)

	first, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	require.NoError(t, err)
	waitStatus(t, jobs, first.ID, domain.JobStatusRunning)

	_, err = svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// A different account is unaffected.
	_, err = svc.Trigger(context.Background(), 2, domain.TriggerSyncRequest{})
	require.NoError(t, err)

	close(block)
	waitTerminal(t, jobs, first.ID)
}

func TestService_CancelRunningJob(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	block := make(chan struct{})
	provider := &testutil.MockMatchProvider{
		GetMatchHistoryFn: func(ctx context.Context, _ int64, _, _ int) ([]domain.MatchSummary, error) {
			close(started)
			<-ctx.Done()
			close(block)
			return nil, ctx.Err()
		},
	}
	svc, jobs, _ := newTestService(t, provider)

	job, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{JobType: domain.JobTypeFullSync})
	require.NoError(t, err)
	<-started

	cancelled, err := svc.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.ErrorMessage)
	assert.Equal(t, "cancelled by user", *cancelled.ErrorMessage)
	require.NotNil(t, cancelled.CompletedAt)

	// The runner observed the signal and unwound.
	select {
	case <-block:
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not observe cancellation")
	}

	// Status is final even after the executor exits.
	final := waitTerminal(t, jobs, job.ID)
	assert.Equal(t, domain.JobStatusCancelled, final.Status)

	status, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, status.IsSyncing)
	assert.Nil(t, status.ActiveJob)
}

func TestService_CancelTerminalJobFails(t *testing.T) {
	t.Parallel()

	svc, jobs, _ := newTestService(t, &testutil.MockMatchProvider{})

	job, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	require.NoError(t, err)
	waitTerminal(t, jobs, job.ID)

	_, err = svc.Cancel(context.Background(), job.ID)
	var invalid *domain.InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestService_CancelUnknownJob(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, &testutil.MockMatchProvider{})

	_, err := svc.Cancel(context.Background(), 9999)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestService_CancelAll(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	provider := &testutil.MockMatchProvider{
		GetMatchHistoryFn: func(ctx context.Context, _ int64, _, _ int) ([]domain.MatchSummary, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return nil, ctx.Err()
		},
	}
	svc, jobs, _ := newTestService(t, provider)
	defer close(block)

	job, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	require.NoError(t, err)
	waitStatus(t, jobs, job.ID, domain.JobStatusRunning)

	results, err := svc.CancelAll(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, job.ID, results[0].JobID)
	require.NoError(t, results[0].Err)
	assert.Equal(t, domain.JobStatusCancelled, results[0].Job.Status)

	// Idle account: nothing to report.
	results, err = svc.CancelAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_StatusWhileSyncing(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	provider := &testutil.MockMatchProvider{
		GetMatchHistoryFn: func(ctx context.Context, _ int64, _, _ int) ([]domain.MatchSummary, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return nil, ctx.Err()
		},
	}
	svc, jobs, _ := newTestService(t, provider)

	status, err := svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, status.IsSyncing)

	job, err := svc.Trigger(context.Background(), 1, domain.TriggerSyncRequest{})
	require.NoError(t, err)

	status, err = svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, status.IsSyncing)
	require.NotNil(t, status.ActiveJob)
	assert.Equal(t, job.ID, status.ActiveJob.ID)

	close(block)
	waitTerminal(t, jobs, job.ID)

	status, err = svc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, status.IsSyncing)
}

func TestService_JobsLimitClamping(t *testing.T) {
	t.Parallel()

	calls := make(chan int, 2)
	jobs := &testutil.MockSyncJobRepo{
		ListByAccountFn: func(_ context.Context, _ int64, limit int) ([]domain.SyncJob, error) {
			calls <- limit
			return nil, nil
		},
	}
	svc := NewService(jobs, &testutil.MockMatchRepo{}, &testutil.MockMatchProvider{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Jobs(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultJobsLimit, <-calls)

	_, err = svc.Jobs(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.Equal(t, maxJobsLimit, <-calls)
}
