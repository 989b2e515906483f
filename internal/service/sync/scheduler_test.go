package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotasync/internal/domain"
)

func TestScheduler_StartWithoutSchedule(t *testing.T) {
	t.Parallel()

	svc, jobs, _ := newTestService(t, &historyProvider{})
	sched := NewScheduler(svc, jobs, "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, sched.Start())
	sched.Stop()
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	svc, jobs, _ := newTestService(t, &historyProvider{})
	sched := NewScheduler(svc, jobs, "not a cron expr", slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Error(t, sched.Start())
}

func TestScheduler_SyncAllAccounts(t *testing.T) {
	t.Parallel()

	provider := &historyProvider{history: summaries(601)}
	svc, jobs, _ := newTestService(t, provider)
	sched := NewScheduler(svc, jobs, "*/15 * * * *", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// Two accounts with prior sync history.
	for _, accountID := range []int64{1, 2} {
		job, err := jobs.Create(ctx, accountID, domain.JobTypeFullSync)
		require.NoError(t, err)
		require.NoError(t, jobs.Finish(ctx, job.ID, domain.JobStatusCompleted, nil))
	}
	// A third account is mid-sync and must be skipped.
	busy, err := jobs.Create(ctx, 3, domain.JobTypeManualSync)
	require.NoError(t, err)
	require.NoError(t, jobs.MarkRunning(ctx, busy.ID))

	sched.syncAllAccounts()

	// Accounts 1 and 2 each got an incremental job.
	for _, accountID := range []int64{1, 2} {
		require.Eventually(t, func() bool {
			list, err := jobs.ListByAccount(ctx, accountID, 10)
			require.NoError(t, err)
			for _, j := range list {
				if j.JobType == domain.JobTypeIncrementalSync {
					return true
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)
	}

	// Account 3 still has only its original running job.
	list, err := jobs.ListByAccount(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.JobStatusRunning, list[0].Status)
}
