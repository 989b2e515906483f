package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotasync/internal/db"
	"dotasync/internal/domain"
)

func TestAPICallRepo_StatsByProvider(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPICallRepo(writeDB)
	ctx := context.Background()

	entries := []domain.APICall{
		{Provider: domain.ProviderOpenDota, Endpoint: "/players/1/matches", UsedAPIKey: true, Cost: 0.0001, StatusCode: 200, Succeeded: true},
		{Provider: domain.ProviderOpenDota, Endpoint: "/matches/100", UsedAPIKey: true, Cost: 0.0001, StatusCode: 200, Succeeded: true},
		{Provider: domain.ProviderOpenDota, Endpoint: "/matches/101", UsedAPIKey: false, Cost: 0, StatusCode: 429, Succeeded: false},
		{Provider: domain.ProviderOpenDota, Endpoint: "/matches/102", UsedAPIKey: false, Cost: 0, StatusCode: 0, Succeeded: false},
		{Provider: domain.ProviderValve, Endpoint: "/IDOTA2Match/GetMatchDetails", UsedAPIKey: false, Cost: 0, StatusCode: 200, Succeeded: true},
	}
	for i := range entries {
		require.NoError(t, repo.Insert(ctx, &entries[i]))
	}

	stats, err := repo.StatsByProvider(ctx, domain.ProviderOpenDota)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCalls)
	assert.Equal(t, int64(2), stats.CallsWithKey)
	assert.Equal(t, int64(2), stats.CallsWithoutKey)
	assert.InDelta(t, 0.0002, stats.TotalCost, 1e-9)
	assert.Equal(t, int64(2), stats.SuccessCalls)
	assert.Equal(t, int64(1), stats.FailedCalls)
	assert.Equal(t, int64(1), stats.ErrorCalls)

	valve, err := repo.StatsByProvider(ctx, domain.ProviderValve)
	require.NoError(t, err)
	assert.Equal(t, int64(1), valve.TotalCalls)
}

func TestAPICallRepo_EmptyLedger(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPICallRepo(writeDB)
	ctx := context.Background()

	stats, err := repo.StatsByProvider(ctx, domain.ProviderOpenDota)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalCalls)
	assert.Equal(t, float64(0), stats.TotalCost)

	n, err := repo.CountSince(ctx, domain.ProviderOpenDota, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	first, err := repo.FirstKeyedCallAt(ctx, domain.ProviderOpenDota)
	require.NoError(t, err)
	assert.Nil(t, first)

	usage, err := repo.DailyUsage(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestAPICallRepo_CountSinceAndFirstKeyed(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPICallRepo(writeDB)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.APICall{
		Provider: domain.ProviderOpenDota, Endpoint: "/matches/1", StatusCode: 200, Succeeded: true,
	}))
	require.NoError(t, repo.Insert(ctx, &domain.APICall{
		Provider: domain.ProviderOpenDota, Endpoint: "/matches/2", UsedAPIKey: true,
		Cost: domain.CostPerKeyedCall, StatusCode: 200, Succeeded: true,
	}))

	n, err := repo.CountSince(ctx, domain.ProviderOpenDota, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// A future cutoff excludes everything.
	n, err = repo.CountSince(ctx, domain.ProviderOpenDota, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	first, err := repo.FirstKeyedCallAt(ctx, domain.ProviderOpenDota)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.WithinDuration(t, time.Now().UTC(), *first, time.Minute)
}

func TestAPICallRepo_DailyUsage(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPICallRepo(writeDB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &domain.APICall{
			Provider: domain.ProviderOpenDota, Endpoint: "/matches/1",
			StatusCode: 200, Succeeded: true,
		}))
	}
	require.NoError(t, repo.Insert(ctx, &domain.APICall{
		Provider: domain.ProviderOpenDota, Endpoint: "/matches/2",
		StatusCode: 500, Succeeded: false,
	}))

	usage, err := repo.DailyUsage(ctx, time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, domain.ProviderOpenDota, usage[0].Provider)
	assert.Equal(t, int64(4), usage[0].TotalCalls)
	assert.Equal(t, int64(3), usage[0].SuccessCalls)
	assert.Equal(t, int64(1), usage[0].FailedCalls)
}

func TestAPICallRepo_InsertNil(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPICallRepo(writeDB)

	var validation *domain.ValidationError
	require.ErrorAs(t, repo.Insert(context.Background(), nil), &validation)
}
