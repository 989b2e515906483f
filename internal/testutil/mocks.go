// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"dotasync/internal/domain"
)

// === Sync Job Repository Mock ===

// MockSyncJobRepo implements domain.SyncJobRepository for testing.
type MockSyncJobRepo struct {
	CreateFn             func(ctx context.Context, accountID int64, jobType domain.JobType) (*domain.SyncJob, error)
	GetByIDFn            func(ctx context.Context, id int64) (*domain.SyncJob, error)
	ListByAccountFn      func(ctx context.Context, accountID int64, limit int) ([]domain.SyncJob, error)
	GetActiveByAccountFn func(ctx context.Context, accountID int64) (*domain.SyncJob, error)
	ListActiveFn         func(ctx context.Context, accountID int64) ([]domain.SyncJob, error)
	ListAccountsFn       func(ctx context.Context) ([]int64, error)
	MarkRunningFn        func(ctx context.Context, id int64) error
	SetTotalMatchesFn    func(ctx context.Context, id int64, total int64) error
	AddProcessedFn       func(ctx context.Context, id int64, n int64) error
	AddNewMatchesFn      func(ctx context.Context, id int64, n int64) error
	FinishFn             func(ctx context.Context, id int64, status domain.JobStatus, errorMsg *string) error
}

func (m *MockSyncJobRepo) Create(ctx context.Context, accountID int64, jobType domain.JobType) (*domain.SyncJob, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, accountID, jobType)
	}
	panic("unexpected call to MockSyncJobRepo.Create")
}

func (m *MockSyncJobRepo) GetByID(ctx context.Context, id int64) (*domain.SyncJob, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockSyncJobRepo.GetByID")
}

func (m *MockSyncJobRepo) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.SyncJob, error) {
	if m.ListByAccountFn != nil {
		return m.ListByAccountFn(ctx, accountID, limit)
	}
	panic("unexpected call to MockSyncJobRepo.ListByAccount")
}

func (m *MockSyncJobRepo) GetActiveByAccount(ctx context.Context, accountID int64) (*domain.SyncJob, error) {
	if m.GetActiveByAccountFn != nil {
		return m.GetActiveByAccountFn(ctx, accountID)
	}
	panic("unexpected call to MockSyncJobRepo.GetActiveByAccount")
}

func (m *MockSyncJobRepo) ListActive(ctx context.Context, accountID int64) ([]domain.SyncJob, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx, accountID)
	}
	panic("unexpected call to MockSyncJobRepo.ListActive")
}

func (m *MockSyncJobRepo) ListAccounts(ctx context.Context) ([]int64, error) {
	if m.ListAccountsFn != nil {
		return m.ListAccountsFn(ctx)
	}
	panic("unexpected call to MockSyncJobRepo.ListAccounts")
}

func (m *MockSyncJobRepo) MarkRunning(ctx context.Context, id int64) error {
	if m.MarkRunningFn != nil {
		return m.MarkRunningFn(ctx, id)
	}
	return nil
}

func (m *MockSyncJobRepo) SetTotalMatches(ctx context.Context, id int64, total int64) error {
	if m.SetTotalMatchesFn != nil {
		return m.SetTotalMatchesFn(ctx, id, total)
	}
	return nil
}

func (m *MockSyncJobRepo) AddProcessed(ctx context.Context, id int64, n int64) error {
	if m.AddProcessedFn != nil {
		return m.AddProcessedFn(ctx, id, n)
	}
	return nil
}

func (m *MockSyncJobRepo) AddNewMatches(ctx context.Context, id int64, n int64) error {
	if m.AddNewMatchesFn != nil {
		return m.AddNewMatchesFn(ctx, id, n)
	}
	return nil
}

func (m *MockSyncJobRepo) Finish(ctx context.Context, id int64, status domain.JobStatus, errorMsg *string) error {
	if m.FinishFn != nil {
		return m.FinishFn(ctx, id, status, errorMsg)
	}
	return nil
}

// === API Call Ledger Mock ===

// MockAPICallRepo implements domain.APICallRepository for testing. Inserted
// entries are collected for assertions.
type MockAPICallRepo struct {
	mu    sync.Mutex
	Calls []*domain.APICall

	InsertFn           func(ctx context.Context, call *domain.APICall) error
	StatsByProviderFn  func(ctx context.Context, provider string) (*domain.ProviderStats, error)
	CountSinceFn       func(ctx context.Context, provider string, since time.Time) (int64, error)
	FirstKeyedCallAtFn func(ctx context.Context, provider string) (*time.Time, error)
	DailyUsageFn       func(ctx context.Context, since time.Time) ([]domain.DailyUsage, error)
}

func (m *MockAPICallRepo) Insert(ctx context.Context, call *domain.APICall) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, call); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
	return nil
}

func (m *MockAPICallRepo) StatsByProvider(ctx context.Context, provider string) (*domain.ProviderStats, error) {
	if m.StatsByProviderFn != nil {
		return m.StatsByProviderFn(ctx, provider)
	}
	return &domain.ProviderStats{Provider: provider}, nil
}

func (m *MockAPICallRepo) CountSince(ctx context.Context, provider string, since time.Time) (int64, error) {
	if m.CountSinceFn != nil {
		return m.CountSinceFn(ctx, provider, since)
	}
	return 0, nil
}

func (m *MockAPICallRepo) FirstKeyedCallAt(ctx context.Context, provider string) (*time.Time, error) {
	if m.FirstKeyedCallAtFn != nil {
		return m.FirstKeyedCallAtFn(ctx, provider)
	}
	return nil, nil
}

func (m *MockAPICallRepo) DailyUsage(ctx context.Context, since time.Time) ([]domain.DailyUsage, error) {
	if m.DailyUsageFn != nil {
		return m.DailyUsageFn(ctx, since)
	}
	return nil, nil
}

// Recorded returns a snapshot of the collected ledger entries.
func (m *MockAPICallRepo) Recorded() []*domain.APICall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.APICall, len(m.Calls))
	copy(out, m.Calls)
	return out
}

// === Match Repository Mock ===

// MockMatchRepo implements domain.MatchRepository for testing.
type MockMatchRepo struct {
	UpsertStubFn            func(ctx context.Context, accountID, matchID int64) (bool, error)
	LatestDetailedMatchIDFn func(ctx context.Context, accountID int64) (int64, error)
	ListNeedingDetailsFn    func(ctx context.Context, accountID int64) ([]int64, error)
	MarkDetailsFetchedFn    func(ctx context.Context, matchID int64, details *domain.MatchDetails) error
	MarkDetailsFailedFn     func(ctx context.Context, matchID int64) error
}

func (m *MockMatchRepo) UpsertStub(ctx context.Context, accountID, matchID int64) (bool, error) {
	if m.UpsertStubFn != nil {
		return m.UpsertStubFn(ctx, accountID, matchID)
	}
	return true, nil
}

func (m *MockMatchRepo) LatestDetailedMatchID(ctx context.Context, accountID int64) (int64, error) {
	if m.LatestDetailedMatchIDFn != nil {
		return m.LatestDetailedMatchIDFn(ctx, accountID)
	}
	return 0, nil
}

func (m *MockMatchRepo) ListNeedingDetails(ctx context.Context, accountID int64) ([]int64, error) {
	if m.ListNeedingDetailsFn != nil {
		return m.ListNeedingDetailsFn(ctx, accountID)
	}
	return nil, nil
}

func (m *MockMatchRepo) MarkDetailsFetched(ctx context.Context, matchID int64, details *domain.MatchDetails) error {
	if m.MarkDetailsFetchedFn != nil {
		return m.MarkDetailsFetchedFn(ctx, matchID, details)
	}
	return nil
}

func (m *MockMatchRepo) MarkDetailsFailed(ctx context.Context, matchID int64) error {
	if m.MarkDetailsFailedFn != nil {
		return m.MarkDetailsFailedFn(ctx, matchID)
	}
	return nil
}

// === Match Provider Mock ===

// MockMatchProvider implements domain.MatchProvider for testing.
type MockMatchProvider struct {
	GetMatchHistoryFn func(ctx context.Context, accountID int64, limit, offset int) ([]domain.MatchSummary, error)
	GetMatchDetailsFn func(ctx context.Context, matchID int64) (*domain.MatchDetails, error)
	Keyed             bool
}

func (m *MockMatchProvider) GetMatchHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.MatchSummary, error) {
	if m.GetMatchHistoryFn != nil {
		return m.GetMatchHistoryFn(ctx, accountID, limit, offset)
	}
	return nil, nil
}

func (m *MockMatchProvider) GetMatchDetails(ctx context.Context, matchID int64) (*domain.MatchDetails, error) {
	if m.GetMatchDetailsFn != nil {
		return m.GetMatchDetailsFn(ctx, matchID)
	}
	return &domain.MatchDetails{MatchID: matchID}, nil
}

func (m *MockMatchProvider) HasAPIKey() bool { return m.Keyed }
