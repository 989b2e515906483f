// Package usage aggregates the append-only API call ledger into cost and
// quota views.
package usage

import (
	"context"
	"log/slog"
	"time"

	"dotasync/internal/domain"
)

// Service derives usage summaries from the ledger. It only ever reads; the
// executor's provider client is the sole writer.
type Service struct {
	ledger    domain.APICallRepository
	hasAPIKey bool
	logger    *slog.Logger

	now func() time.Time
}

// NewService creates a new usage Service. hasAPIKey mirrors whether the
// upstream client is configured with a metered key; it selects between the
// cost projection and the free-tier quota countdown.
func NewService(ledger domain.APICallRepository, hasAPIKey bool, logger *slog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		hasAPIKey: hasAPIKey,
		logger:    logger,
		now:       time.Now,
	}
}

// Summary aggregates the whole ledger. An empty ledger yields a zero-valued
// summary, never an error.
func (s *Service) Summary(ctx context.Context) (*domain.UsageSummary, error) {
	openDota, err := s.ledger.StatsByProvider(ctx, domain.ProviderOpenDota)
	if err != nil {
		return nil, err
	}
	valve, err := s.ledger.StatsByProvider(ctx, domain.ProviderValve)
	if err != nil {
		return nil, err
	}

	summary := &domain.UsageSummary{
		TotalCalls: openDota.TotalCalls + valve.TotalCalls,
		TotalCost:  openDota.TotalCost + valve.TotalCost,
		HasAPIKey:  s.hasAPIKey,
	}
	if openDota.TotalCalls > 0 {
		summary.OpenDotaStats = openDota
	}
	if valve.TotalCalls > 0 {
		summary.ValveStats = valve
	}

	if s.hasAPIKey {
		estimate, err := s.estimateMonthlyCost(ctx, openDota)
		if err != nil {
			return nil, err
		}
		summary.EstimatedMonthlyCost = estimate
	} else {
		remaining, err := s.dailyLimitRemaining(ctx)
		if err != nil {
			return nil, err
		}
		summary.DailyLimitRemaining = &remaining
	}

	return summary, nil
}

// Daily returns per-day per-provider usage for the trailing days window.
func (s *Service) Daily(ctx context.Context, days int) ([]domain.DailyUsage, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	return s.ledger.DailyUsage(ctx, since)
}

// estimateMonthlyCost projects the keyed-call rate observed since the first
// keyed call over a 30-day month. The projection is linear in window spend:
// more keyed calls in the window can only raise it.
func (s *Service) estimateMonthlyCost(ctx context.Context, stats *domain.ProviderStats) (float64, error) {
	if stats.CallsWithKey == 0 {
		return 0, nil
	}

	first, err := s.ledger.FirstKeyedCallAt(ctx, domain.ProviderOpenDota)
	if err != nil {
		return 0, err
	}
	if first == nil {
		return 0, nil
	}

	days := int64(s.now().UTC().Sub(first.UTC()).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	callsPerDay := float64(stats.CallsWithKey) / float64(days)
	return callsPerDay * 30 * domain.CostPerKeyedCall, nil
}

// dailyLimitRemaining counts keyless calls against the free-tier quota
// since UTC midnight; the counter resets when the UTC day rolls over.
func (s *Service) dailyLimitRemaining(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	today, err := s.ledger.CountSince(ctx, domain.ProviderOpenDota, midnight)
	if err != nil {
		return 0, err
	}

	remaining := int64(domain.FreeTierDailyLimit) - today
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
