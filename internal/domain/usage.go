package domain

import "time"

// Known upstream providers.
const (
	ProviderOpenDota = "opendota"
	ProviderValve    = "valve"
)

// CostPerKeyedCall is the metered price of one OpenDota call made with an
// API key, in USD.
const CostPerKeyedCall = 0.0001

// FreeTierDailyLimit is the OpenDota free-tier quota of calls per UTC day
// when no API key is configured.
const FreeTierDailyLimit = 2000

// APICall is one append-only usage ledger entry, recorded for every
// upstream call regardless of outcome. Entries are never mutated or
// deleted.
type APICall struct {
	ID         int64
	Provider   string
	Endpoint   string
	UsedAPIKey bool
	Cost       float64
	StatusCode int // 0 on network error
	Succeeded  bool
	CreatedAt  time.Time
}

// ProviderStats aggregates ledger entries for a single provider.
type ProviderStats struct {
	Provider        string  `json:"provider"`
	TotalCalls      int64   `json:"total_calls"`
	CallsWithKey    int64   `json:"calls_with_key"`
	CallsWithoutKey int64   `json:"calls_without_key"`
	TotalCost       float64 `json:"total_cost"`
	SuccessCalls    int64   `json:"success_calls"`
	FailedCalls     int64   `json:"failed_calls"`
	ErrorCalls      int64   `json:"error_calls"` // network errors, status 0
}

// UsageSummary is the derived cost/quota view over the whole ledger.
type UsageSummary struct {
	OpenDotaStats        *ProviderStats `json:"opendota_stats,omitempty"`
	ValveStats           *ProviderStats `json:"valve_stats,omitempty"`
	TotalCalls           int64          `json:"total_calls"`
	TotalCost            float64        `json:"total_cost"`
	HasAPIKey            bool           `json:"has_api_key"`
	DailyLimitRemaining  *int64         `json:"daily_limit_remaining,omitempty"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost"`
}

// DailyUsage is per-day per-provider ledger aggregation.
type DailyUsage struct {
	Date         time.Time `json:"date"`
	Provider     string    `json:"provider"`
	TotalCalls   int64     `json:"total_calls"`
	TotalCost    float64   `json:"total_cost"`
	SuccessCalls int64     `json:"success_calls"`
	FailedCalls  int64     `json:"failed_calls"`
}
