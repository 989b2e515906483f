package repository

import (
	"context"
	"database/sql"
	"time"

	"dotasync/internal/domain"
)

var _ domain.APICallRepository = (*APICallRepo)(nil)

// APICallRepo is the append-only usage ledger backed by SQLite. Entries are
// inserted and aggregated, never updated or deleted.
type APICallRepo struct {
	db *sql.DB
}

// NewAPICallRepo creates a new APICallRepo.
func NewAPICallRepo(db *sql.DB) *APICallRepo {
	return &APICallRepo{db: db}
}

// Insert appends one ledger entry.
func (r *APICallRepo) Insert(ctx context.Context, call *domain.APICall) error {
	if call == nil {
		return domain.ErrValidation("api call is required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_calls (provider, endpoint, used_api_key, cost, status_code, succeeded)
		VALUES (?, ?, ?, ?, ?, ?)
	`, call.Provider, call.Endpoint, boolToInt(call.UsedAPIKey), call.Cost,
		call.StatusCode, boolToInt(call.Succeeded))
	return mapDBError(err)
}

// StatsByProvider aggregates the whole ledger for one provider.
func (r *APICallRepo) StatsByProvider(ctx context.Context, provider string) (*domain.ProviderStats, error) {
	stats := &domain.ProviderStats{Provider: provider}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(used_api_key), 0),
		       COALESCE(SUM(cost), 0),
		       COALESCE(SUM(succeeded), 0),
		       COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status_code = 0 THEN 1 ELSE 0 END), 0)
		FROM api_calls
		WHERE provider = ?
	`, provider).Scan(
		&stats.TotalCalls,
		&stats.CallsWithKey,
		&stats.TotalCost,
		&stats.SuccessCalls,
		&stats.FailedCalls,
		&stats.ErrorCalls,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	stats.CallsWithoutKey = stats.TotalCalls - stats.CallsWithKey
	return stats, nil
}

// CountSince counts the provider's calls made at or after the given time.
func (r *APICallRepo) CountSince(ctx context.Context, provider string, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM api_calls WHERE provider = ? AND created_at >= ?
	`, provider, since.UTC()).Scan(&n)
	if err != nil {
		return 0, mapDBError(err)
	}
	return n, nil
}

// FirstKeyedCallAt returns the timestamp of the earliest keyed call for the
// provider, or nil when no keyed call exists.
func (r *APICallRepo) FirstKeyedCallAt(ctx context.Context, provider string) (*time.Time, error) {
	var t sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT MIN(created_at) FROM api_calls WHERE provider = ? AND used_api_key = 1
	`, provider).Scan(&t)
	if err != nil {
		return nil, mapDBError(err)
	}
	if !t.Valid {
		return nil, nil
	}
	ts := t.Time
	return &ts, nil
}

// DailyUsage returns per-day per-provider aggregates since the given time,
// newest day first.
func (r *APICallRepo) DailyUsage(ctx context.Context, since time.Time) ([]domain.DailyUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date(created_at), provider,
		       COUNT(*),
		       COALESCE(SUM(cost), 0),
		       COALESCE(SUM(succeeded), 0),
		       COALESCE(SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END), 0)
		FROM api_calls
		WHERE created_at >= ?
		GROUP BY date(created_at), provider
		ORDER BY date(created_at) DESC, provider
	`, since.UTC())
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var usage []domain.DailyUsage
	for rows.Next() {
		var (
			u   domain.DailyUsage
			day string
		)
		if err := rows.Scan(&day, &u.Provider, &u.TotalCalls, &u.TotalCost,
			&u.SuccessCalls, &u.FailedCalls); err != nil {
			return nil, err
		}
		u.Date, err = time.Parse("2006-01-02", day)
		if err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
