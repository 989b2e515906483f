package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dotasync/internal/domain"
)

var _ domain.MatchRepository = (*MatchRepo)(nil)

// MatchRepo stores match stubs and fetched details in SQLite.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a new MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// UpsertStub inserts a stub row for the match if none exists. Re-syncing a
// match the store already knows is a no-op, which is what makes sync units
// idempotent and lets a retried job resume rather than redo.
func (r *MatchRepo) UpsertStub(ctx context.Context, accountID, matchID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (id, account_id)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING
	`, matchID, accountID)
	if err != nil {
		return false, mapDBError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// LatestDetailedMatchID returns the newest match ID with details stored,
// or 0 when no detailed match exists.
func (r *MatchRepo) LatestDetailedMatchID(ctx context.Context, accountID int64) (int64, error) {
	var id sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(id) FROM matches WHERE account_id = ? AND has_details = 1
	`, accountID).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}
	return id.Int64, nil
}

// ListNeedingDetails returns IDs of matches whose details are missing:
// untouched stubs plus failed fetches with retries left, oldest first.
func (r *MatchRepo) ListNeedingDetails(ctx context.Context, accountID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM matches
		WHERE account_id = ?
		  AND (has_details IS NULL OR (has_details = 0 AND retry_count < ?))
		ORDER BY id
	`, accountID, domain.MaxDetailRetries)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkDetailsFetched stores the detail payload and marks the match done.
func (r *MatchRepo) MarkDetailsFetched(ctx context.Context, matchID int64, details *domain.MatchDetails) error {
	if details == nil {
		return domain.ErrValidation("match details are required")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET has_details = 1, detail_json = ?, start_time = ?
		WHERE id = ?
	`, details.RawJSON, details.StartTime.UTC(), matchID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, matchID)
}

// MarkDetailsFailed records a failed detail fetch, bumping retry_count.
func (r *MatchRepo) MarkDetailsFailed(ctx context.Context, matchID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE matches
		SET has_details = 0, retry_count = retry_count + 1
		WHERE id = ?
	`, matchID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, matchID)
}

func requireRow(res sql.Result, matchID int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound("match %d not found", matchID)
	}
	return nil
}
