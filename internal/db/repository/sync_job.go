package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dotasync/internal/domain"
)

var _ domain.SyncJobRepository = (*SyncJobRepo)(nil)

const syncJobColumns = `id, account_id, job_type, status, total_matches, processed_matches,
       new_matches, started_at, completed_at, created_at, error_message`

// SyncJobRepo stores sync job lifecycle state in SQLite.
//
// Every status transition is a status-guarded UPDATE, so the executor and
// the cancellation path can race on the same record without lost updates:
// exactly one of them wins and the loser observes an InvalidStateError or
// a silently dropped increment.
type SyncJobRepo struct {
	db *sql.DB
}

// NewSyncJobRepo creates a new SyncJobRepo.
func NewSyncJobRepo(db *sql.DB) *SyncJobRepo {
	return &SyncJobRepo{db: db}
}

// Create inserts a new pending job unless the account already has an active
// one. The existence check and the insert are one statement, and a partial
// unique index on active jobs backs it up against concurrent writers.
func (r *SyncJobRepo) Create(ctx context.Context, accountID int64, jobType domain.JobType) (*domain.SyncJob, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (account_id, job_type, status)
		SELECT ?, ?, 'pending'
		WHERE NOT EXISTS (
			SELECT 1 FROM sync_jobs
			WHERE account_id = ? AND status IN ('pending', 'running')
		)
	`, accountID, string(jobType), accountID)
	if err != nil {
		return nil, mapDBError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, domain.ErrConflict("account %d already has an active sync job", accountID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a sync job by ID.
func (r *SyncJobRepo) GetByID(ctx context.Context, id int64) (*domain.SyncJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+syncJobColumns+` FROM sync_jobs WHERE id = ?`, id)
	job, err := scanSyncJob(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return job, nil
}

// ListByAccount returns up to limit jobs for the account, newest first.
func (r *SyncJobRepo) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.SyncJob, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+syncJobColumns+`
		FROM sync_jobs
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	return collectSyncJobs(rows)
}

// GetActiveByAccount returns the account's pending or running job, or nil.
func (r *SyncJobRepo) GetActiveByAccount(ctx context.Context, accountID int64) (*domain.SyncJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+syncJobColumns+`
		FROM sync_jobs
		WHERE account_id = ? AND status IN ('pending', 'running')
	`, accountID)
	job, err := scanSyncJob(row)
	if err != nil {
		if _, ok := mapDBError(err).(*domain.NotFoundError); ok {
			return nil, nil
		}
		return nil, mapDBError(err)
	}
	return job, nil
}

// ListActive returns every non-terminal job for the account.
func (r *SyncJobRepo) ListActive(ctx context.Context, accountID int64) ([]domain.SyncJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+syncJobColumns+`
		FROM sync_jobs
		WHERE account_id = ? AND status IN ('pending', 'running')
		ORDER BY id
	`, accountID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	return collectSyncJobs(rows)
}

// ListAccounts returns distinct account IDs present in the job history.
func (r *SyncJobRepo) ListAccounts(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT account_id FROM sync_jobs ORDER BY account_id`)
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

// MarkRunning transitions pending -> running, setting started_at.
func (r *SyncJobRepo) MarkRunning(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = 'running', started_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'
	`, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireTransition(res, id, "start")
}

// SetTotalMatches records the plan size; updatable until first set, then fixed.
func (r *SyncJobRepo) SetTotalMatches(ctx context.Context, id int64, total int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET total_matches = ?
		WHERE id = ? AND status = 'running' AND total_matches IS NULL
	`, total, id)
	return mapDBError(err)
}

// AddProcessed increments processed_matches by n while the job is running.
// The guard keeps processed_matches from ever exceeding a known total.
func (r *SyncJobRepo) AddProcessed(ctx context.Context, id int64, n int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET processed_matches = processed_matches + ?
		WHERE id = ? AND status = 'running'
		  AND (total_matches IS NULL OR processed_matches + ? <= total_matches)
	`, n, id, n)
	return mapDBError(err)
}

// AddNewMatches increments the new-match counter while the job is running.
func (r *SyncJobRepo) AddNewMatches(ctx context.Context, id int64, n int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET new_matches = new_matches + ?
		WHERE id = ? AND status = 'running'
	`, n, id)
	return mapDBError(err)
}

// Finish transitions a non-terminal job to the given terminal status.
func (r *SyncJobRepo) Finish(ctx context.Context, id int64, status domain.JobStatus, errorMsg *string) error {
	if !status.Terminal() {
		return domain.ErrValidation("finish requires a terminal status, got %s", status)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = ?, completed_at = CURRENT_TIMESTAMP, error_message = ?
		WHERE id = ? AND status IN ('pending', 'running')
	`, string(status), nullStrFromPtr(errorMsg), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireTransition(res, id, string(status))
}

// requireTransition converts a zero-row guarded UPDATE into the domain
// error for a transition that lost its race or targeted a missing record.
func requireTransition(res sql.Result, id int64, action string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvalidState("job %d: cannot %s from current status", id, action)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSyncJob(row rowScanner) (*domain.SyncJob, error) {
	var (
		job                    domain.SyncJob
		jobType, status        string
		total                  sql.NullInt64
		startedAt, completedAt sql.NullTime
		errorMsg               sql.NullString
	)

	err := row.Scan(
		&job.ID,
		&job.AccountID,
		&jobType,
		&status,
		&total,
		&job.ProcessedMatches,
		&job.NewMatches,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
		&errorMsg,
	)
	if err != nil {
		return nil, err
	}

	job.JobType = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if total.Valid {
		v := total.Int64
		job.TotalMatches = &v
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if errorMsg.Valid {
		msg := errorMsg.String
		job.ErrorMessage = &msg
	}
	return &job, nil
}

func collectSyncJobs(rows *sql.Rows) ([]domain.SyncJob, error) {
	var jobs []domain.SyncJob
	for rows.Next() {
		job, err := scanSyncJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
