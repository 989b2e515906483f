package domain

import "time"

// JobStatus represents the lifecycle state of a sync job.
type JobStatus string

// Sync job lifecycle statuses. Pending and running are the only non-terminal
// states; all others are final.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobType selects the executor's work plan.
type JobType string

// Recognized job types.
const (
	JobTypeFullSync          JobType = "full_sync"
	JobTypeIncrementalSync   JobType = "incremental_sync"
	JobTypeSyncMissing       JobType = "sync_missing"
	JobTypeCollectMatchIDs   JobType = "collect_match_ids"
	JobTypeFetchMatchDetails JobType = "fetch_match_details"
	JobTypeManualSync        JobType = "manual_sync"
)

// Valid reports whether t is a recognized job type.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullSync, JobTypeIncrementalSync, JobTypeSyncMissing,
		JobTypeCollectMatchIDs, JobTypeFetchMatchDetails, JobTypeManualSync:
		return true
	}
	return false
}

// SyncJob stores durable state for one match-ingestion job.
//
// TotalMatches is nil until the executor has discovered the plan size.
// ProcessedMatches is monotonically non-decreasing and never exceeds
// TotalMatches once the latter is set. A record with a terminal status is
// immutable.
type SyncJob struct {
	ID               int64
	AccountID        int64
	JobType          JobType
	Status           JobStatus
	TotalMatches     *int64
	ProcessedMatches int64
	NewMatches       int64
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	ErrorMessage     *string
}

// Active reports whether the job counts against the single-active-sync
// invariant for its account.
func (j *SyncJob) Active() bool {
	return !j.Status.Terminal()
}

// TriggerSyncRequest holds parameters for triggering a sync job.
type TriggerSyncRequest struct {
	JobType JobType
}

// Validate checks that the request is well-formed. An empty job type
// defaults to manual_sync.
func (r *TriggerSyncRequest) Validate() error {
	if r.JobType == "" {
		r.JobType = JobTypeManualSync
	}
	if !r.JobType.Valid() {
		return ErrValidation("invalid job type: %s", r.JobType)
	}
	return nil
}

// SyncStatus is the externally visible view of an account's sync activity.
type SyncStatus struct {
	IsSyncing bool
	ActiveJob *SyncJob
}

// CancelResult reports the outcome of one cancel attempt within a bulk
// cancel-all; partial failure is reported per job, never as a single
// atomic outcome.
type CancelResult struct {
	JobID int64
	Job   *SyncJob
	Err   error
}
