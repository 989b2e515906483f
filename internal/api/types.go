package api

import (
	"time"

	"dotasync/internal/domain"
)

// SyncJobResponse is the wire shape of a sync job record.
type SyncJobResponse struct {
	ID               int64      `json:"id"`
	AccountID        int64      `json:"account_id"`
	JobType          string     `json:"job_type"`
	Status           string     `json:"status"`
	TotalMatches     *int64     `json:"total_matches"`
	ProcessedMatches int64      `json:"processed_matches"`
	NewMatches       int64      `json:"new_matches"`
	Progress         *float64   `json:"progress,omitempty"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	ErrorMessage     *string    `json:"error_message"`
}

// SyncStatusResponse reports whether the account has an active sync.
type SyncStatusResponse struct {
	IsSyncing bool             `json:"is_syncing"`
	ActiveJob *SyncJobResponse `json:"active_job"`
}

// CancelAllResponse reports the per-job outcomes of a bulk cancel.
type CancelAllResponse struct {
	Results []CancelResultResponse `json:"results"`
}

// CancelResultResponse is one job's outcome within a bulk cancel.
type CancelResultResponse struct {
	JobID int64            `json:"job_id"`
	Job   *SyncJobResponse `json:"job,omitempty"`
	Error *string          `json:"error,omitempty"`
}

// triggerSyncRequest is the trigger endpoint's request body.
type triggerSyncRequest struct {
	JobType string `json:"job_type"`
}

func syncJobToAPI(j *domain.SyncJob) *SyncJobResponse {
	if j == nil {
		return nil
	}
	resp := &SyncJobResponse{
		ID:               j.ID,
		AccountID:        j.AccountID,
		JobType:          string(j.JobType),
		Status:           string(j.Status),
		TotalMatches:     j.TotalMatches,
		ProcessedMatches: j.ProcessedMatches,
		NewMatches:       j.NewMatches,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		CreatedAt:        j.CreatedAt,
		ErrorMessage:     j.ErrorMessage,
	}
	if j.TotalMatches != nil && *j.TotalMatches > 0 {
		p := float64(j.ProcessedMatches) / float64(*j.TotalMatches) * 100
		resp.Progress = &p
	}
	return resp
}

func syncJobsToAPI(jobs []domain.SyncJob) []SyncJobResponse {
	out := make([]SyncJobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, *syncJobToAPI(&jobs[i]))
	}
	return out
}

func cancelResultsToAPI(results []domain.CancelResult) CancelAllResponse {
	resp := CancelAllResponse{Results: make([]CancelResultResponse, 0, len(results))}
	for _, r := range results {
		item := CancelResultResponse{JobID: r.JobID, Job: syncJobToAPI(r.Job)}
		if r.Err != nil {
			msg := r.Err.Error()
			item.Error = &msg
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
