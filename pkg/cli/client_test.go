package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotasync/internal/api"
)

func TestClient_TriggerSync(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sync/trigger", r.URL.Path)
		assert.Equal(t, "42", r.Header.Get("X-Account-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "full_sync", body["job_type"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.SyncJobResponse{ID: 7, AccountID: 42, JobType: "full_sync", Status: "pending"})
	}))
	t.Cleanup(srv.Close)

	client := &Client{Host: srv.URL, AccountID: 42}
	job, err := client.TriggerSync(context.Background(), "full_sync")
	require.NoError(t, err)
	assert.Equal(t, int64(7), job.ID)
	assert.Equal(t, "pending", job.Status)
}

func TestClient_ErrorResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 409, "message": "account 42 already has an active sync job"})
	}))
	t.Cleanup(srv.Close)

	client := &Client{Host: srv.URL, AccountID: 42}
	_, err := client.TriggerSync(context.Background(), "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.HTTPStatus)
	assert.Equal(t, 409, apiErr.Code)
	assert.Contains(t, apiErr.Message, "active sync job")
}

func TestClient_RequiresAccountForSyncCalls(t *testing.T) {
	t.Parallel()

	client := &Client{Host: "http://localhost:1"}
	_, err := client.TriggerSync(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account ID is required")

	_, err = client.Status(context.Background())
	require.Error(t, err)
	_, err = client.Jobs(context.Background(), 5)
	require.Error(t, err)
}

func TestClient_UsageDaily(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api-usage/daily", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		// Usage routes work without an account header.
		assert.Empty(t, r.Header.Get("X-Account-ID"))
		_ = json.NewEncoder(w).Encode([]map[string]any{{"provider": "opendota", "total_calls": 3}})
	}))
	t.Cleanup(srv.Close)

	client := &Client{Host: srv.URL}
	rows, err := client.UsageDaily(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "opendota", rows[0]["provider"])
}
