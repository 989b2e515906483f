package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dotasync/internal/api"
	"dotasync/internal/middleware"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned HTTP %d", e.HTTPStatus)
}

// Client is a thin HTTP client for the dotasync API.
type Client struct {
	Host      string
	AccountID int64

	httpClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c.httpClient
}

// requireAccount returns an error when no account ID was supplied; the sync
// endpoints all need one.
func (c *Client) requireAccount() error {
	if c.AccountID <= 0 {
		return fmt.Errorf("an account ID is required (use --account or DOTASYNC_ACCOUNT_ID)")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.Host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccountID > 0 {
		req.Header.Set(middleware.AccountHeader, strconv.FormatInt(c.AccountID, 10))
	}

	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		var errBody struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// TriggerSync starts a sync job of the given type for the configured account.
func (c *Client) TriggerSync(ctx context.Context, jobType string) (*api.SyncJobResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	var job api.SyncJobResponse
	body := map[string]string{"job_type": jobType}
	if err := c.do(ctx, http.MethodPost, "/v1/sync/trigger", nil, body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelSync cancels the job with the given ID.
func (c *Client) CancelSync(ctx context.Context, jobID int64) (*api.SyncJobResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	var job api.SyncJobResponse
	path := "/v1/sync/cancel/" + strconv.FormatInt(jobID, 10)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelAll cancels every active job for the configured account.
func (c *Client) CancelAll(ctx context.Context) (*api.CancelAllResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	var resp api.CancelAllResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sync/cancel-all", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists recent jobs for the configured account.
func (c *Client) Jobs(ctx context.Context, limit int) ([]api.SyncJobResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var jobs []api.SyncJobResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sync/jobs", q, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Job fetches one job by ID.
func (c *Client) Job(ctx context.Context, jobID int64) (*api.SyncJobResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	var job api.SyncJobResponse
	path := "/v1/sync/jobs/" + strconv.FormatInt(jobID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Status reports whether the configured account is currently syncing.
func (c *Client) Status(ctx context.Context) (*api.SyncStatusResponse, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	var status api.SyncStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/sync/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UsageSummary fetches the aggregated API usage view.
func (c *Client) UsageSummary(ctx context.Context) (map[string]any, error) {
	var summary map[string]any
	if err := c.do(ctx, http.MethodGet, "/v1/api-usage/summary", nil, nil, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// UsageDaily fetches per-day usage rows for the trailing window.
func (c *Client) UsageDaily(ctx context.Context, days int) ([]map[string]any, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, "/v1/api-usage/daily", q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
