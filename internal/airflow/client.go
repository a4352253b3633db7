// Package airflow implements the upstream run log over the Airflow REST API.
package airflow

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// Config holds Airflow API connection settings.
type Config struct {
	URL      string
	WebURL   string
	Username string
	Password string
	Insecure bool
	Timeout  time.Duration
}

// Client queries DAG runs and task instances from the Airflow REST API.
type Client struct {
	baseURL  string
	webURL   string
	username string
	password string
	client   *http.Client
}

// NewClient creates a new Airflow API client
func NewClient(cfg Config) *Client {
	transport := &http.Transport{}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	webURL := cfg.WebURL
	if webURL == "" {
		webURL = cfg.URL
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		webURL:   strings.TrimRight(webURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type listRunsRequest struct {
	DagIDs     []string `json:"dag_ids"`
	EndDateGTE string   `json:"end_date_gte"`
	EndDateLTE string   `json:"end_date_lte"`
	States     []string `json:"states"`
	OrderBy    string   `json:"order_by"`
	PageOffset int      `json:"page_offset"`
	PageLimit  int      `json:"page_limit"`
}

type listRunsResponse struct {
	DagRuns      []apiRun `json:"dag_runs"`
	TotalEntries int      `json:"total_entries"`
}

type apiRun struct {
	DagID     string     `json:"dag_id"`
	RunID     string     `json:"dag_run_id"`
	State     string     `json:"state"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type listTaskInstancesRequest struct {
	DagIDs    []string `json:"dag_ids"`
	DagRunIDs []string `json:"dag_run_ids"`
	TaskIDs   []string `json:"task_ids"`
	State     []string `json:"state"`
}

type listTaskInstancesResponse struct {
	TaskInstances []apiTaskInstance `json:"task_instances"`
}

type apiTaskInstance struct {
	DagID     string     `json:"dag_id"`
	RunID     string     `json:"dag_run_id"`
	TaskID    string     `json:"task_id"`
	State     string     `json:"state"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	TryNumber int        `json:"try_number"`
}

// ListRuns returns successful runs of dagIDs that ended within [endGTE, endLTE],
// ordered by end date, starting at offset.
func (c *Client) ListRuns(ctx context.Context, dagIDs []string, endGTE, endLTE time.Time, offset, limit int) ([]models.Run, error) {
	body := listRunsRequest{
		DagIDs:     dagIDs,
		EndDateGTE: endGTE.UTC().Format(time.RFC3339Nano),
		EndDateLTE: endLTE.UTC().Format(time.RFC3339Nano),
		States:     []string{models.TaskStateSuccess},
		OrderBy:    "end_date",
		PageOffset: offset,
		PageLimit:  limit,
	}

	var resp listRunsResponse
	if err := c.post(ctx, "/api/v1/dags/~/dagRuns/list", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to list dag runs: %w", err)
	}

	runs := make([]models.Run, 0, len(resp.DagRuns))
	for _, r := range resp.DagRuns {
		runs = append(runs, models.Run{
			DagID:     r.DagID,
			RunID:     r.RunID,
			State:     r.State,
			StartDate: deref(r.StartDate),
			EndDate:   deref(r.EndDate),
		})
	}
	return runs, nil
}

// ListTaskInstances returns the task instances of one run, filtered by task
// IDs and states.
func (c *Client) ListTaskInstances(ctx context.Context, dagID, runID string, taskIDs, states []string) ([]models.TaskInstance, error) {
	body := listTaskInstancesRequest{
		DagIDs:    []string{dagID},
		DagRunIDs: []string{runID},
		TaskIDs:   taskIDs,
		State:     states,
	}

	var resp listTaskInstancesResponse
	if err := c.post(ctx, "/api/v1/dags/~/dagRuns/~/taskInstances/list", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to list task instances for %s/%s: %w", dagID, runID, err)
	}

	instances := make([]models.TaskInstance, 0, len(resp.TaskInstances))
	for _, ti := range resp.TaskInstances {
		instances = append(instances, models.TaskInstance{
			DagID:     ti.DagID,
			RunID:     ti.RunID,
			TaskID:    ti.TaskID,
			State:     ti.State,
			StartDate: deref(ti.StartDate),
			EndDate:   deref(ti.EndDate),
			TryNumber: ti.TryNumber,
		})
	}
	return instances, nil
}

// RunDetailsURL returns the web UI link for a run.
func (c *Client) RunDetailsURL(dagID, runID string) string {
	return fmt.Sprintf("%s/dags/%s/grid?dag_run_id=%s", c.webURL, url.PathEscape(dagID), url.QueryEscape(runID))
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("request failed with status %d (failed to read response body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
