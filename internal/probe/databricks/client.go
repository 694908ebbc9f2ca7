// Package databricks implements the probe interface against a Databricks
// workspace using the REST APIs: Unity Catalog for table metadata, the Jobs
// API for scheduled jobs, and the SQL statement-execution API for row counts.
package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amiya-ps-559/dab-project/internal/probe"
)

const (
	tablesPath     = "/api/2.1/unity-catalog/tables/"
	jobsListPath   = "/api/2.2/jobs/list"
	statementsPath = "/api/2.0/sql/statements"

	defaultHTTPTimeout  = 30 * time.Second
	defaultPollInterval = time.Second
)

// Config holds the connection settings for a workspace. Credentials come
// from the environment; the engine itself only ever receives the constructed
// probe.
type Config struct {
	// Host is the workspace URL, e.g. https://adb-123.4.azuredatabricks.net.
	Host string
	// Token is a personal access token. When empty and the host is an Azure
	// Databricks workspace, an AAD token is acquired instead.
	Token string
	// WarehouseID identifies the SQL warehouse used for row-count queries.
	WarehouseID string
	// Catalog, when set, prefixes every table identifier. Asset bundles
	// deploy one catalog per environment, so targets in the config stay
	// environment-neutral ("schema.table").
	Catalog string
}

// Client is a Probe backed by the Databricks REST APIs. Safe for concurrent
// use: the only mutable state is the cached AAD token inside the token source.
type Client struct {
	host         string
	warehouseID  string
	catalog      string
	httpClient   *http.Client
	tokens       tokenSource
	pollInterval time.Duration
}

var _ probe.Probe = (*Client)(nil)

// NewClient creates a probe client for the configured workspace.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("databricks: host is required")
	}
	host := strings.TrimRight(cfg.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	tokens, err := newTokenSource(host, cfg.Token)
	if err != nil {
		return nil, err
	}

	return &Client{
		host:         host,
		warehouseID:  cfg.WarehouseID,
		catalog:      cfg.Catalog,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		tokens:       tokens,
		pollInterval: defaultPollInterval,
	}, nil
}

// TableExists checks the Unity Catalog metadata endpoint for the table.
func (c *Client) TableExists(ctx context.Context, name string) (bool, error) {
	full := c.fullName(name)
	status, err := c.do(ctx, http.MethodGet, tablesPath+url.PathEscape(full), nil, nil, nil)
	if err != nil {
		return false, &probe.ConnectionError{Op: "table_exists", Target: name, Err: err}
	}
	switch {
	case status == http.StatusOK:
		return true, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, &probe.ConnectionError{Op: "table_exists", Target: name,
			Err: fmt.Errorf("unexpected status %d", status)}
	}
}

// JobExists lists jobs filtered by name and looks for an exact match.
func (c *Client) JobExists(ctx context.Context, name string) (bool, error) {
	var out struct {
		Jobs []struct {
			JobID    int64 `json:"job_id"`
			Settings struct {
				Name string `json:"name"`
			} `json:"settings"`
		} `json:"jobs"`
	}
	query := url.Values{"name": {name}}
	status, err := c.do(ctx, http.MethodGet, jobsListPath, query, nil, &out)
	if err != nil {
		return false, &probe.ConnectionError{Op: "job_exists", Target: name, Err: err}
	}
	if status != http.StatusOK {
		return false, &probe.ConnectionError{Op: "job_exists", Target: name,
			Err: fmt.Errorf("unexpected status %d", status)}
	}
	for _, j := range out.Jobs {
		if j.Settings.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// statementResponse is the subset of the statement-execution API response the
// probe needs.
type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error *struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		} `json:"error"`
	} `json:"status"`
	Result *struct {
		DataArray [][]string `json:"data_array"`
	} `json:"result"`
}

// RowCount runs SELECT COUNT(*) through the SQL statement-execution API,
// polling until the statement leaves the PENDING/RUNNING states.
func (c *Client) RowCount(ctx context.Context, name string) (int64, error) {
	if c.warehouseID == "" {
		return 0, fmt.Errorf("databricks: warehouse id is required for row-count checks (set DATABRICKS_WAREHOUSE_ID)")
	}

	body := map[string]any{
		"statement":    fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteQualified(c.fullName(name))),
		"warehouse_id": c.warehouseID,
		"wait_timeout": "10s",
	}

	var st statementResponse
	status, err := c.do(ctx, http.MethodPost, statementsPath, nil, body, &st)
	if err != nil {
		return 0, &probe.ConnectionError{Op: "row_count", Target: name, Err: err}
	}
	if status != http.StatusOK {
		return 0, &probe.ConnectionError{Op: "row_count", Target: name,
			Err: fmt.Errorf("unexpected status %d", status)}
	}

	for st.Status.State == "PENDING" || st.Status.State == "RUNNING" {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		status, err = c.do(ctx, http.MethodGet, statementsPath+"/"+url.PathEscape(st.StatementID), nil, nil, &st)
		if err != nil {
			return 0, &probe.ConnectionError{Op: "row_count", Target: name, Err: err}
		}
		if status != http.StatusOK {
			return 0, &probe.ConnectionError{Op: "row_count", Target: name,
				Err: fmt.Errorf("unexpected status %d while polling statement", status)}
		}
	}

	if st.Status.State != "SUCCEEDED" {
		if st.Status.Error != nil && strings.Contains(st.Status.Error.Message, "TABLE_OR_VIEW_NOT_FOUND") {
			return 0, &probe.NotFoundError{Target: name}
		}
		msg := "no error detail"
		if st.Status.Error != nil {
			msg = st.Status.Error.Message
		}
		return 0, &probe.ConnectionError{Op: "row_count", Target: name,
			Err: fmt.Errorf("statement %s: %s", st.Status.State, msg)}
	}

	if st.Result == nil || len(st.Result.DataArray) == 0 || len(st.Result.DataArray[0]) == 0 {
		return 0, &probe.ConnectionError{Op: "row_count", Target: name,
			Err: fmt.Errorf("statement succeeded but returned no rows")}
	}
	count, err := strconv.ParseInt(st.Result.DataArray[0][0], 10, 64)
	if err != nil {
		return 0, &probe.ConnectionError{Op: "row_count", Target: name,
			Err: fmt.Errorf("parsing count %q: %w", st.Result.DataArray[0][0], err)}
	}
	return count, nil
}

// fullName prefixes the configured catalog onto an identifier from the
// check config.
func (c *Client) fullName(name string) string {
	if c.catalog == "" {
		return name
	}
	return c.catalog + "." + name
}

// quoteQualified backtick-quotes each part of a dotted identifier for SQL.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + p + "`"
	}
	return strings.Join(parts, ".")
}

// do issues one API request. The returned error covers transport, auth, and
// decode problems only; HTTP status handling is left to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (int, error) {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("databricks request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
