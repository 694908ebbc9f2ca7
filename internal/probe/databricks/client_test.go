package databricks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiya-ps-559/dab-project/internal/probe"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		Host:        srv.URL,
		Token:       "test-token",
		WarehouseID: "wh-123",
		Catalog:     "dab-mvp-dev",
	})
	require.NoError(t, err)
	c.pollInterval = time.Millisecond
	return c
}

func TestTableExists(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/2.1/unity-catalog/tables/dab-mvp-dev.sales.orders":
			w.Write([]byte(`{"name": "orders"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, handler)

	ok, err := c.TableExists(context.Background(), "sales.orders")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TableExists(context.Background(), "sales.missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableExists_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := newTestClient(t, handler)

	_, err := c.TableExists(context.Background(), "sales.orders")
	require.Error(t, err)
	assert.True(t, probe.IsConnection(err))
}

func TestTableExists_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c, err := NewClient(Config{Host: srv.URL, Token: "test-token"})
	require.NoError(t, err)

	_, err = c.TableExists(context.Background(), "sales.orders")
	require.Error(t, err)
	assert.True(t, probe.IsConnection(err))
}

func TestJobExists(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.2/jobs/list", r.URL.Path)
		assert.Equal(t, "nightly-refresh", r.URL.Query().Get("name"))
		json.NewEncoder(w).Encode(map[string]any{
			"jobs": []map[string]any{
				{"job_id": 1, "settings": map[string]any{"name": "nightly-refresh-old"}},
				{"job_id": 2, "settings": map[string]any{"name": "nightly-refresh"}},
			},
		})
	})
	c := newTestClient(t, handler)

	ok, err := c.JobExists(context.Background(), "nightly-refresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJobExists_NoMatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"jobs": []any{}})
	})
	c := newTestClient(t, handler)

	ok, err := c.JobExists(context.Background(), "nightly-refresh")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRowCount_ImmediateResult(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/2.0/sql/statements", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SELECT COUNT(*) FROM `dab-mvp-dev`.`sales`.`orders`", body["statement"])
		assert.Equal(t, "wh-123", body["warehouse_id"])

		json.NewEncoder(w).Encode(map[string]any{
			"statement_id": "stmt-1",
			"status":       map[string]any{"state": "SUCCEEDED"},
			"result":       map[string]any{"data_array": [][]string{{"150"}}},
		})
	})
	c := newTestClient(t, handler)

	count, err := c.RowCount(context.Background(), "sales.orders")
	require.NoError(t, err)
	assert.Equal(t, int64(150), count)
}

func TestRowCount_PollsUntilDone(t *testing.T) {
	var polls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{
				"statement_id": "stmt-1",
				"status":       map[string]any{"state": "PENDING"},
			})
		case r.URL.Path == "/api/2.0/sql/statements/stmt-1":
			polls++
			if polls < 3 {
				json.NewEncoder(w).Encode(map[string]any{
					"statement_id": "stmt-1",
					"status":       map[string]any{"state": "RUNNING"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"statement_id": "stmt-1",
				"status":       map[string]any{"state": "SUCCEEDED"},
				"result":       map[string]any{"data_array": [][]string{{"7"}}},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	c := newTestClient(t, handler)

	count, err := c.RowCount(context.Background(), "sales.orders")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Equal(t, 3, polls)
}

func TestRowCount_TableNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"statement_id": "stmt-1",
			"status": map[string]any{
				"state": "FAILED",
				"error": map[string]any{
					"error_code": "BAD_REQUEST",
					"message":    "[TABLE_OR_VIEW_NOT_FOUND] The table or view `sales`.`orders` cannot be found",
				},
			},
		})
	})
	c := newTestClient(t, handler)

	_, err := c.RowCount(context.Background(), "sales.orders")
	require.Error(t, err)
	assert.True(t, probe.IsNotFound(err))
	assert.False(t, probe.IsConnection(err))
}

func TestRowCount_StatementFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"statement_id": "stmt-1",
			"status": map[string]any{
				"state": "FAILED",
				"error": map[string]any{"error_code": "INTERNAL", "message": "warehouse unavailable"},
			},
		})
	})
	c := newTestClient(t, handler)

	_, err := c.RowCount(context.Background(), "sales.orders")
	require.Error(t, err)
	assert.True(t, probe.IsConnection(err))
	assert.Contains(t, err.Error(), "warehouse unavailable")
}

func TestRowCount_MissingWarehouseID(t *testing.T) {
	c, err := NewClient(Config{Host: "https://example.test", Token: "test-token"})
	require.NoError(t, err)

	_, err = c.RowCount(context.Background(), "sales.orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABRICKS_WAREHOUSE_ID")
	assert.False(t, probe.IsConnection(err))
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, "`cat`.`sch`.`tbl`", quoteQualified("cat.sch.tbl"))
	assert.Equal(t, "`tbl`", quoteQualified("tbl"))
}

func TestFullName_NoCatalog(t *testing.T) {
	c, err := NewClient(Config{Host: "https://example.test", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "sales.orders", c.fullName("sales.orders"))
}

func TestNewClient_HostNormalization(t *testing.T) {
	c, err := NewClient(Config{Host: "adb-1.azuredatabricks.net/", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://adb-1.azuredatabricks.net", c.host)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(Config{Token: "t"})
	require.Error(t, err)
}

func TestNewTokenSource(t *testing.T) {
	src, err := newTokenSource("https://adb-1.azuredatabricks.net", "pat-token")
	require.NoError(t, err)
	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pat-token", tok)

	// No PAT outside Azure is a configuration error.
	_, err = newTokenSource("https://dbc-1.cloud.databricks.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABRICKS_TOKEN")

	// Azure hosts fall back to AAD.
	src, err = newTokenSource("https://adb-1.azuredatabricks.net", "")
	require.NoError(t, err)
	assert.IsType(t, &aadToken{}, src)
}
