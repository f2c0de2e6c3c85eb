package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(&contract.Config{
		PlatformURL: url,
		APIKey:      "secret-key",
		PageSize:    2,
	})
}

func TestListExperimentsPagination(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		switch {
		case r.URL.Path == "/api/v1/experiments" && r.URL.Query().Get("offset") == "0":
			fmt.Fprint(w, `{
				"experiments": [
					{"id": "exp_1", "status": "running"},
					{"id": "exp_2", "status": "draft"}
				],
				"count": 2, "total": 3, "hasMore": true, "nextOffset": 2
			}`)
		case r.URL.Path == "/api/v1/experiments" && r.URL.Query().Get("offset") == "2":
			fmt.Fprint(w, `{
				"experiments": [{"id": "exp_3", "status": "stopped"}],
				"count": 1, "total": 3, "hasMore": false, "nextOffset": 0
			}`)
		case r.URL.Path == "/api/v1/experiments/exp_3/results":
			fmt.Fprint(w, `{"result": {"dateStart": "2025-05-01", "dateEnd": "2025-05-15", "results": [{"totalUsers": 500, "metrics": []}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	experiments, err := client.ListExperiments(context.Background())
	require.NoError(t, err)
	require.Len(t, experiments, 3)
	assert.Equal(t, "exp_1", experiments[0].ID)
	assert.Equal(t, "exp_3", experiments[2].ID)

	// Only the stopped experiment gets its result block fetched.
	assert.Nil(t, experiments[0].Result)
	assert.Nil(t, experiments[1].Result)
	require.NotNil(t, experiments[2].Result)
	assert.Equal(t, 500, experiments[2].Result.Latest().TotalUsers)

	for _, h := range authHeaders {
		assert.Equal(t, "Bearer secret-key", h)
	}
}

func TestListExperimentsToleratesMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/experiments" {
			fmt.Fprint(w, `{"experiments": [{"id": "exp_1", "status": "stopped"}], "count": 1, "hasMore": false}`)
			return
		}
		http.Error(w, "no results computed yet", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	experiments, err := client.ListExperiments(context.Background())
	require.NoError(t, err, "a missing result block is a degraded state, not an error")
	require.Len(t, experiments, 1)
	assert.Nil(t, experiments[0].Result)
}

func TestGetExperiment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/experiments/exp_1":
			fmt.Fprint(w, `{"experiment": {"id": "exp_1", "name": "Checkout test", "status": "stopped", "resultSummary": {"status": "won"}}}`)
		case "/api/v1/experiments/exp_1/results":
			fmt.Fprint(w, `{"result": {"results": [{"totalUsers": 900, "metrics": []}]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	exp, err := client.GetExperiment(context.Background(), "exp_1")
	require.NoError(t, err)
	assert.Equal(t, "Checkout test", exp.Name)
	assert.Equal(t, "won", exp.ResultSummary.Status)
	require.NotNil(t, exp.Result)
	assert.Equal(t, 900, exp.Result.Latest().TotalUsers)
}

func TestGetMetric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/metrics/bounce_rate", r.URL.Path)
		fmt.Fprint(w, `{"metric": {"id": "bounce_rate", "name": "Bounce Rate", "inverse": true, "type": "binomial"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	info, err := client.GetMetric(context.Background(), "bounce_rate")
	require.NoError(t, err)
	assert.Equal(t, schema.MetricInfo{
		ID:      "bounce_rate",
		Name:    "Bounce Rate",
		Inverse: true,
		Type:    schema.BinomialMetric,
	}, info)
}

func TestGetFactMetric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/fact-metrics/fact__orders", r.URL.Path)
		fmt.Fprint(w, `{"factMetric": {"id": "fact__orders", "name": "Orders"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	info, err := client.GetFactMetric(context.Background(), "fact__orders")
	require.NoError(t, err)
	assert.False(t, info.Inverse)
	assert.Equal(t, schema.CountMetric, info.Type)
}

func TestGetJSONRetriesOn429(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"metric": {"id": "m1", "name": "M1"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	info, err := client.GetMetric(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "one retry after the rate limit")
	assert.Equal(t, "m1", info.ID)
}

func TestGetJSONErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetMetric(context.Background(), "m1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad credentials")
}
