// Package platform is a thin HTTP client for the experiment platform API.
// It returns already-parsed records; all analysis happens in core.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
)

// requestTimeout bounds any single API call.
const requestTimeout = 30 * time.Second

// Client talks to the platform's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

var (
	_ contract.ExperimentSource = &Client{} // Compile-time check
	_ contract.MetricCatalog    = &Client{} // Compile-time check
)

// NewClient creates a client from the validated config.
func NewClient(cfg *contract.Config) *Client {
	return &Client{
		baseURL:    cfg.PlatformURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// experimentsPage is the wire shape of the paginated experiments listing.
type experimentsPage struct {
	Experiments []schema.Experiment `json:"experiments"`
	Count       int                 `json:"count"`
	Total       int                 `json:"total"`
	HasMore     bool                `json:"hasMore"`
	NextOffset  int                 `json:"nextOffset"`
}

// experimentPayload wraps a single experiment response.
type experimentPayload struct {
	Experiment schema.Experiment `json:"experiment"`
}

// resultPayload wraps the result block endpoint response.
type resultPayload struct {
	Result *schema.ExperimentResult `json:"result"`
}

// metricPayload is the wire shape of the legacy metric catalog. It is
// normalized into schema.MetricInfo immediately on ingestion.
type metricPayload struct {
	Metric struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Inverse bool   `json:"inverse"`
		Type    string `json:"type"`
	} `json:"metric"`
}

// factMetricPayload is the wire shape of the fact-metric catalog.
type factMetricPayload struct {
	FactMetric struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"factMetric"`
}

// ListExperiments fetches all experiments, following pagination, and augments
// stopped experiments with their result block.
func (c *Client) ListExperiments(ctx context.Context) ([]schema.Experiment, error) {
	var all []schema.Experiment
	offset := 0
	for {
		var page experimentsPage
		url := fmt.Sprintf("%s/api/v1/experiments?limit=%d&offset=%d", c.baseURL, c.pageSize, offset)
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Experiments...)
		if !page.HasMore || page.Count == 0 {
			break
		}
		offset = page.NextOffset
	}

	for i := range all {
		exp := &all[i]
		if schema.ParseExperimentStatus(string(exp.Status)) != schema.StoppedStatus || exp.Result != nil {
			continue
		}
		result, err := c.getResult(ctx, exp.ID)
		if err != nil {
			// A missing result block is a legitimate degraded state downstream.
			contract.LogWarn("Result fetch failed for experiment "+exp.ID, err)
			continue
		}
		exp.Result = result
	}
	return all, nil
}

// GetExperiment fetches a single experiment with its result block.
func (c *Client) GetExperiment(ctx context.Context, id string) (schema.Experiment, error) {
	var payload experimentPayload
	url := fmt.Sprintf("%s/api/v1/experiments/%s", c.baseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return schema.Experiment{}, err
	}
	exp := payload.Experiment
	if exp.Result == nil {
		if result, err := c.getResult(ctx, id); err == nil {
			exp.Result = result
		}
	}
	return exp, nil
}

// getResult fetches the result block of an experiment.
func (c *Client) getResult(ctx context.Context, id string) (*schema.ExperimentResult, error) {
	var payload resultPayload
	url := fmt.Sprintf("%s/api/v1/experiments/%s/results", c.baseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Result, nil
}

// GetMetric fetches legacy metric metadata by ID.
func (c *Client) GetMetric(ctx context.Context, id string) (schema.MetricInfo, error) {
	var payload metricPayload
	url := fmt.Sprintf("%s/api/v1/metrics/%s", c.baseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return schema.MetricInfo{}, err
	}
	return schema.MetricInfo{
		ID:      payload.Metric.ID,
		Name:    payload.Metric.Name,
		Inverse: payload.Metric.Inverse,
		Type:    schema.MetricType(payload.Metric.Type),
	}, nil
}

// GetFactMetric fetches fact-metric metadata by ID. The returned info is
// normalized by the resolver to the fixed non-inverse count shape.
func (c *Client) GetFactMetric(ctx context.Context, id string) (schema.MetricInfo, error) {
	var payload factMetricPayload
	url := fmt.Sprintf("%s/api/v1/fact-metrics/%s", c.baseURL, id)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return schema.MetricInfo{}, err
	}
	return schema.FactMetricInfo(payload.FactMetric.ID, payload.FactMetric.Name), nil
}

// getJSON performs an authorized GET and decodes the JSON body into out.
// A single retry honors the Retry-After header on HTTP 429.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			delay := time.Second
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return fmt.Errorf("platform API returned %d for %s: %s", resp.StatusCode, url, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode platform response from %s: %w", url, err)
		}
		return nil
	}
}
