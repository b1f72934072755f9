// Package nutrition provides a client for a FoodData-style nutrition
// database API, used to look up foods and their measured portion weights.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the nutrition database operations.
type Client interface {
	// SearchFoods looks up foods matching the query and returns them with
	// their portion measurements.
	SearchFoods(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchResponse is the parsed food search response.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []Food `json:"foods"`
}

// Food is a single food record.
type Food struct {
	FDCID       int64     `json:"fdcId"`
	Description string    `json:"description"`
	Category    string    `json:"foodCategory"`
	DataType    string    `json:"dataType"`
	Portions    []Portion `json:"foodPortions"`
}

// Portion is a measured serving with its gram weight, e.g. {"1 cup", 240 g}.
type Portion struct {
	Description string  `json:"portionDescription"`
	GramWeight  float64 `json:"gramWeight"`
	// Preferred marks the portion the source considers the household
	// measure for this food.
	Preferred bool `json:"preferred,omitempty"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	pageSize int
	dataType string
}

// WithPageSize limits the number of foods returned.
func WithPageSize(n int) SearchOption {
	return func(o *searchOpts) {
		o.pageSize = n
	}
}

// WithDataType restricts results to a source data type, e.g. "Foundation".
func WithDataType(dt string) SearchOption {
	return func(o *searchOpts) {
		o.dataType = dt
	}
}

// Option configures the nutrition client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new nutrition database client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.nal.usda.gov/fdc",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// The public tier allows 1000 requests/hour.
		limiter: rate.NewLimiter(rate.Limit(0.25), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "nutrition: rate limit wait")
		}

		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "nutrition: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("nutrition: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) SearchFoods(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{pageSize: 5}
	for _, opt := range opts {
		opt(so)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", fmt.Sprintf("%d", so.pageSize))
	params.Set("api_key", c.apiKey)
	if so.dataType != "" {
		params.Set("dataType", so.dataType)
	}

	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nutrition: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "nutrition: request failed")
	}

	if statusCode != http.StatusOK {
		return nil, eris.Errorf("nutrition: unexpected status %d: %s", statusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "nutrition: unmarshal response")
	}

	return &result, nil
}
