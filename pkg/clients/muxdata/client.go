// Package muxdata implements the REST client for the Mux Data analytics API.
package muxdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spyglass/pkg/api/muxdata"
	"spyglass/pkg/clients"
	"spyglass/pkg/logging"
	"spyglass/pkg/redact"
)

// Endpoint paths consumed from the analytics backend. The protocol mirror
// addresses the same operations by their underscored names.
const (
	EndpointOverallMetrics = "/data/v1/metrics/overall"
	EndpointErrors         = "/data/v1/errors"
	EndpointVideoViews     = "/data/v1/video-views"
)

// Client represents a Mux Data analytics API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenID     string
	tokenSecret string
	logger      logging.Logger
	retryConfig clients.RetryConfig
}

// Config represents the configuration for the Mux Data client
type Config struct {
	BaseURL     string
	TokenID     string
	TokenSecret string
	Timeout     time.Duration
	Logger      logging.Logger
	RetryConfig *clients.RetryConfig
}

// NewClient creates a new Mux Data analytics API client.
//
// Fetches are never retried automatically: a failed call gets exactly
// one attempt, and failure substitution belongs to the caller's
// fallback chain. A RetryConfig can still be supplied explicitly for
// uses outside that chain.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.mux.com"
	}

	retryConfig := clients.NoRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: clients.DefaultTransport(),
	}

	return &Client{
		baseURL:     config.BaseURL,
		httpClient:  httpClient,
		tokenID:     config.TokenID,
		tokenSecret: config.TokenSecret,
		logger:      config.Logger,
		retryConfig: retryConfig,
	}
}

// timeframeParams encodes the window as the backend's repeated
// timeframe[] epoch-second pair.
func timeframeParams(params url.Values, start, end int64) {
	params.Add("timeframe[]", strconv.FormatInt(start, 10))
	params.Add("timeframe[]", strconv.FormatInt(end, 10))
}

// filterParams encodes filters as repeated filters[] dimension:value params.
func filterParams(params url.Values, filters []muxdata.Filter) {
	for _, f := range filters {
		params.Add("filters[]", f.String())
	}
}

// makeRequest is a helper function to make basic-auth requests
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := clients.DoWithRetry(ctx, c.httpClient, req, c.retryConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to call Mux Data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		// Upstream error bodies can echo credentials; always redact before
		// the text leaves this package.
		if len(body) == 0 {
			return nil, fmt.Errorf("Mux Data returned error status %d with empty body", resp.StatusCode)
		}
		var errorResp muxdata.ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("Mux Data returned error status %d: %s", resp.StatusCode, redact.String(string(body)))
		}
		return nil, fmt.Errorf("Mux Data returned error status %d: %s", resp.StatusCode, redact.String(errorResp.Error))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("failed to parse response: empty body")
	}

	return body, nil
}

// GetOverallMetrics returns the overall quality-of-experience metrics for
// the given epoch-second window.
func (c *Client) GetOverallMetrics(ctx context.Context, start, end int64, filters []muxdata.Filter) (*muxdata.OverallMetricsResponse, error) {
	params := url.Values{}
	timeframeParams(params, start, end)
	filterParams(params, filters)

	body, err := c.makeRequest(ctx, "GET", EndpointOverallMetrics, params)
	if err != nil {
		return nil, err
	}

	var response muxdata.OverallMetricsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}

// ListErrors returns the aggregated playback errors for the window.
func (c *Client) ListErrors(ctx context.Context, start, end int64, filters []muxdata.Filter) (*muxdata.ErrorListResponse, error) {
	params := url.Values{}
	timeframeParams(params, start, end)
	filterParams(params, filters)

	body, err := c.makeRequest(ctx, "GET", EndpointErrors, params)
	if err != nil {
		return nil, err
	}

	var response muxdata.ErrorListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}

// ListVideoViews returns individual viewer sessions for the window.
func (c *Client) ListVideoViews(ctx context.Context, start, end int64, filters []muxdata.Filter, limit int) (*muxdata.VideoViewListResponse, error) {
	params := url.Values{}
	timeframeParams(params, start, end)
	filterParams(params, filters)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.makeRequest(ctx, "GET", EndpointVideoViews, params)
	if err != nil {
		return nil, err
	}

	var response muxdata.VideoViewListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}

// GetMetricBreakdown returns a metric broken down by one dimension.
func (c *Client) GetMetricBreakdown(ctx context.Context, metricID, groupBy string, start, end int64, filters []muxdata.Filter) (*muxdata.BreakdownResponse, error) {
	endpoint := fmt.Sprintf("/data/v1/metrics/%s/breakdown", url.PathEscape(metricID))

	params := url.Values{}
	params.Set("group_by", groupBy)
	timeframeParams(params, start, end)
	filterParams(params, filters)

	body, err := c.makeRequest(ctx, "GET", endpoint, params)
	if err != nil {
		return nil, err
	}

	var response muxdata.BreakdownResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &response, nil
}
