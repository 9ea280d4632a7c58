// Package insights is the analytics core of spyglass: it resolves
// timeframes, fetches metrics from the configured sources, runs the
// deterministic health analysis, and shapes the outward results the
// agent runtime consumes.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spyglass/internal/mcpbridge"
	"spyglass/internal/timeframe"
	api "spyglass/pkg/api/muxdata"
	muxclient "spyglass/pkg/clients/muxdata"
	"spyglass/pkg/logging"
)

// MetricsSource is one way of reaching the analytics backend. The two
// implementations are the direct REST client and the MCP mirror; both
// answer the same four operations.
type MetricsSource interface {
	Name() string
	FetchOverallMetrics(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.OverallMetricsResponse, error)
	FetchErrorList(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.ErrorListResponse, error)
	FetchVideoViews(ctx context.Context, r timeframe.Range, filters []api.Filter, limit int) (*api.VideoViewListResponse, error)
	FetchBreakdown(ctx context.Context, metricID, groupBy string, r timeframe.Range, filters []api.Filter) (*api.BreakdownResponse, error)
}

// RESTSource reaches the backend through the typed REST client.
type RESTSource struct {
	Client *muxclient.Client
}

func (s *RESTSource) Name() string { return "rest" }

func (s *RESTSource) FetchOverallMetrics(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.OverallMetricsResponse, error) {
	return s.Client.GetOverallMetrics(ctx, r.Start, r.End, filters)
}

func (s *RESTSource) FetchErrorList(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.ErrorListResponse, error) {
	return s.Client.ListErrors(ctx, r.Start, r.End, filters)
}

func (s *RESTSource) FetchVideoViews(ctx context.Context, r timeframe.Range, filters []api.Filter, limit int) (*api.VideoViewListResponse, error) {
	return s.Client.ListVideoViews(ctx, r.Start, r.End, filters, limit)
}

func (s *RESTSource) FetchBreakdown(ctx context.Context, metricID, groupBy string, r timeframe.Range, filters []api.Filter) (*api.BreakdownResponse, error) {
	return s.Client.GetMetricBreakdown(ctx, metricID, groupBy, r.Start, r.End, filters)
}

// MirrorSource reaches the backend through the MCP protocol mirror.
// Each REST endpoint maps to a mirror tool by name; the tool returns
// the same JSON body the REST endpoint would have.
type MirrorSource struct {
	Mirror *mcpbridge.MirrorClient
}

func (s *MirrorSource) Name() string { return "mirror" }

func (s *MirrorSource) invoke(ctx context.Context, endpoint string, args map[string]any, out any) error {
	text, err := s.Mirror.InvokeEndpoint(ctx, endpoint, args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to parse mirror payload for %s: %w", endpoint, err)
	}
	return nil
}

func mirrorArgs(r timeframe.Range, filters []api.Filter) map[string]any {
	args := map[string]any{
		"timeframe": []int64{r.Start, r.End},
	}
	if len(filters) > 0 {
		strs := make([]string, len(filters))
		for i, f := range filters {
			strs[i] = f.String()
		}
		args["filters"] = strs
	}
	return args
}

func (s *MirrorSource) FetchOverallMetrics(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.OverallMetricsResponse, error) {
	var resp api.OverallMetricsResponse
	if err := s.invoke(ctx, muxclient.EndpointOverallMetrics, mirrorArgs(r, filters), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *MirrorSource) FetchErrorList(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.ErrorListResponse, error) {
	var resp api.ErrorListResponse
	if err := s.invoke(ctx, muxclient.EndpointErrors, mirrorArgs(r, filters), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *MirrorSource) FetchVideoViews(ctx context.Context, r timeframe.Range, filters []api.Filter, limit int) (*api.VideoViewListResponse, error) {
	args := mirrorArgs(r, filters)
	if limit > 0 {
		args["limit"] = limit
	}
	var resp api.VideoViewListResponse
	if err := s.invoke(ctx, muxclient.EndpointVideoViews, args, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *MirrorSource) FetchBreakdown(ctx context.Context, metricID, groupBy string, r timeframe.Range, filters []api.Filter) (*api.BreakdownResponse, error) {
	args := mirrorArgs(r, filters)
	args["group_by"] = groupBy
	endpoint := fmt.Sprintf("/data/v1/metrics/%s/breakdown", metricID)
	var resp api.BreakdownResponse
	if err := s.invoke(ctx, endpoint, args, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chain tries each source in declared order. Each source gets exactly
// one attempt per call; a failure moves to the next source, never back.
// When every source fails the error names each attempt in order.
type Chain struct {
	sources []MetricsSource
	logger  logging.Logger
}

// NewChain builds a fallback chain over the given sources. Order is
// priority order: the mirror, when configured, is listed before REST.
func NewChain(logger logging.Logger, sources ...MetricsSource) *Chain {
	return &Chain{sources: sources, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

// attempt runs fn against each source in order and returns the first
// success. All failures are collected into one composite error.
func attempt[T any](ctx context.Context, c *Chain, op string, fn func(MetricsSource) (T, error)) (T, error) {
	var zero T
	if len(c.sources) == 0 {
		return zero, fmt.Errorf("%s: no metrics sources configured", op)
	}

	var failures []string
	for i, src := range c.sources {
		result, err := fn(src)
		if err == nil {
			if i > 0 {
				sourceFallbacksTotal.WithLabelValues(c.sources[0].Name(), src.Name()).Inc()
			}
			return result, nil
		}

		failures = append(failures, fmt.Sprintf("%s: %v", src.Name(), err))
		if c.logger != nil {
			c.logger.WithFields(logging.Fields{
				"operation": op,
				"source":    src.Name(),
				"error":     err.Error(),
			}).Warn("Metrics source failed")
		}
		if ctx.Err() != nil {
			break
		}
	}

	return zero, fmt.Errorf("%s failed on every source (%s)", op, strings.Join(failures, "; "))
}

func (c *Chain) FetchOverallMetrics(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.OverallMetricsResponse, error) {
	return attempt(ctx, c, "overall metrics", func(s MetricsSource) (*api.OverallMetricsResponse, error) {
		return s.FetchOverallMetrics(ctx, r, filters)
	})
}

func (c *Chain) FetchErrorList(ctx context.Context, r timeframe.Range, filters []api.Filter) (*api.ErrorListResponse, error) {
	return attempt(ctx, c, "error list", func(s MetricsSource) (*api.ErrorListResponse, error) {
		return s.FetchErrorList(ctx, r, filters)
	})
}

func (c *Chain) FetchVideoViews(ctx context.Context, r timeframe.Range, filters []api.Filter, limit int) (*api.VideoViewListResponse, error) {
	return attempt(ctx, c, "video views", func(s MetricsSource) (*api.VideoViewListResponse, error) {
		return s.FetchVideoViews(ctx, r, filters, limit)
	})
}

func (c *Chain) FetchBreakdown(ctx context.Context, metricID, groupBy string, r timeframe.Range, filters []api.Filter) (*api.BreakdownResponse, error) {
	return attempt(ctx, c, "metric breakdown", func(s MetricsSource) (*api.BreakdownResponse, error) {
		return s.FetchBreakdown(ctx, metricID, groupBy, r, filters)
	})
}
