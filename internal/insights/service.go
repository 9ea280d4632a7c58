package insights

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spyglass/internal/analysis"
	"spyglass/internal/timeframe"
	api "spyglass/pkg/api/muxdata"
	"spyglass/pkg/logging"
	"spyglass/pkg/redact"
)

// ToolRequest is the invocation payload shared by the analytics tools.
// The timeframe can be an absolute start/end pair (epoch seconds or
// numeric strings) or a relative phrase like "last 7 days"; absent or
// unusable input falls back to the default 24-hour window.
type ToolRequest struct {
	Start     any      `json:"start,omitempty"`
	End       any      `json:"end,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
	Filters   []string `json:"filters,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	MetricID  string   `json:"metric_id,omitempty"`
	GroupBy   string   `json:"group_by,omitempty"`
}

// TimeRange is the resolved window in ISO-8601 form for the outward shape.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AnalyticsResult is the outward shape for the streaming-metrics tool.
// Either the success fields or the failure fields are populated, never
// a mix: there is no partial-success shape.
type AnalyticsResult struct {
	Success   bool                       `json:"success"`
	TimeRange *TimeRange                 `json:"time_range,omitempty"`
	Metrics   *api.MetricsRecord         `json:"metrics,omitempty"`
	Analysis  *analysis.HealthAssessment `json:"analysis,omitempty"`
	Summary   string                     `json:"summary,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Message   string                     `json:"message,omitempty"`
}

// ErrorsResult is the outward shape for the error-list tool.
type ErrorsResult struct {
	Success   bool                `json:"success"`
	TimeRange *TimeRange          `json:"time_range,omitempty"`
	Errors    []api.PlaybackError `json:"errors,omitempty"`
	Error     string              `json:"error,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// ViewsResult is the outward shape for the video-view list tool.
type ViewsResult struct {
	Success       bool            `json:"success"`
	TimeRange     *TimeRange      `json:"time_range,omitempty"`
	Views         []api.VideoView `json:"views,omitempty"`
	TotalRowCount *int64          `json:"total_row_count,omitempty"`
	Error         string          `json:"error,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// BreakdownResult is the outward shape for the metric-breakdown tool.
type BreakdownResult struct {
	Success   bool                 `json:"success"`
	TimeRange *TimeRange           `json:"time_range,omitempty"`
	MetricID  string               `json:"metric_id,omitempty"`
	GroupBy   string               `json:"group_by,omitempty"`
	Values    []api.BreakdownValue `json:"values,omitempty"`
	Error     string               `json:"error,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Service runs the resolve-fetch-analyze-format pipeline behind the
// tool surface. The metrics source is injected; in production it is a
// fallback chain over the mirror and the REST client.
type Service struct {
	source MetricsSource
	logger logging.Logger

	// now is the reference clock for timeframe resolution. Tests pin it.
	now func() time.Time
}

// NewService builds a Service over the given source.
func NewService(source MetricsSource, logger logging.Logger) *Service {
	return &Service{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// resolveRange picks the window for a request: an absolute pair when
// either bound is supplied, else the relative phrase, else the default.
func (s *Service) resolveRange(req ToolRequest) timeframe.Range {
	if req.Start != nil || req.End != nil {
		return timeframe.Resolve(s.now(), req.Start, req.End)
	}
	if req.Timeframe != "" {
		return timeframe.ResolveRelative(s.now(), req.Timeframe)
	}
	return timeframe.Default(s.now())
}

func (s *Service) parseFilters(raw []string) ([]api.Filter, error) {
	filters := make([]api.Filter, 0, len(raw))
	for _, token := range raw {
		f, err := api.ParseFilter(token)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func isoRange(r timeframe.Range) *TimeRange {
	return &TimeRange{
		Start: r.StartTime().Format(time.RFC3339),
		End:   r.EndTime().Format(time.RFC3339),
	}
}

// GetStreamingMetrics answers the primary tool: overall metrics for the
// resolved window, analyzed into a health assessment with a bounded
// text summary.
func (s *Service) GetStreamingMetrics(ctx context.Context, req ToolRequest) AnalyticsResult {
	r := s.resolveRange(req)

	filters, err := s.parseFilters(req.Filters)
	if err != nil {
		toolInvocationsTotal.WithLabelValues("get_streaming_metrics", "error").Inc()
		return AnalyticsResult{Success: false, Error: "invalid_filters", Message: redact.Error(err)}
	}

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues("overall_metrics"))
	resp, err := s.source.FetchOverallMetrics(ctx, r, filters)
	timer.ObserveDuration()
	if err != nil {
		toolInvocationsTotal.WithLabelValues("get_streaming_metrics", "error").Inc()
		return AnalyticsResult{Success: false, Error: "fetch_failed", Message: redact.Error(err)}
	}

	assessment := analysis.Analyze(resp.Data)
	summary := analysis.FormatSummary(resp.Data, assessment, r)

	toolInvocationsTotal.WithLabelValues("get_streaming_metrics", "ok").Inc()
	return AnalyticsResult{
		Success:   true,
		TimeRange: isoRange(r),
		Metrics:   &resp.Data,
		Analysis:  &assessment,
		Summary:   summary,
	}
}

// ListErrors answers the error-list tool for the resolved window.
func (s *Service) ListErrors(ctx context.Context, req ToolRequest) ErrorsResult {
	r := s.resolveRange(req)

	filters, err := s.parseFilters(req.Filters)
	if err != nil {
		toolInvocationsTotal.WithLabelValues("list_errors", "error").Inc()
		return ErrorsResult{Success: false, Error: "invalid_filters", Message: redact.Error(err)}
	}

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues("error_list"))
	resp, err := s.source.FetchErrorList(ctx, r, filters)
	timer.ObserveDuration()
	if err != nil {
		toolInvocationsTotal.WithLabelValues("list_errors", "error").Inc()
		return ErrorsResult{Success: false, Error: "fetch_failed", Message: redact.Error(err)}
	}

	toolInvocationsTotal.WithLabelValues("list_errors", "ok").Inc()
	return ErrorsResult{
		Success:   true,
		TimeRange: isoRange(r),
		Errors:    resp.Data,
	}
}

// ListVideoViews answers the video-view list tool for the resolved window.
func (s *Service) ListVideoViews(ctx context.Context, req ToolRequest) ViewsResult {
	r := s.resolveRange(req)

	filters, err := s.parseFilters(req.Filters)
	if err != nil {
		toolInvocationsTotal.WithLabelValues("list_video_views", "error").Inc()
		return ViewsResult{Success: false, Error: "invalid_filters", Message: redact.Error(err)}
	}

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues("video_views"))
	resp, err := s.source.FetchVideoViews(ctx, r, filters, req.Limit)
	timer.ObserveDuration()
	if err != nil {
		toolInvocationsTotal.WithLabelValues("list_video_views", "error").Inc()
		return ViewsResult{Success: false, Error: "fetch_failed", Message: redact.Error(err)}
	}

	toolInvocationsTotal.WithLabelValues("list_video_views", "ok").Inc()
	return ViewsResult{
		Success:       true,
		TimeRange:     isoRange(r),
		Views:         resp.Data,
		TotalRowCount: resp.TotalRowCount,
	}
}

// GetMetricBreakdown answers the breakdown tool: one metric grouped by
// one dimension over the resolved window.
func (s *Service) GetMetricBreakdown(ctx context.Context, req ToolRequest) BreakdownResult {
	if req.MetricID == "" || req.GroupBy == "" {
		toolInvocationsTotal.WithLabelValues("get_metric_breakdown", "error").Inc()
		return BreakdownResult{Success: false, Error: "invalid_request", Message: "metric_id and group_by are required"}
	}

	r := s.resolveRange(req)

	filters, err := s.parseFilters(req.Filters)
	if err != nil {
		toolInvocationsTotal.WithLabelValues("get_metric_breakdown", "error").Inc()
		return BreakdownResult{Success: false, Error: "invalid_filters", Message: redact.Error(err)}
	}

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues("metric_breakdown"))
	resp, err := s.source.FetchBreakdown(ctx, req.MetricID, req.GroupBy, r, filters)
	timer.ObserveDuration()
	if err != nil {
		toolInvocationsTotal.WithLabelValues("get_metric_breakdown", "error").Inc()
		return BreakdownResult{Success: false, Error: "fetch_failed", Message: redact.Error(err)}
	}

	toolInvocationsTotal.WithLabelValues("get_metric_breakdown", "ok").Inc()
	return BreakdownResult{
		Success:   true,
		TimeRange: isoRange(r),
		MetricID:  req.MetricID,
		GroupBy:   req.GroupBy,
		Values:    resp.Data,
	}
}
