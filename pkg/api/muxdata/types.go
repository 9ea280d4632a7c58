// Package muxdata defines the typed request/response contracts for the
// Mux Data analytics API endpoints consumed by Spyglass.
package muxdata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MetricsRecord is the flat record of overall streaming-quality metrics.
// Every field is optional; absent fields are simply not reported by the
// backend for the requested window.
type MetricsRecord struct {
	TotalErrorPercentage                 *float64 `json:"total_error_percentage,omitempty"`
	TotalRebufferPercentage              *float64 `json:"total_rebuffer_percentage,omitempty"`
	AverageStartupTimeMs                 *float64 `json:"average_startup_time_ms,omitempty"`
	AverageVideoStartupFailurePercentage *float64 `json:"average_video_startup_failure_percentage,omitempty"`
	PlaybackFailureScore                 *float64 `json:"playback_failure_score,omitempty"`
	TotalViews                           *int64   `json:"total_views,omitempty"`
	TotalPlayingTimeSeconds              *float64 `json:"total_playing_time_seconds,omitempty"`
}

// IsZero reports whether no metric field is present at all.
func (m MetricsRecord) IsZero() bool {
	return m.TotalErrorPercentage == nil &&
		m.TotalRebufferPercentage == nil &&
		m.AverageStartupTimeMs == nil &&
		m.AverageVideoStartupFailurePercentage == nil &&
		m.PlaybackFailureScore == nil &&
		m.TotalViews == nil &&
		m.TotalPlayingTimeSeconds == nil
}

// OverallMetricsResponse is the response for the overall-metrics endpoint.
// Meta carries unknown passthrough fields; it is not interpreted beyond
// the boundary.
type OverallMetricsResponse struct {
	Data      MetricsRecord   `json:"data"`
	Timeframe []int64         `json:"timeframe,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// PlaybackError is one aggregated playback error from the error list.
type PlaybackError struct {
	ID          int64   `json:"id"`
	Code        *int64  `json:"code,omitempty"`
	Message     string  `json:"message"`
	Description string  `json:"description,omitempty"`
	Count       int64   `json:"count"`
	Percentage  float64 `json:"percentage"`
	LastSeen    string  `json:"last_seen,omitempty"`
}

// ErrorListResponse is the response for the error-list endpoint.
type ErrorListResponse struct {
	Data      []PlaybackError `json:"data"`
	Timeframe []int64         `json:"timeframe,omitempty"`
}

// VideoView is one viewer session from the video-view list.
type VideoView struct {
	ID                    string   `json:"id"`
	ViewerExperienceScore *float64 `json:"viewer_experience_score,omitempty"`
	WatchTimeMs           *int64   `json:"watch_time,omitempty"`
	VideoTitle            string   `json:"video_title,omitempty"`
	ErrorTypeID           *int64   `json:"error_type_id,omitempty"`
	CountryCode           string   `json:"country_code,omitempty"`
	ViewStart             string   `json:"view_start,omitempty"`
	ViewEnd               string   `json:"view_end,omitempty"`
}

// VideoViewListResponse is the response for the video-view list endpoint.
type VideoViewListResponse struct {
	Data          []VideoView `json:"data"`
	Timeframe     []int64     `json:"timeframe,omitempty"`
	TotalRowCount *int64      `json:"total_row_count,omitempty"`
}

// BreakdownValue is one row of a metric broken down by a dimension value.
type BreakdownValue struct {
	Field            string   `json:"field"`
	Value            *float64 `json:"value,omitempty"`
	Views            int64    `json:"views"`
	TotalWatchTimeMs *int64   `json:"total_watch_time,omitempty"`
	NegativeImpact   *float64 `json:"negative_impact,omitempty"`
}

// BreakdownResponse is the response for the metric breakdown endpoint.
type BreakdownResponse struct {
	Data      []BreakdownValue `json:"data"`
	Timeframe []int64          `json:"timeframe,omitempty"`
}

// ErrorResponse is the error shape the backend returns on non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Filter restricts a query to one dimension value, e.g. operating_system:iOS.
type Filter struct {
	Dimension string
	Value     string
}

// String renders the filter in the backend's dimension:value wire form.
func (f Filter) String() string {
	return f.Dimension + ":" + f.Value
}

// ParseFilter parses a dimension:value token.
func ParseFilter(s string) (Filter, error) {
	dim, val, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(dim) == "" || strings.TrimSpace(val) == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: expected dimension:value", s)
	}
	return Filter{Dimension: strings.TrimSpace(dim), Value: strings.TrimSpace(val)}, nil
}
