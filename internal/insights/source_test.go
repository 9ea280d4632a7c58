package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spyglass/internal/timeframe"
	api "spyglass/pkg/api/muxdata"
)

// fakeSource is a scriptable MetricsSource for chain and service tests.
type fakeSource struct {
	name     string
	err      error
	metrics  *api.OverallMetricsResponse
	errList  *api.ErrorListResponse
	views    *api.VideoViewListResponse
	brk      *api.BreakdownResponse
	calls    int
	lastArgs struct {
		r        timeframe.Range
		filters  []api.Filter
		limit    int
		metricID string
		groupBy  string
	}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchOverallMetrics(_ context.Context, r timeframe.Range, filters []api.Filter) (*api.OverallMetricsResponse, error) {
	f.calls++
	f.lastArgs.r, f.lastArgs.filters = r, filters
	return f.metrics, f.err
}

func (f *fakeSource) FetchErrorList(_ context.Context, r timeframe.Range, filters []api.Filter) (*api.ErrorListResponse, error) {
	f.calls++
	f.lastArgs.r, f.lastArgs.filters = r, filters
	return f.errList, f.err
}

func (f *fakeSource) FetchVideoViews(_ context.Context, r timeframe.Range, filters []api.Filter, limit int) (*api.VideoViewListResponse, error) {
	f.calls++
	f.lastArgs.r, f.lastArgs.filters, f.lastArgs.limit = r, filters, limit
	return f.views, f.err
}

func (f *fakeSource) FetchBreakdown(_ context.Context, metricID, groupBy string, r timeframe.Range, filters []api.Filter) (*api.BreakdownResponse, error) {
	f.calls++
	f.lastArgs.r, f.lastArgs.filters = r, filters
	f.lastArgs.metricID, f.lastArgs.groupBy = metricID, groupBy
	return f.brk, f.err
}

var chainRange = timeframe.Range{Start: 1000, End: 5000}

func TestChainFirstSourceWins(t *testing.T) {
	primary := &fakeSource{name: "mirror", metrics: &api.OverallMetricsResponse{}}
	secondary := &fakeSource{name: "rest", metrics: &api.OverallMetricsResponse{}}
	chain := NewChain(nil, primary, secondary)

	_, err := chain.FetchOverallMetrics(context.Background(), chainRange, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("primary should be called once, got %d", primary.calls)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not be touched, got %d calls", secondary.calls)
	}
}

func TestChainFallsBackOnce(t *testing.T) {
	primary := &fakeSource{name: "mirror", err: errors.New("mirror unreachable")}
	secondary := &fakeSource{name: "rest", metrics: &api.OverallMetricsResponse{}}
	chain := NewChain(nil, primary, secondary)

	_, err := chain.FetchOverallMetrics(context.Background(), chainRange, nil)
	if err != nil {
		t.Fatalf("fallback should succeed, got %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("each source gets exactly one attempt, got %d/%d", primary.calls, secondary.calls)
	}
}

func TestChainCompositeErrorNamesEveryAttempt(t *testing.T) {
	primary := &fakeSource{name: "mirror", err: errors.New("mirror unreachable")}
	secondary := &fakeSource{name: "rest", err: errors.New("status 503")}
	chain := NewChain(nil, primary, secondary)

	_, err := chain.FetchOverallMetrics(context.Background(), chainRange, nil)
	if err == nil {
		t.Fatal("expected composite error")
	}
	for _, want := range []string{"mirror: mirror unreachable", "rest: status 503", "overall metrics"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("composite error missing %q: %v", want, err)
		}
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("no retry loop allowed, got %d/%d calls", primary.calls, secondary.calls)
	}
}

func TestChainNoSources(t *testing.T) {
	chain := NewChain(nil)
	_, err := chain.FetchErrorList(context.Background(), chainRange, nil)
	if err == nil || !strings.Contains(err.Error(), "no metrics sources") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestChainPassesArgumentsThrough(t *testing.T) {
	src := &fakeSource{name: "rest", views: &api.VideoViewListResponse{}}
	chain := NewChain(nil, src)

	filters := []api.Filter{{Dimension: "country", Value: "US"}}
	_, err := chain.FetchVideoViews(context.Background(), chainRange, filters, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.lastArgs.r != chainRange || src.lastArgs.limit != 50 {
		t.Fatalf("arguments not passed through: %+v", src.lastArgs)
	}
	if len(src.lastArgs.filters) != 1 || src.lastArgs.filters[0].String() != "country:US" {
		t.Fatalf("filters not passed through: %+v", src.lastArgs.filters)
	}
}

func TestMirrorArgs(t *testing.T) {
	args := mirrorArgs(chainRange, []api.Filter{{Dimension: "operating_system", Value: "iOS"}})

	tf, ok := args["timeframe"].([]int64)
	if !ok || len(tf) != 2 || tf[0] != 1000 || tf[1] != 5000 {
		t.Fatalf("unexpected timeframe args: %v", args["timeframe"])
	}
	filters, ok := args["filters"].([]string)
	if !ok || len(filters) != 1 || filters[0] != "operating_system:iOS" {
		t.Fatalf("unexpected filters args: %v", args["filters"])
	}

	bare := mirrorArgs(chainRange, nil)
	if _, present := bare["filters"]; present {
		t.Fatal("empty filters should be omitted")
	}
}
