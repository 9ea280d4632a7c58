package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	api "spyglass/pkg/api/muxdata"
)

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

func TestAnalyzeEmptyRecord(t *testing.T) {
	result := Analyze(api.MetricsRecord{})
	if result.HealthScore != 100 {
		t.Fatalf("empty record should score 100, got %d", result.HealthScore)
	}
	if len(result.Issues) != 0 || len(result.Recommendations) != 0 {
		t.Fatalf("empty record should have no findings: %+v", result)
	}
	if !strings.Contains(result.Summary, "good") {
		t.Fatalf("expected positive summary, got %q", result.Summary)
	}
}

func TestAnalyzeEmptyRecordMarshalsEmptyLists(t *testing.T) {
	data, err := json.Marshal(Analyze(api.MetricsRecord{}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"issues":[]`) {
		t.Fatalf("issues should marshal as an empty list: %s", data)
	}
	if !strings.Contains(string(data), `"recommendations":[]`) {
		t.Fatalf("recommendations should marshal as an empty list: %s", data)
	}
}

func TestAnalyzeHighErrorRate(t *testing.T) {
	result := Analyze(api.MetricsRecord{TotalErrorPercentage: f(6)})
	if result.HealthScore != 80 {
		t.Fatalf("expected exactly one 20-point penalty, got score %d", result.HealthScore)
	}
	if len(result.Issues) != 1 || len(result.Recommendations) != 1 {
		t.Fatalf("expected one issue and one recommendation, got %+v", result)
	}
	if !strings.Contains(result.Issues[0], "High error rate") {
		t.Fatalf("unexpected issue text: %s", result.Issues[0])
	}
}

func TestAnalyzeErrorRateBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		score int
	}{
		{5.01, 80},  // just over high threshold
		{5.0, 90},   // exactly at high: moderate tier fires
		{2.01, 90},  // just over moderate
		{2.0, 100},  // exactly at moderate: nothing fires
		{1.99, 100}, // between good and moderate
		{0.5, 100},  // good
	}
	for _, tc := range cases {
		result := Analyze(api.MetricsRecord{TotalErrorPercentage: f(tc.value)})
		if result.HealthScore != tc.score {
			t.Errorf("error rate %.2f: score %d, want %d", tc.value, result.HealthScore, tc.score)
		}
	}
}

func TestAnalyzeRebufferBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		score int
	}{
		{10.5, 75},
		{10.0, 85},
		{5.5, 85},
		{5.0, 100},
	}
	for _, tc := range cases {
		result := Analyze(api.MetricsRecord{TotalRebufferPercentage: f(tc.value)})
		if result.HealthScore != tc.score {
			t.Errorf("rebuffer %.1f: score %d, want %d", tc.value, result.HealthScore, tc.score)
		}
	}
}

func TestAnalyzeStartupBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		score int
	}{
		{5001, 85},
		{5000, 90},
		{3001, 90},
		{3000, 100},
	}
	for _, tc := range cases {
		result := Analyze(api.MetricsRecord{AverageStartupTimeMs: f(tc.value)})
		if result.HealthScore != tc.score {
			t.Errorf("startup %.0f: score %d, want %d", tc.value, result.HealthScore, tc.score)
		}
	}
}

func TestAnalyzeStartupFailure(t *testing.T) {
	result := Analyze(api.MetricsRecord{AverageVideoStartupFailurePercentage: f(2.5)})
	if result.HealthScore != 80 {
		t.Fatalf("expected 20-point penalty, got %d", result.HealthScore)
	}
	result = Analyze(api.MetricsRecord{AverageVideoStartupFailurePercentage: f(2.0)})
	if result.HealthScore != 100 {
		t.Fatalf("exactly 2%% should not fire, got %d", result.HealthScore)
	}
}

func TestAnalyzePlaybackFailureScoreBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		score int
	}{
		{51, 70},
		{50, 85},
		{21, 85},
		{20, 100},
	}
	for _, tc := range cases {
		result := Analyze(api.MetricsRecord{PlaybackFailureScore: f(tc.value)})
		if result.HealthScore != tc.score {
			t.Errorf("failure score %.0f: score %d, want %d", tc.value, result.HealthScore, tc.score)
		}
	}
}

func TestAnalyzeDegradedEndToEnd(t *testing.T) {
	result := Analyze(api.MetricsRecord{
		TotalErrorPercentage:    f(7),
		TotalRebufferPercentage: f(12),
		AverageStartupTimeMs:    f(6000),
		PlaybackFailureScore:    f(60),
	})
	// 100 - 20 - 25 - 15 - 30 = 10
	if result.HealthScore != 10 {
		t.Fatalf("expected score 10, got %d", result.HealthScore)
	}
	if len(result.Issues) != 4 {
		t.Fatalf("expected four issues, got %d: %v", len(result.Issues), result.Issues)
	}
	if len(result.Recommendations) != 4 {
		t.Fatalf("expected four recommendations, got %d", len(result.Recommendations))
	}
	if !strings.Contains(result.Summary, "4 area(s)") {
		t.Fatalf("summary should name the issue count, got %q", result.Summary)
	}
}

func TestAnalyzeScoreClampedAtZero(t *testing.T) {
	result := Analyze(api.MetricsRecord{
		TotalErrorPercentage:                 f(50),
		TotalRebufferPercentage:              f(50),
		AverageStartupTimeMs:                 f(20000),
		AverageVideoStartupFailurePercentage: f(30),
		PlaybackFailureScore:                 f(90),
	})
	// 100 - 20 - 25 - 15 - 20 - 30 = -10, clamped
	if result.HealthScore != 0 {
		t.Fatalf("score must clamp at zero, got %d", result.HealthScore)
	}
}

func TestAnalyzeIssueOrderIsFixed(t *testing.T) {
	result := Analyze(api.MetricsRecord{
		PlaybackFailureScore:    f(60),
		TotalErrorPercentage:    f(7),
		TotalRebufferPercentage: f(12),
	})
	if !strings.Contains(result.Issues[0], "error rate") {
		t.Fatalf("error check must come first, got %v", result.Issues)
	}
	if !strings.Contains(result.Issues[1], "rebuffering") {
		t.Fatalf("rebuffer check must come second, got %v", result.Issues)
	}
	if !strings.Contains(result.Issues[2], "failure score") {
		t.Fatalf("failure score check must come last, got %v", result.Issues)
	}
}

func TestAnalyzePositiveNotesInSummary(t *testing.T) {
	result := Analyze(api.MetricsRecord{
		TotalErrorPercentage:    f(0.3),
		TotalRebufferPercentage: f(1.0),
		AverageStartupTimeMs:    f(900),
		TotalViews:              i(5000),
	})
	if result.HealthScore != 100 {
		t.Fatalf("healthy record should score 100, got %d", result.HealthScore)
	}
	for _, want := range []string{"error rate is excellent", "rebuffering is minimal", "startup time is fast"} {
		if !strings.Contains(result.Summary, want) {
			t.Errorf("summary missing positive note %q: %s", want, result.Summary)
		}
	}
}

func TestAnalyzePositiveNotesSuppressedWhenIssuesExist(t *testing.T) {
	result := Analyze(api.MetricsRecord{
		TotalErrorPercentage: f(0.3), // would be a positive note
		PlaybackFailureScore: f(60),  // but this is an issue
	})
	if strings.Contains(result.Summary, "excellent") {
		t.Fatalf("positive notes must not appear alongside issues: %s", result.Summary)
	}
}
