// Package analysis turns raw quality-of-experience metrics into a
// deterministic health assessment and a bounded text summary.
// Zero LLM calls; the agent layer decides what to do with the result.
package analysis

import (
	"fmt"

	api "spyglass/pkg/api/muxdata"
)

// HealthAssessment is the deterministic outcome of analyzing one
// metrics record. Issues and recommendations are ordered by the fixed
// check priority below.
type HealthAssessment struct {
	HealthScore     int      `json:"health_score"`
	Summary         string   `json:"summary"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Threshold constants. These are design constants, not configuration:
// they encode what "unhealthy" means for this product and changing them
// silently would change every historical assessment.
const (
	errorRateHigh     = 5.0
	errorRateModerate = 2.0
	errorRateGood     = 1.0

	rebufferHigh     = 10.0
	rebufferModerate = 5.0
	rebufferGood     = 2.0

	startupMsHigh     = 5000.0
	startupMsModerate = 3000.0
	startupMsGood     = 2000.0

	startupFailureHigh = 2.0

	failureScoreHigh     = 50.0
	failureScoreModerate = 20.0
)

// Analyze evaluates a metrics record against the fixed threshold table.
// Checks run in a fixed priority order; within one metric only the
// higher tier fires. The score starts at 100 and only ever decreases
// within a single evaluation.
func Analyze(m api.MetricsRecord) HealthAssessment {
	score := 100
	// Issues and recommendations are ordered lists in the outward shape;
	// they marshal as [] when empty, never null.
	issues := []string{}
	recommendations := []string{}
	var positives []string

	if v := m.TotalErrorPercentage; v != nil {
		switch {
		case *v > errorRateHigh:
			score -= 20
			issues = append(issues, fmt.Sprintf("High error rate: %.2f%% of playback attempts are failing", *v))
			recommendations = append(recommendations, "Investigate the most frequent playback error codes and any recent player or CDN changes")
		case *v > errorRateModerate:
			score -= 10
			issues = append(issues, fmt.Sprintf("Elevated error rate: %.2f%% of playback attempts are failing", *v))
			recommendations = append(recommendations, "Monitor the error trend and break errors down by player version and device")
		case *v < errorRateGood:
			positives = append(positives, fmt.Sprintf("error rate is excellent (%.2f%%)", *v))
		}
	}

	if v := m.TotalRebufferPercentage; v != nil {
		switch {
		case *v > rebufferHigh:
			score -= 25
			issues = append(issues, fmt.Sprintf("Severe rebuffering: viewers spend %.2f%% of watch time buffering", *v))
			recommendations = append(recommendations, "Review CDN performance and consider lowering the top bitrate renditions")
		case *v > rebufferModerate:
			score -= 15
			issues = append(issues, fmt.Sprintf("Noticeable rebuffering: %.2f%% of watch time is spent buffering", *v))
			recommendations = append(recommendations, "Check the bitrate ladder against the audience's measured bandwidth")
		case *v < rebufferGood:
			positives = append(positives, fmt.Sprintf("rebuffering is minimal (%.2f%%)", *v))
		}
	}

	if v := m.AverageStartupTimeMs; v != nil {
		switch {
		case *v > startupMsHigh:
			score -= 15
			issues = append(issues, fmt.Sprintf("Very slow startup: %.0f ms on average to first frame", *v))
			recommendations = append(recommendations, "Enable manifest preloading and reduce initial segment sizes")
		case *v > startupMsModerate:
			score -= 10
			issues = append(issues, fmt.Sprintf("Slow startup: %.0f ms on average to first frame", *v))
			recommendations = append(recommendations, "Profile time-to-first-frame across CDNs and player configurations")
		case *v < startupMsGood:
			positives = append(positives, fmt.Sprintf("startup time is fast (%.0f ms)", *v))
		}
	}

	if v := m.AverageVideoStartupFailurePercentage; v != nil && *v > startupFailureHigh {
		score -= 20
		issues = append(issues, fmt.Sprintf("Video startup failures: %.2f%% of playback attempts never start", *v))
		recommendations = append(recommendations, "Check DRM license and manifest delivery paths for startup-blocking errors")
	}

	if v := m.PlaybackFailureScore; v != nil {
		switch {
		case *v > failureScoreHigh:
			score -= 30
			issues = append(issues, fmt.Sprintf("Critical playback failure score: %.1f", *v))
			recommendations = append(recommendations, "Treat this as an incident: correlate failures with recent releases and CDN health")
		case *v > failureScoreModerate:
			score -= 15
			issues = append(issues, fmt.Sprintf("Elevated playback failure score: %.1f", *v))
			recommendations = append(recommendations, "Break the failure score down by device and geography to find the driver")
		}
	}

	if score < 0 {
		score = 0
	}

	return HealthAssessment{
		HealthScore:     score,
		Summary:         buildSummary(score, issues, positives),
		Issues:          issues,
		Recommendations: recommendations,
	}
}

// buildSummary names the issue count and score, or reports the positive
// notes when nothing fired. Positive notes never affect the score.
func buildSummary(score int, issues, positives []string) string {
	if len(issues) == 0 {
		s := fmt.Sprintf("Playback health looks good. Health score: %d/100.", score)
		for _, p := range positives {
			s += " Notably, " + p + "."
		}
		return s
	}
	return fmt.Sprintf("Found %d area(s) needing attention. Overall health score: %d/100.", len(issues), score)
}
