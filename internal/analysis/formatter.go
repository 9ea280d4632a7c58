package analysis

import (
	"fmt"
	"strings"

	"spyglass/internal/timeframe"
	api "spyglass/pkg/api/muxdata"
)

const (
	// maxSummaryWords is a hard post-condition on FormatSummary output.
	// Over-long summaries are cut to truncateToWords plus a marker.
	maxSummaryWords = 1000
	truncateToWords = 900

	truncationMarker = "[summary truncated]"

	timeLayout = "Jan 2, 2006 15:04 MST"
)

// FormatSummary renders a metrics record and its assessment as a
// human-readable report for the chat surface. Sections appear in a
// fixed order; metric bullets are emitted only for present fields.
func FormatSummary(m api.MetricsRecord, assessment HealthAssessment, r timeframe.Range) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Streaming analytics from %s to %s.\n", r.StartTime().Format(timeLayout), r.EndTime().Format(timeLayout))
	fmt.Fprintf(&b, "Health score: %d/100.\n", assessment.HealthScore)

	var bullets []string
	if v := m.TotalErrorPercentage; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Error rate: %.2f%%", *v))
	}
	if v := m.TotalRebufferPercentage; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Rebuffer rate: %.2f%%", *v))
	}
	if v := m.AverageStartupTimeMs; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Average startup time: %.0f ms", *v))
	}
	if v := m.AverageVideoStartupFailurePercentage; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Video startup failures: %.2f%%", *v))
	}
	if v := m.PlaybackFailureScore; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Playback failure score: %.1f", *v))
	}
	if v := m.TotalViews; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Total views: %d", *v))
	}
	if v := m.TotalPlayingTimeSeconds; v != nil {
		bullets = append(bullets, fmt.Sprintf("- Total playing time: %.1f hours", *v/3600))
	}
	if m.IsZero() {
		b.WriteString("\nNo metric data was reported for this window.\n")
	} else if len(bullets) > 0 {
		b.WriteString("\nKey metrics:\n")
		b.WriteString(strings.Join(bullets, "\n"))
		b.WriteString("\n")
	}

	if len(assessment.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for i, issue := range assessment.Issues {
			fmt.Fprintf(&b, "%d. %s\n", i+1, issue)
		}
	}

	if len(assessment.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, rec := range assessment.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}

	b.WriteString("\n")
	b.WriteString(closingRemark(assessment.HealthScore))

	return limitWords(b.String())
}

// closingRemark selects the closing line by health-score band.
func closingRemark(score int) string {
	switch {
	case score >= 90:
		return "Overall, playback quality is in great shape."
	case score >= 75:
		return "Overall, playback quality is healthy with some room for improvement."
	case score >= 50:
		return "Overall, playback quality needs attention in several areas."
	default:
		return "Overall, playback quality is significantly degraded; immediate action is recommended."
	}
}

// limitWords enforces the word cap. Text over maxSummaryWords is cut to
// the first truncateToWords words with the truncation marker appended.
func limitWords(s string) string {
	words := strings.Fields(s)
	if len(words) <= maxSummaryWords {
		return s
	}
	return strings.Join(words[:truncateToWords], " ") + " " + truncationMarker
}
