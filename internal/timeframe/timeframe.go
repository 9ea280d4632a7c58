// Package timeframe normalizes user- and agent-supplied time expressions
// into validated epoch-second windows accepted by the analytics backend.
//
// Everything here is pure: results depend only on the inputs and the
// caller-supplied reference time, so concurrent use needs no coordination.
package timeframe

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSpanSeconds is the window length used when no usable input
	// is supplied: 24 hours ending at the reference time.
	DefaultSpanSeconds int64 = 86400

	// MinSpanSeconds is the minimum window the backend accepts.
	MinSpanSeconds int64 = 3600
)

// Range is a validated [start, end] epoch-second window.
// Invariants: Start < End, End-Start >= MinSpanSeconds, End <= reference time.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Span returns the window length in seconds.
func (r Range) Span() int64 {
	return r.End - r.Start
}

// StartTime returns the start bound as a UTC time.
func (r Range) StartTime() time.Time {
	return time.Unix(r.Start, 0).UTC()
}

// EndTime returns the end bound as a UTC time.
func (r Range) EndTime() time.Time {
	return time.Unix(r.End, 0).UTC()
}

// Default returns the default 24-hour window ending at now.
func Default(now time.Time) Range {
	end := now.Unix()
	return Range{Start: end - DefaultSpanSeconds, End: end}
}

// ParseEpoch coerces a raw tool argument into epoch seconds. Arguments
// arrive as JSON numbers (float64), native ints, or numeric strings.
// Non-numeric strings are reported as absent rather than as an error;
// the caller falls back to defaults.
func ParseEpoch(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Resolve turns an optional pair of raw bounds into a validated Range.
//
// Validation order:
//  1. a missing bound is derived one day away from the supplied one
//  2. start >= end discards start and recomputes it as end - 1 day
//  3. bounds in the future are clamped to now
//  4. the minimum one-hour span is enforced by pulling start earlier
//
// There are no fixed historical validity bounds; the only clamp is
// "not in the future" relative to now.
func Resolve(now time.Time, rawStart, rawEnd any) Range {
	nowSec := now.Unix()

	start, haveStart := ParseEpoch(rawStart)
	end, haveEnd := ParseEpoch(rawEnd)

	switch {
	case !haveStart && !haveEnd:
		return Default(now)
	case haveStart && !haveEnd:
		end = start + DefaultSpanSeconds
	case !haveStart && haveEnd:
		start = end - DefaultSpanSeconds
	}

	if start >= end {
		start = end - DefaultSpanSeconds
	}

	if end > nowSec {
		end = nowSec
	}
	if start > nowSec {
		start = nowSec - DefaultSpanSeconds
	}

	if end-start < MinSpanSeconds {
		start = end - MinSpanSeconds
	}

	return Range{Start: start, End: end}
}

// relativePattern matches "last N hours/days/weeks/months", case-insensitive.
var relativePattern = regexp.MustCompile(`(?i)\blast\s+(\d+)\s+(hour|day|week|month)s?\b`)

var unitSeconds = map[string]int64{
	"hour":  3600,
	"day":   86400,
	"week":  7 * 86400,
	"month": 30 * 86400, // month = 30 days
}

// ResolveRelative turns a trailing-window phrase such as "last 7 days"
// into a Range ending at now. Unrecognized phrases fall back to the
// default 24-hour window; a malformed phrase is never an error.
func ResolveRelative(now time.Time, phrase string) Range {
	m := relativePattern.FindStringSubmatch(phrase)
	if m == nil {
		return Default(now)
	}

	count, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || count <= 0 {
		return Default(now)
	}

	span := count * unitSeconds[strings.ToLower(m[2])]
	if span < MinSpanSeconds {
		span = MinSpanSeconds
	}

	end := now.Unix()
	return Range{Start: end - span, End: end}
}
