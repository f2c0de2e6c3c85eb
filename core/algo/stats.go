// Package algo has pure statistics and formatting helpers for abfolio.
package algo

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// Median returns the median of the sample, or nil for an empty sample.
func Median(sample []float64) *float64 {
	m, err := stats.Median(sample)
	if err != nil {
		return nil
	}
	return &m
}

// Mean returns the arithmetic mean of the sample, or nil for an empty sample.
func Mean(sample []float64) *float64 {
	m, err := stats.Mean(sample)
	if err != nil {
		return nil
	}
	return &m
}

// Round rounds x to the given number of decimal places, half away from zero.
func Round(x float64, places int) float64 {
	r, err := stats.Round(x, places)
	if err != nil {
		// NaN/Inf inputs pass through unchanged.
		return x
	}
	return r
}

// RoundInt rounds x to the nearest integer.
func RoundInt(x float64) int {
	return int(math.Round(x))
}

// FormatLift renders a fractional lift as a signed percentage with one
// decimal, e.g. 0.2 -> "+20.0%", -0.05 -> "-5.0%". A nil lift renders "N/A".
func FormatLift(lift *float64) string {
	if lift == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", *lift*100)
}

// YearMonth buckets a time into its "YYYY-MM" key.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

// dateLayouts are the formats the platform uses for experiment dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseDate parses a platform date string. The second return is false when the
// string is empty or matches none of the known layouts.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WholeDays converts the span between start and end into whole days, rounded
// from the millisecond difference. The result is negative when end precedes
// start.
func WholeDays(start, end time.Time) int {
	ms := float64(end.Sub(start).Milliseconds())
	return int(math.Round(ms / (24 * 60 * 60 * 1000)))
}
