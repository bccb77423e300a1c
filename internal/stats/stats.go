// Package stats contains activity aggregation and terminal reporting.
package stats

import (
	"fmt"
	"math"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// OtherCategory collects every category outside the top ranking.
const OtherCategory = "Other"

// TopCategoryLimit caps the named categories on the yearly poster.
const TopCategoryLimit = 3

const tickTarget = 4

// maxTickSeconds keeps the hour step inside int64.
const maxTickSeconds = float64(math.MaxInt64 / 2)

// TickStep returns the gridline increment in seconds for a time axis whose
// largest value is maxSeconds. The minute branch divides by 6 rather than
// the 4-tick target; this asymmetry is kept intentionally.
func TickStep(maxSeconds float64) int64 {
	if math.IsNaN(maxSeconds) || maxSeconds < 0 {
		maxSeconds = 0
	}
	maxSeconds = math.Min(maxSeconds, maxTickSeconds)
	if hours := math.RoundToEven(maxSeconds / tickTarget / 3600); hours > 0 {
		return int64(hours) * 3600
	}
	if minutes := math.RoundToEven(maxSeconds / 6 / 60); minutes > 0 {
		return int64(minutes) * 60
	}
	return tickTarget
}

// FormatSeconds renders a duration as HH:MM, truncating leftover seconds.
func FormatSeconds(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	hours := sec / 3600
	minutes := (sec % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// Totals summarizes a set of activities.
type Totals struct {
	Activities int
	Distance   float64
	MovingTime int64
}

// Summary totals records, converting distance with unit.
func Summary(records []model.ActivityRecord, unit model.DistanceUnit) Totals {
	var t Totals
	for _, r := range records {
		t.Activities++
		t.Distance += r.Distance
		t.MovingTime += r.MovingTime
	}
	t.Distance /= unit.Divisor()
	return t
}

// MaxInt64 returns the largest value, or 0 for an empty slice.
func MaxInt64(values []int64) int64 {
	var m int64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
