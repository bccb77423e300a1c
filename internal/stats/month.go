package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// DailyTotal sums one category's activities on one calendar day.
type DailyTotal struct {
	Date       time.Time
	Distance   float64
	MovingTime int64
}

// CategorySeries is the per-day series of a single category.
type CategorySeries struct {
	Category string
	Days     []DailyTotal
}

// MonthReport holds the aggregates for the most recent month in the data.
type MonthReport struct {
	Start   time.Time
	End     time.Time
	Records []model.ActivityRecord
	Series  []CategorySeries
}

// Empty reports whether the scope has no activities.
func (r MonthReport) Empty() bool {
	return len(r.Records) == 0
}

// AggregateMonth restricts records to the calendar month of the latest
// activity and builds one daily series per category.
func AggregateMonth(records []model.ActivityRecord) MonthReport {
	if len(records) == 0 {
		return MonthReport{}
	}
	end := records[0].Date
	for _, r := range records[1:] {
		if r.Date.After(end) {
			end = r.Date
		}
	}
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())

	scoped := make([]model.ActivityRecord, 0)
	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		scoped = append(scoped, r)
	}

	ranked := RankCategories(scoped)
	series := make([]CategorySeries, 0, len(ranked))
	for _, c := range ranked {
		series = append(series, CategorySeries{
			Category: c.Category,
			Days:     dailyTotals(scoped, c.Category),
		})
	}

	return MonthReport{
		Start:   start,
		End:     end,
		Records: scoped,
		Series:  series,
	}
}

func dailyTotals(records []model.ActivityRecord, category string) []DailyTotal {
	byDay := map[string]*DailyTotal{}
	for _, r := range records {
		if r.Type != category {
			continue
		}
		day := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, r.Date.Location())
		key := day.Format(time.DateOnly)
		total, ok := byDay[key]
		if !ok {
			total = &DailyTotal{Date: day}
			byDay[key] = total
		}
		total.Distance += r.Distance
		total.MovingTime += r.MovingTime
	}
	out := make([]DailyTotal, 0, len(byDay))
	for _, total := range byDay {
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
