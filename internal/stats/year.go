package stats

import (
	"sort"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// LabeledRecord is a scoped record with its collapsed category.
type LabeledRecord struct {
	model.ActivityRecord
	CleanCategory string
	Rank          int
}

// DailyMembership lists the categories logged on one day, in table order.
type DailyMembership struct {
	Month      int
	Day        int
	Categories []string
}

// YearReport holds the aggregates for one calendar year.
type YearReport struct {
	Year           int
	Unit           model.DistanceUnit
	Records        []LabeledRecord
	TopCategories  []string
	CategoryCounts []CategoryCount
	Daily          []DailyMembership
	Time           [12]int64
	// Distance is nil when the unit is none.
	Distance []float64
	Months   [12]int
}

// Empty reports whether the scope has no activities.
func (r YearReport) Empty() bool {
	return len(r.Records) == 0
}

// AggregateYear restricts records to year and derives the yearly poster data.
func AggregateYear(records []model.ActivityRecord, year int, unit model.DistanceUnit) YearReport {
	report := YearReport{Year: year, Unit: unit}
	for i := range report.Months {
		report.Months[i] = i + 1
	}

	scoped := make([]model.ActivityRecord, 0)
	for _, r := range records {
		if r.Date.Year() == year {
			scoped = append(scoped, r)
		}
	}

	report.TopCategories = TopCategories(scoped, TopCategoryLimit)
	rankOf := make(map[string]int, len(report.TopCategories))
	for i, c := range report.TopCategories {
		rankOf[c] = i
	}

	report.Records = make([]LabeledRecord, 0, len(scoped))
	for _, r := range scoped {
		clean, rank := OtherCategory, TopCategoryLimit
		if i, ok := rankOf[r.Type]; ok {
			clean, rank = r.Type, i
		}
		report.Records = append(report.Records, LabeledRecord{ActivityRecord: r, CleanCategory: clean, Rank: rank})
	}

	report.CategoryCounts = countCleanCategories(report.Records)
	report.Daily = dailyMembership(report.Records)

	var distance [12]float64
	for _, r := range report.Records {
		m := int(r.Date.Month()) - 1
		report.Time[m] += r.MovingTime
		distance[m] += r.Distance
	}
	if unit.Enabled() {
		report.Distance = make([]float64, 12)
		div := unit.Divisor()
		for i, d := range distance {
			report.Distance[i] = d / div
		}
	}
	return report
}

func countCleanCategories(records []LabeledRecord) []CategoryCount {
	type key struct {
		rank     int
		category string
	}
	counts := map[key]int{}
	for _, r := range records {
		counts[key{r.Rank, r.CleanCategory}]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, CategoryCount{Rank: k.rank, Category: k.category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank == out[j].Rank {
			return out[i].Category < out[j].Category
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

func dailyMembership(records []LabeledRecord) []DailyMembership {
	type key struct{ month, day int }
	index := map[key]int{}
	var out []DailyMembership
	for _, r := range records {
		k := key{int(r.Date.Month()), r.Date.Day()}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, DailyMembership{Month: k.month, Day: k.day})
		}
		out[i].Categories = append(out[i].Categories, r.CleanCategory)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month == out[j].Month {
			return out[i].Day < out[j].Day
		}
		return out[i].Month < out[j].Month
	})
	return out
}
