package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/sportsposter/internal/model"
)

func activity(id, typ string, date time.Time, distance float64, moving int64) model.ActivityRecord {
	return model.ActivityRecord{ID: id, Date: date, Name: typ, Type: typ, Distance: distance, MovingTime: moving}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
}

func TestTickStep(t *testing.T) {
	cases := []struct {
		max  float64
		want int64
	}{
		{0, 4},
		{-10, 4},
		{math.NaN(), 4},
		{60, 4},
		{600, 120},
		{5400, 900},
		{3 * 3600, 3600},
		{4 * 3600, 3600},
		{40 * 3600, 10 * 3600},
		// 2.5h rounds half to even, giving 2h.
		{10 * 3600, 2 * 3600},
	}
	for _, tc := range cases {
		got := TickStep(tc.max)
		if got != tc.want {
			t.Fatalf("TickStep(%v): expected %d, got %d", tc.max, tc.want, got)
		}
	}
}

func TestTickStepHugeInputs(t *testing.T) {
	ceiling := TickStep(float64(math.MaxInt64 / 2))
	if ceiling <= 0 {
		t.Fatalf("TickStep at the clamp returned %d", ceiling)
	}
	for _, max := range []float64{math.Inf(1), 1e30, math.MaxFloat64} {
		got := TickStep(max)
		if got <= 0 {
			t.Fatalf("TickStep(%v): expected positive step, got %d", max, got)
		}
		if got != ceiling {
			t.Fatalf("TickStep(%v): expected clamped step %d, got %d", max, ceiling, got)
		}
	}
}

func TestTickStepPositiveAndDeterministic(t *testing.T) {
	for max := 0.0; max < 200*3600; max += 97 {
		first := TickStep(max)
		if first <= 0 {
			t.Fatalf("TickStep(%v) returned non-positive %d", max, first)
		}
		if again := TickStep(max); again != first {
			t.Fatalf("TickStep(%v) not deterministic: %d vs %d", max, first, again)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[int64]string{
		3661:   "01:01",
		0:      "00:00",
		86399:  "23:59",
		59:     "00:00",
		360000: "100:00",
	}
	for in, want := range cases {
		if got := FormatSeconds(in); got != want {
			t.Fatalf("FormatSeconds(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestAggregateMonthScope(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Run", day(2024, time.February, 28), 5000, 1800),
		activity("2", "Run", day(2024, time.March, 1), 6000, 2000),
		activity("3", "Ride", day(2024, time.March, 5), 20000, 3600),
		activity("4", "Run", day(2024, time.March, 5), 4000, 1500),
		activity("5", "Run", time.Date(2024, time.March, 9, 18, 30, 0, 0, time.UTC), 3000, 900),
	}
	report := AggregateMonth(records)
	if len(report.Records) != 4 {
		t.Fatalf("expected 4 scoped rows, got %d", len(report.Records))
	}
	for _, r := range report.Records {
		if r.Date.Month() != time.March {
			t.Fatalf("unexpected row in scope: %+v", r)
		}
	}
	if !report.End.Equal(records[4].Date) {
		t.Fatalf("expected end %v, got %v", records[4].Date, report.End)
	}
	if report.Start != time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected start %v", report.Start)
	}
	if len(report.Series) != 2 || report.Series[0].Category != "Run" || report.Series[1].Category != "Ride" {
		t.Fatalf("unexpected series order: %+v", report.Series)
	}
	run := report.Series[0].Days
	if len(run) != 3 {
		t.Fatalf("expected 3 run days, got %d", len(run))
	}
	if run[1].Date.Day() != 5 || run[1].MovingTime != 1500 || run[1].Distance != 4000 {
		t.Fatalf("unexpected daily total: %+v", run[1])
	}
}

func TestAggregateMonthSumsSameDay(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Swim", day(2024, time.May, 2), 1000, 600),
		activity("2", "Swim", time.Date(2024, time.May, 2, 19, 0, 0, 0, time.UTC), 500, 300),
	}
	report := AggregateMonth(records)
	if len(report.Series) != 1 {
		t.Fatalf("expected a single series, got %d", len(report.Series))
	}
	days := report.Series[0].Days
	if len(days) != 1 || days[0].MovingTime != 900 || days[0].Distance != 1500 {
		t.Fatalf("unexpected days: %+v", days)
	}
}

func TestAggregateMonthEmpty(t *testing.T) {
	report := AggregateMonth(nil)
	if !report.Empty() || len(report.Series) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func yearFixture() []model.ActivityRecord {
	var records []model.ActivityRecord
	add := func(typ string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, activity(typ, typ, day(2023, time.Month(i%12+1), i%28+1), 1000, 600))
		}
	}
	add("Run", 6)
	add("Ride", 5)
	add("Swim", 3)
	add("Hike", 3)
	add("Yoga", 1)
	records = append(records, activity("x", "Run", day(2022, time.June, 1), 1000, 600))
	return records
}

func TestAggregateYearTopCategories(t *testing.T) {
	report := AggregateYear(yearFixture(), 2023, model.UnitKilometers)
	want := []string{"Run", "Ride", "Swim"}
	if len(report.TopCategories) != len(want) {
		t.Fatalf("expected %v, got %v", want, report.TopCategories)
	}
	for i := range want {
		if report.TopCategories[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, report.TopCategories)
		}
	}
	for _, r := range report.Records {
		switch r.Type {
		case "Hike", "Yoga":
			if r.CleanCategory != OtherCategory || r.Rank != 3 {
				t.Fatalf("expected %s collapsed to Other, got %+v", r.Type, r)
			}
		default:
			if r.CleanCategory != r.Type {
				t.Fatalf("expected %s kept, got %q", r.Type, r.CleanCategory)
			}
		}
	}
	counts := report.CategoryCounts
	if len(counts) != 4 {
		t.Fatalf("expected 4 legend entries, got %+v", counts)
	}
	if counts[3].Category != OtherCategory || counts[3].Count != 4 {
		t.Fatalf("expected Other last with 4, got %+v", counts[3])
	}
	if counts[0].Category != "Run" || counts[0].Count != 6 {
		t.Fatalf("unexpected first legend entry: %+v", counts[0])
	}
}

func TestAggregateYearDeterministic(t *testing.T) {
	records := yearFixture()
	first := AggregateYear(records, 2023, model.UnitNone)
	for i := 0; i < 20; i++ {
		again := AggregateYear(records, 2023, model.UnitNone)
		for j := range first.TopCategories {
			if again.TopCategories[j] != first.TopCategories[j] {
				t.Fatalf("ranking changed between runs: %v vs %v", first.TopCategories, again.TopCategories)
			}
		}
	}
}

func TestAggregateYearDistanceUnits(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Run", day(2024, time.April, 3), 2000, 600),
		activity("2", "Run", day(2024, time.April, 9), 3000, 600),
	}
	cases := map[model.DistanceUnit]float64{
		model.UnitKilometers: 5.0,
		model.UnitMeters:     5000,
		model.UnitMiles:      3.125,
	}
	for unit, want := range cases {
		report := AggregateYear(records, 2024, unit)
		if len(report.Distance) != 12 {
			t.Fatalf("%s: expected 12 months, got %d", unit, len(report.Distance))
		}
		if got := report.Distance[3]; math.Abs(got-want) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", unit, want, got)
		}
	}
	none := AggregateYear(records, 2024, model.UnitNone)
	if none.Distance != nil {
		t.Fatalf("expected no distance series, got %v", none.Distance)
	}
	if none.Time[3] != 1200 {
		t.Fatalf("expected April moving time 1200, got %d", none.Time[3])
	}
}

func TestAggregateYearEmptyScope(t *testing.T) {
	report := AggregateYear(yearFixture(), 1999, model.UnitKilometers)
	if !report.Empty() {
		t.Fatalf("expected empty report")
	}
	if len(report.TopCategories) != 0 || len(report.CategoryCounts) != 0 || len(report.Daily) != 0 {
		t.Fatalf("expected empty ranking, got %+v", report)
	}
	for i := 0; i < 12; i++ {
		if report.Time[i] != 0 || report.Distance[i] != 0 {
			t.Fatalf("expected zero-filled month %d", i+1)
		}
		if report.Months[i] != i+1 {
			t.Fatalf("unexpected month label %d", report.Months[i])
		}
	}
}

func TestAggregateYearDailyMembership(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Ride", day(2024, time.July, 14), 0, 0),
		activity("2", "Run", day(2024, time.July, 4), 0, 0),
		activity("3", "Run", day(2024, time.July, 14), 0, 0),
		activity("4", "Run", day(2024, time.July, 14), 0, 0),
	}
	report := AggregateYear(records, 2024, model.UnitNone)
	if len(report.Daily) != 2 {
		t.Fatalf("expected 2 active days, got %+v", report.Daily)
	}
	if report.Daily[0].Day != 4 {
		t.Fatalf("expected days sorted, got %+v", report.Daily)
	}
	busy := report.Daily[1]
	if busy.Month != 7 || busy.Day != 14 || len(busy.Categories) != 3 {
		t.Fatalf("unexpected membership: %+v", busy)
	}
	if busy.Categories[0] != "Ride" || busy.Categories[1] != "Run" || busy.Categories[2] != "Run" {
		t.Fatalf("expected row order preserved, got %v", busy.Categories)
	}
}

func TestSummary(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Run", day(2024, time.April, 3), 2000, 600),
		activity("2", "Run", day(2024, time.April, 9), 3000, 660),
	}
	totals := Summary(records, model.UnitKilometers)
	if totals.Activities != 2 || totals.Distance != 5 || totals.MovingTime != 1260 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
