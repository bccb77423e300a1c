package poster

import (
	"fmt"
	"math"
	"strconv"

	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/stats"
)

// Panel names of the yearly poster.
const (
	PanelCalendar = "calendar"
	PanelLegend   = "legend"
	PanelDistance = "distance"
	PanelTime     = "time"
	PanelTotals   = "totals"
)

const (
	yearlyWidth   = 1200.0
	yearlyHeader  = 220.0
	yearlyFooter  = 80.0
	yearlyMargin  = 60.0
	gridRows      = 5
	gridCols      = 4
	cellW         = (yearlyWidth - 2*yearlyMargin) / gridCols
	cellH         = 280.0
	defaultYearly = "My year in sports"

	// markerExponent grows ring area with the activity's position in its day.
	markerExponent = 1.7
	dotRadius      = 4.0
	ringWidth      = 1.5
)

// MarkerRadius returns the radius of the index-th marker of a day. Marker
// area grows as (index+1)^1.7 relative to the base dot.
func MarkerRadius(base float64, index int) float64 {
	return base * math.Pow(float64(index+1), markerExponent/2)
}

// cell returns the box spanning grid rows [r0, r1) and columns [c0, c1).
func cell(r0, r1, c0, c1 int) Box {
	return Box{
		X: yearlyMargin + float64(c0)*cellW,
		Y: yearlyHeader + float64(r0)*cellH,
		W: float64(c1-c0) * cellW,
		H: float64(r1-r0) * cellH,
	}
}

// ComposeYearly lays out the calendar, legend, monthly bars and totals on
// a 5x4 grid. The distance panel is omitted when the unit is none and the
// moving-time panel then spans both bottom rows.
func ComposeYearly(report stats.YearReport, style Style) *Figure {
	fig := &Figure{
		Width:      yearlyWidth,
		Height:     yearlyHeader + gridRows*cellH + yearlyFooter,
		Background: style.Background,
	}

	ranks := make(map[string]int, len(report.CategoryCounts))
	for _, c := range report.CategoryCounts {
		ranks[c.Category] = c.Rank
	}

	calendar := Panel{Name: PanelCalendar, Bounds: cell(0, 3, 0, 3)}
	plotCalendar(&calendar, report.Daily, ranks, style)
	fig.Panels = append(fig.Panels, calendar)

	legend := Panel{Name: PanelLegend, Bounds: cell(0, 3, 3, 4)}
	plotLegend(&legend, report.CategoryCounts, style)
	fig.Panels = append(fig.Panels, legend)

	timeBox := cell(4, 5, 0, 3)
	if report.Distance != nil {
		distance := Panel{Name: PanelDistance, Bounds: cell(3, 4, 0, 3)}
		plotDistanceBars(&distance, report.Distance, report.Unit, style)
		fig.Panels = append(fig.Panels, distance)
	} else {
		timeBox = cell(3, 5, 0, 3)
	}
	movingTime := Panel{Name: PanelTime, Bounds: timeBox}
	plotTimeBars(&movingTime, report.Time, style)
	fig.Panels = append(fig.Panels, movingTime)

	totals := Panel{Name: PanelTotals, Bounds: cell(3, 5, 3, 4)}
	plotTotals(&totals, report, style)
	fig.Panels = append(fig.Panels, totals)

	title := style.Title
	if title == "" {
		title = defaultYearly
	}
	fig.Captions = captions(fig, style, title, strconv.Itoa(report.Year))
	return fig
}

func plotCalendar(panel *Panel, daily []stats.DailyMembership, ranks map[string]int, style Style) {
	a := &axes{
		panel:   panel,
		plot:    panel.Bounds.Inset(40, 10, 10, 50),
		style:   style,
		xMin:    0.5,
		xMax:    12.5,
		yMin:    0.5,
		yMax:    31.5,
		invertY: true,
	}
	xs, letters := monthTicks()
	a.vGrid(xs)
	a.xLabels(xs, letters, true)
	dayTicks := []float64{1, 10, 20, 31}
	a.yLabels(dayTicks, []string{"1", "10", "20", "31"})

	for _, d := range daily {
		center := Point{a.px(float64(d.Month)), a.py(float64(d.Day))}
		for i, category := range d.Categories {
			rank, ok := ranks[category]
			if !ok {
				rank = stats.TopCategoryLimit
			}
			col := style.CategoryColor(rank)
			if i == 0 {
				panel.add(Circle{Center: center, Radius: dotRadius, Filled: true, Color: col})
				continue
			}
			panel.add(Circle{Center: center, Radius: MarkerRadius(dotRadius, i), Color: col, StrokeWidth: ringWidth})
		}
	}
}

func plotLegend(panel *Panel, counts []stats.CategoryCount, style Style) {
	plot := panel.Bounds.Inset(40, 20, 10, 20)
	a := &axes{panel: panel, plot: plot, style: style}
	a.title("Activities")
	if len(counts) == 0 {
		panel.add(Text{
			At:    Point{plot.X, plot.Y + 40},
			Value: "No activities",
			Size:  style.LegendSize,
			Color: withAlpha(style.Foreground, 0.7),
		})
		return
	}
	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
	}
	rowH := 70.0
	for i, c := range counts {
		y := plot.Y + 20 + float64(i)*rowH
		panel.add(
			Text{At: Point{plot.X, y + style.LegendSize}, Value: c.Category, Size: style.LegendSize, Weight: WeightMedium, Color: style.Foreground},
			Text{At: Point{plot.Right(), y + style.LegendSize}, Value: strconv.Itoa(c.Count), Size: style.LegendSize, Weight: WeightBold, Color: style.Foreground, Anchor: AnchorEnd},
			Rect{Box: Box{X: plot.X, Y: y + style.LegendSize + 8, W: plot.W * float64(c.Count) / float64(maxCount), H: 18}, Fill: style.CategoryColor(c.Rank)},
		)
	}
}

func plotDistanceBars(panel *Panel, distance []float64, unit model.DistanceUnit, style Style) {
	maxVal := 0.0
	for _, v := range distance {
		maxVal = math.Max(maxVal, v)
	}
	step := niceStep(maxVal, 4)
	top := axisTop(maxVal, step)
	ticks := ticksUpTo(top, step)
	decimals := stepDecimals(step)
	labels := make([]string, len(ticks))
	for i, v := range ticks {
		labels[i] = strconv.FormatFloat(v, 'f', decimals, 64)
	}
	plotBars(panel, distance, top, ticks, labels, fmt.Sprintf("Distance (%s)", unit), style)
}

func plotTimeBars(panel *Panel, seconds [12]int64, style Style) {
	values := make([]float64, 12)
	for i, v := range seconds {
		values[i] = float64(v)
	}
	maxSec := stats.MaxInt64(seconds[:])
	step := float64(stats.TickStep(float64(maxSec)))
	top := axisTop(float64(maxSec), step)
	ticks := ticksUpTo(top, step)
	labels := make([]string, len(ticks))
	for i, v := range ticks {
		labels[i] = stats.FormatSeconds(int64(v))
	}
	plotBars(panel, values, top, ticks, labels, "Moving time (hh:mm)", style)
}

func plotBars(panel *Panel, values []float64, top float64, ticks []float64, labels []string, title string, style Style) {
	a := &axes{
		panel: panel,
		plot:  panel.Bounds.Inset(40, 10, 35, 70),
		style: style,
		xMin:  0.5,
		xMax:  12.5,
		yMin:  0,
		yMax:  top,
	}
	a.title(title)
	a.hGrid(ticks)
	a.yLabels(ticks, labels)
	xs, letters := monthTicks()
	a.xLabels(xs, letters, false)
	a.spines(false, true)

	barW := a.plot.W / 12 * 0.6
	for i, v := range values {
		if v <= 0 {
			continue
		}
		x := a.px(float64(i + 1))
		y := a.py(v)
		panel.add(Rect{Box: Box{X: x - barW/2, Y: y, W: barW, H: a.plot.Bottom() - y}, Fill: style.Palette[0]})
	}
}

func plotTotals(panel *Panel, report stats.YearReport, style Style) {
	plot := panel.Bounds.Inset(40, 20, 10, 20)
	a := &axes{panel: panel, plot: plot, style: style}
	a.title("Totals")

	records := make([]model.ActivityRecord, len(report.Records))
	for i, r := range report.Records {
		records[i] = r.ActivityRecord
	}
	totals := stats.Summary(records, report.Unit)

	type entry struct{ label, value string }
	entries := []entry{{"Activities", strconv.Itoa(totals.Activities)}}
	if report.Unit.Enabled() {
		entries = append(entries, entry{"Distance", fmt.Sprintf("%.0f %s", totals.Distance, report.Unit)})
	}
	entries = append(entries, entry{"Moving time", stats.FormatSeconds(totals.MovingTime)})

	for i, e := range entries {
		y := plot.Y + 30 + float64(i)*90
		panel.add(
			Text{At: Point{plot.X, y + style.LabelSize}, Value: e.label, Size: style.LabelSize, Color: withAlpha(style.Foreground, 0.8)},
			Text{At: Point{plot.X, y + style.LabelSize + 40}, Value: e.value, Size: style.SubtitleSize * 1.4, Weight: WeightBold, Color: style.Foreground},
		)
	}
}
