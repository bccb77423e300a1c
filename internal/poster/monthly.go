package poster

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/verte-zerg/sportsposter/internal/stats"
)

const (
	monthlyWidth   = 1000.0
	monthlyHeader  = 200.0
	monthlyFooter  = 90.0
	monthlyRowH    = 300.0
	monthlyEmptyH  = 200.0
	defaultMonthly = "My last month in sports"
)

// ComposeMonthly lays out one line chart per category, stacked vertically
// and sharing the date axis. Zero categories give a captions-only figure.
func ComposeMonthly(report stats.MonthReport, style Style) *Figure {
	n := len(report.Series)
	body := monthlyRowH * float64(n)
	if n == 0 {
		body = monthlyEmptyH
	}
	fig := &Figure{
		Width:      monthlyWidth,
		Height:     monthlyHeader + body + monthlyFooter,
		Background: style.Background,
	}

	lastDay := 2
	if !report.End.IsZero() {
		lastDay = max(report.End.Day(), 2)
	}

	for i, series := range report.Series {
		panel := Panel{
			Name:   "category:" + series.Category,
			Bounds: Box{X: 0, Y: monthlyHeader + float64(i)*monthlyRowH, W: monthlyWidth, H: monthlyRowH},
		}
		last := i == n-1
		plotCategory(&panel, series, style.CategoryColor(i), lastDay, last, report, style)
		fig.Panels = append(fig.Panels, panel)
	}

	title := style.Title
	if title == "" {
		title = defaultMonthly
	}
	subtitle := ""
	if !report.End.IsZero() {
		subtitle = report.End.Format("January 2006")
	}
	fig.Captions = captions(fig, style, title, subtitle)
	if n == 0 {
		fig.Captions = append(fig.Captions, Text{
			At:     Point{fig.Width / 2, monthlyHeader + monthlyEmptyH/2},
			Value:  "No activities in this period",
			Size:   style.LegendSize,
			Color:  style.Foreground,
			Anchor: AnchorMiddle,
		})
	}
	return fig
}

func plotCategory(panel *Panel, series stats.CategorySeries, col color.NRGBA, lastDay int, last bool, report stats.MonthReport, style Style) {
	var maxSec int64
	for _, d := range series.Days {
		maxSec = max(maxSec, d.MovingTime)
	}
	step := float64(stats.TickStep(float64(maxSec)))
	top := axisTop(float64(maxSec), step)

	a := &axes{
		panel: panel,
		plot:  panel.Bounds.Inset(30, 40, 50, 90),
		style: style,
		xMin:  1,
		xMax:  float64(lastDay),
		yMin:  0,
		yMax:  top,
	}

	yTicks := ticksUpTo(top, step)
	yLabels := make([]string, len(yTicks))
	for i, v := range yTicks {
		yLabels[i] = stats.FormatSeconds(int64(v))
	}
	xTicks, xLabels := dayTicks(report, lastDay)

	a.hGrid(yTicks)
	a.vGrid(xTicks)
	a.spines(true, true)
	a.yLabels(yTicks, yLabels)
	panel.add(Text{
		At:     Point{panel.Bounds.X + 20, a.plot.Y - 10},
		Value:  "Hours",
		Size:   style.LabelSize,
		Color:  style.Foreground,
		Anchor: AnchorStart,
	})
	if last {
		a.xLabels(xTicks, xLabels, false)
		panel.add(Text{
			At:     Point{a.plot.X + a.plot.W/2, panel.Bounds.Bottom() - 4},
			Value:  "Date",
			Size:   style.LabelSize,
			Color:  style.Foreground,
			Anchor: AnchorMiddle,
		})
	}

	points := make([]Point, 0, len(series.Days))
	for _, d := range series.Days {
		points = append(points, Point{a.px(float64(d.Date.Day())), a.py(float64(d.MovingTime))})
	}
	if len(points) > 1 {
		panel.add(Line{Points: points, Color: col, Width: 2})
	}
	for _, p := range points {
		panel.add(Circle{Center: p, Radius: 3, Filled: true, Color: col})
	}

	legendY := a.plot.Y + style.LegendSize
	legendX := a.plot.Right() - 10
	panel.add(
		Line{Points: []Point{{legendX - 150, legendY - style.LegendSize/3}, {legendX - 125, legendY - style.LegendSize/3}}, Color: col, Width: 2},
		Text{At: Point{legendX - 118, legendY}, Value: series.Category, Size: style.LegendSize, Weight: WeightMedium, Color: style.Foreground},
	)
}

// dayTicks marks every seventh day of the month.
func dayTicks(report stats.MonthReport, lastDay int) ([]float64, []string) {
	var xs []float64
	var labels []string
	for d := 1; d <= lastDay; d += 7 {
		xs = append(xs, float64(d))
		label := fmt.Sprintf("%02d", d)
		if !report.Start.IsZero() {
			label = fmt.Sprintf("%02d %s", d, report.Start.Format("Jan"))
		}
		labels = append(labels, label)
	}
	return xs, labels
}

func captions(fig *Figure, style Style, title, subtitle string) []Text {
	out := []Text{{
		At:     Point{fig.Width / 2, 90},
		Value:  strings.ToUpper(title),
		Size:   style.TitleSize,
		Weight: WeightBold,
		Color:  style.Foreground,
		Anchor: AnchorMiddle,
	}}
	if subtitle != "" {
		out = append(out, Text{
			At:     Point{fig.Width / 2, 140},
			Value:  subtitle,
			Size:   style.SubtitleSize,
			Color:  withAlpha(style.Foreground, 0.95),
			Anchor: AnchorMiddle,
		})
	}
	if style.Footer != "" {
		out = append(out, Text{
			At:     Point{fig.Width / 2, fig.Height - 35},
			Value:  style.Footer,
			Size:   style.FooterSize,
			Color:  withAlpha(style.Foreground, 0.7),
			Anchor: AnchorMiddle,
		})
	}
	return out
}
