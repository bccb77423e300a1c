package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 12
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// Terminal approximations of the poster palette, in rank order.
var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "red", code: "\x1b[31m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "gray", code: "\x1b[90m"},
}

// PlotSeries renders a braille plot of time-valued series sharing one
// y-axis. Values are seconds; axis labels use FormatSeconds.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	maxVal := 0.0
	for _, s := range series {
		for _, v := range s.Values {
			maxVal = math.Max(maxVal, v)
		}
	}
	step := float64(TickStep(maxVal))
	top := math.Ceil(maxVal/step) * step
	if top <= 0 {
		top = step
	}

	labels := makeAxisLabels(height, top)
	axisWidth := 0
	for _, l := range labels {
		axisWidth = max(axisWidth, runewidth.StringWidth(l))
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), axisWidth)
	}
	width = max(width, minPlotWidth)

	cells := make([][][]uint8, len(series))
	for si, s := range series {
		cells[si] = makeCells(height, width)
		values := resampleSeries(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, valueToRow(v, top, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					setBrailleDot(cells[si], dx, dy)
				})
			} else {
				setBrailleDot(cells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], axisWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(cells, x, y)
			ch := rune(0x2800 + int(mask))
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotMonth plots daily moving time per category for a monthly report.
func PlotMonth(w io.Writer, report MonthReport, width, height int, forceColor bool) error {
	if report.Empty() {
		_, err := fmt.Fprintln(w, "No activities in the last month.")
		return err
	}
	days := report.End.Day()
	series := make([]Series, 0, len(report.Series))
	for _, cs := range report.Series {
		values := make([]float64, days)
		for _, d := range cs.Days {
			values[d.Date.Day()-1] += float64(d.MovingTime)
		}
		series = append(series, Series{Name: cs.Category, Values: values})
	}
	title := fmt.Sprintf("Moving time per day, %s", report.End.Format("January 2006"))
	return PlotSeries(w, title, series, width, height, forceColor)
}

// PlotYear plots monthly moving time for a yearly report.
func PlotYear(w io.Writer, report YearReport, width, height int, forceColor bool) error {
	values := make([]float64, 12)
	for i, v := range report.Time {
		values[i] = float64(v)
	}
	title := fmt.Sprintf("Moving time per month, %d", report.Year)
	return PlotSeries(w, title, []Series{{Name: "Moving time", Values: values}}, width, height, forceColor)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth, axisWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// makeAxisLabels labels the top, middle and bottom rows.
func makeAxisLabels(height int, top float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = FormatSeconds(int64(top))
	if height > 2 {
		labels[height/2] = FormatSeconds(int64(top * float64(height-1-height/2) / float64(height-1)))
	}
	if height > 1 {
		labels[height-1] = FormatSeconds(0)
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

// resampleSeries maps values onto width columns, summing when compressing
// so daily totals are not averaged away.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) >= width {
		for i, v := range values {
			out[i*width/len(values)] += v
		}
		return out
	}
	for i := range out {
		out[i] = values[i*len(values)/width]
	}
	return out
}

func valueToRow(v, top float64, height int) int {
	if height <= 1 || top <= 0 {
		return height - 1
	}
	row := int(math.Round((1 - v/top) * float64(height-1)))
	return min(max(row, 0), height-1)
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("⠿ %s", s.Name)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	cellY, cellX := y/4, x/2
	if x < 0 || y < 0 || cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot within a 2x4 cell to its braille bit.
func brailleDotMask(x, y int) uint8 {
	if y == 3 {
		return 0x40 << x
	}
	return 1 << (y + 3*x)
}
