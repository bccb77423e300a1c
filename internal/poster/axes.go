package poster

import (
	"math"
)

// monthLetters labels the twelve months on every month axis.
var monthLetters = []string{"J", "F", "M", "A", "M", "J", "J", "A", "S", "O", "N", "D"}

// axes maps data coordinates onto a plot box inside a panel.
type axes struct {
	panel *Panel
	plot  Box
	style Style

	xMin, xMax float64
	yMin, yMax float64
	// invertY puts yMin at the top.
	invertY bool
}

func (a *axes) px(x float64) float64 {
	return a.plot.X + (x-a.xMin)/(a.xMax-a.xMin)*a.plot.W
}

func (a *axes) py(y float64) float64 {
	frac := (y - a.yMin) / (a.yMax - a.yMin)
	if a.invertY {
		return a.plot.Y + frac*a.plot.H
	}
	return a.plot.Bottom() - frac*a.plot.H
}

// spines draws the left and bottom axis lines; top and right are suppressed.
func (a *axes) spines(left, bottom bool) {
	c := a.style.Foreground
	if left {
		a.panel.add(Line{Points: []Point{{a.plot.X, a.plot.Y}, {a.plot.X, a.plot.Bottom()}}, Color: c, Width: 1})
	}
	if bottom {
		a.panel.add(Line{Points: []Point{{a.plot.X, a.plot.Bottom()}, {a.plot.Right(), a.plot.Bottom()}}, Color: c, Width: 1})
	}
}

func (a *axes) hGrid(ys []float64) {
	for _, y := range ys {
		py := a.py(y)
		a.panel.add(Line{
			Points: []Point{{a.plot.X, py}, {a.plot.Right(), py}},
			Color:  a.style.gridColor(),
			Width:  a.style.GridWidth,
			Dash:   a.style.GridDash,
		})
	}
}

func (a *axes) vGrid(xs []float64) {
	for _, x := range xs {
		px := a.px(x)
		a.panel.add(Line{
			Points: []Point{{px, a.plot.Y}, {px, a.plot.Bottom()}},
			Color:  a.style.gridColor(),
			Width:  a.style.GridWidth,
			Dash:   a.style.GridDash,
		})
	}
}

func (a *axes) yLabels(ys []float64, labels []string) {
	for i, y := range ys {
		a.panel.add(Text{
			At:     Point{a.plot.X - 8, a.py(y) + a.style.TickSize/3},
			Value:  labels[i],
			Size:   a.style.TickSize,
			Color:  a.style.Foreground,
			Anchor: AnchorEnd,
		})
	}
}

// xLabels places labels below the plot, or above it when top is set.
func (a *axes) xLabels(xs []float64, labels []string, top bool) {
	y := a.plot.Bottom() + a.style.TickSize + 8
	if top {
		y = a.plot.Y - 10
	}
	for i, x := range xs {
		a.panel.add(Text{
			At:     Point{a.px(x), y},
			Value:  labels[i],
			Size:   a.style.TickSize,
			Color:  a.style.Foreground,
			Anchor: AnchorMiddle,
		})
	}
}

func (a *axes) title(value string) {
	a.panel.add(Text{
		At:     Point{a.plot.X, a.panel.Bounds.Y + a.style.LabelSize + 6},
		Value:  value,
		Size:   a.style.LabelSize,
		Weight: WeightMedium,
		Color:  a.style.Foreground,
	})
}

func monthTicks() ([]float64, []string) {
	xs := make([]float64, 12)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	return xs, monthLetters
}

// ticksUpTo returns 0, step, 2*step ... up to and including top.
func ticksUpTo(top, step float64) []float64 {
	if step <= 0 {
		return []float64{0}
	}
	n := int(math.Floor(top/step + 1e-6))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, float64(i)*step)
	}
	return out
}

// stepDecimals is the number of decimals needed to print multiples of step.
func stepDecimals(step float64) int {
	if step <= 0 {
		return 0
	}
	return max(0, int(-math.Floor(math.Log10(step)+1e-9)))
}

// axisTop rounds maxVal up to a whole number of steps, never below one step.
func axisTop(maxVal, step float64) float64 {
	top := math.Ceil(maxVal/step) * step
	if top < step {
		top = step
	}
	return top
}

// niceStep picks a 1, 2 or 5 times power-of-ten increment giving roughly
// target intervals up to maxVal.
func niceStep(maxVal float64, target int) float64 {
	if maxVal <= 0 || target <= 0 {
		return 1
	}
	raw := maxVal / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm < 1.5:
		return mag
	case norm < 3:
		return 2 * mag
	case norm < 7:
		return 5 * mag
	default:
		return 10 * mag
	}
}
