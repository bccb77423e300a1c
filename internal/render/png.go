package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/verte-zerg/sportsposter/internal/fonts"
	"github.com/verte-zerg/sportsposter/internal/poster"
)

// circleSegments is the polygon resolution used for dots and rings.
const circleSegments = 48

type pt struct{ x, y float64 }

// Rasterize draws the figure into a new RGBA image scaled by scale.
func Rasterize(fig *poster.Figure, faces *fonts.Faces, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = 1
	}
	bounds := image.Rect(0, 0, int(math.Ceil(fig.Width*scale)), int(math.Ceil(fig.Height*scale)))
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(fig.Background), image.Point{}, draw.Src)

	c := &canvas{dst: dst, scale: scale, faces: faces}
	for _, p := range fig.Panels {
		for _, s := range p.Shapes {
			if err := c.shape(s); err != nil {
				return nil, fmt.Errorf("panel %s: %w", p.Name, err)
			}
		}
	}
	for _, t := range fig.Captions {
		if err := c.text(t); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// PNG rasterizes the figure and encodes it.
func PNG(w io.Writer, fig *poster.Figure, faces *fonts.Faces, scale float64) error {
	img, err := Rasterize(fig, faces, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

type canvas struct {
	dst   *image.RGBA
	scale float64
	faces *fonts.Faces
}

func (c *canvas) shape(s poster.Shape) error {
	switch v := s.(type) {
	case poster.Rect:
		c.fill(v.Fill, [][]pt{{
			{v.X, v.Y}, {v.X, v.Bottom()}, {v.Right(), v.Bottom()}, {v.Right(), v.Y},
		}})
	case poster.Circle:
		if v.Filled {
			c.fill(v.Color, [][]pt{circle(v.Center, v.Radius, false)})
			return nil
		}
		half := v.StrokeWidth / 2
		c.fill(v.Color, [][]pt{
			circle(v.Center, v.Radius+half, false),
			circle(v.Center, math.Max(v.Radius-half, 0), true),
		})
	case poster.Line:
		for _, run := range dashes(v.Points, v.Dash) {
			c.fill(v.Color, stroke(run, v.Width))
		}
	case poster.Text:
		return c.text(v)
	}
	return nil
}

// fill rasterizes closed subpaths in figure units. Subpaths with opposite
// winding cancel, which is how rings get their hole.
func (c *canvas) fill(col color.NRGBA, paths [][]pt) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range paths {
		for _, p := range path {
			minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
			minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
		}
	}
	if math.IsInf(minX, 0) {
		return
	}
	box := image.Rect(
		int(math.Floor(minX*c.scale))-1, int(math.Floor(minY*c.scale))-1,
		int(math.Ceil(maxX*c.scale))+1, int(math.Ceil(maxY*c.scale))+1,
	).Intersect(c.dst.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		z.MoveTo(float32(path[0].x*c.scale-ox), float32(path[0].y*c.scale-oy))
		for _, p := range path[1:] {
			z.LineTo(float32(p.x*c.scale-ox), float32(p.y*c.scale-oy))
		}
		z.ClosePath()
	}
	z.Draw(c.dst, box, image.NewUniform(col), image.Point{})
}

func (c *canvas) text(t poster.Text) error {
	if t.Value == "" {
		return nil
	}
	face, err := c.faces.Face(t.Weight, t.Size)
	if err != nil {
		return err
	}
	d := &font.Drawer{Dst: c.dst, Src: image.NewUniform(t.Color), Face: face}
	x := t.At.X * c.scale
	width := float64(d.MeasureString(t.Value)) / 64
	switch t.Anchor {
	case poster.AnchorMiddle:
		x -= width / 2
	case poster.AnchorEnd:
		x -= width
	}
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(math.Round(x * 64)),
		Y: fixed.Int26_6(math.Round(t.At.Y * c.scale * 64)),
	}
	d.DrawString(t.Value)
	return nil
}

// circle approximates a circle by a polygon, counter-clockwise when reverse
// is set.
func circle(center poster.Point, r float64, reverse bool) []pt {
	out := make([]pt, circleSegments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			a = -a
		}
		out[i] = pt{center.X + r*math.Cos(a), center.Y + r*math.Sin(a)}
	}
	return out
}

// stroke outlines a polyline as one quad per segment plus round joins, all
// wound the same way so overlaps do not cancel.
func stroke(points []poster.Point, width float64) [][]pt {
	hw := width / 2
	var out [][]pt
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1], points[i]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*hw, dx/length*hw
		out = append(out, []pt{
			{p0.X + nx, p0.Y + ny},
			{p0.X - nx, p0.Y - ny},
			{p1.X - nx, p1.Y - ny},
			{p1.X + nx, p1.Y + ny},
		})
		if i < len(points)-1 {
			out = append(out, circle(p1, hw, false))
		}
	}
	return out
}

// dashes splits a polyline into its visible runs. An empty pattern keeps the
// line whole.
func dashes(points []poster.Point, pattern []float64) [][]poster.Point {
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	if len(pattern) == 0 || total <= 0 || len(points) < 2 {
		return [][]poster.Point{points}
	}

	var runs [][]poster.Point
	current := []poster.Point{points[0]}
	idx, left, on := 0, pattern[0], true
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1], points[i]
		seg := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
		pos := 0.0
		for seg-pos > left {
			pos += left
			t := pos / seg
			cut := poster.Point{X: p0.X + (p1.X-p0.X)*t, Y: p0.Y + (p1.Y-p0.Y)*t}
			if on {
				current = append(current, cut)
				runs = append(runs, current)
				current = nil
			} else {
				current = []poster.Point{cut}
			}
			on = !on
			idx = (idx + 1) % len(pattern)
			left = pattern[idx]
		}
		left -= seg - pos
		if on {
			current = append(current, p1)
		}
	}
	if on && len(current) > 1 {
		runs = append(runs, current)
	}
	return runs
}
