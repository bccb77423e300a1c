// Package poster lays out activity aggregates as a multi-panel figure.
//
// A Figure is a display list in pixel coordinates with the origin at the
// top-left corner. Exporters in package render turn it into PNG or SVG.
package poster

import "image/color"

// Point is a position in figure pixels.
type Point struct {
	X, Y float64
}

// Box is an axis-aligned rectangle.
type Box struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Inset shrinks the box by the given margins.
func (b Box) Inset(top, right, bottom, left float64) Box {
	return Box{X: b.X + left, Y: b.Y + top, W: b.W - left - right, H: b.H - top - bottom}
}

// Weight selects a font weight.
type Weight int

const (
	WeightRegular Weight = iota
	WeightMedium
	WeightBold
)

// Anchor is the horizontal alignment of a text relative to its point.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// Shape is one drawable element.
type Shape interface {
	shape()
}

// Rect is a filled rectangle.
type Rect struct {
	Box
	Fill color.NRGBA
}

// Circle is a filled dot or an open ring.
type Circle struct {
	Center      Point
	Radius      float64
	Filled      bool
	Color       color.NRGBA
	StrokeWidth float64
}

// Line is an open polyline. Dash alternates on and off lengths.
type Line struct {
	Points []Point
	Color  color.NRGBA
	Width  float64
	Dash   []float64
}

// Text is a single line of text; At is the baseline point.
type Text struct {
	At     Point
	Value  string
	Size   float64
	Weight Weight
	Color  color.NRGBA
	Anchor Anchor
}

func (Rect) shape()   {}
func (Circle) shape() {}
func (Line) shape()   {}
func (Text) shape()   {}

// Panel is one rectangular chart region.
type Panel struct {
	Name   string
	Bounds Box
	Shapes []Shape
}

func (p *Panel) add(s ...Shape) {
	p.Shapes = append(p.Shapes, s...)
}

// Circles returns the circles of the panel in draw order.
func (p *Panel) Circles() []Circle {
	var out []Circle
	for _, s := range p.Shapes {
		if c, ok := s.(Circle); ok {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the text values of the panel in draw order.
func (p *Panel) Texts() []string {
	var out []string
	for _, s := range p.Shapes {
		if t, ok := s.(Text); ok {
			out = append(out, t.Value)
		}
	}
	return out
}

// Figure is a composed poster.
type Figure struct {
	Width      float64
	Height     float64
	Background color.NRGBA
	Panels     []Panel
	Captions   []Text
}

// Panel looks up a panel by name.
func (f *Figure) Panel(name string) (*Panel, bool) {
	for i := range f.Panels {
		if f.Panels[i].Name == name {
			return &f.Panels[i], true
		}
	}
	return nil, false
}
