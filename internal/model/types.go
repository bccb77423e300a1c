// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ActivityRecord is one row of an activity export.
type ActivityRecord struct {
	ID         string
	Date       time.Time
	Name       string
	Type       string
	Distance   float64
	MovingTime int64
}

// Variant selects which poster is produced.
type Variant string

const (
	VariantMonth Variant = "month"
	VariantYear  Variant = "year"
)

// DistanceUnit controls how distances are displayed on the yearly poster.
type DistanceUnit string

const (
	UnitNone       DistanceUnit = "none"
	UnitKilometers DistanceUnit = "km"
	UnitMeters     DistanceUnit = "m"
	UnitMiles      DistanceUnit = "mi"
)

// Units lists the selectable distance units in display order.
var Units = []DistanceUnit{UnitNone, UnitKilometers, UnitMeters, UnitMiles}

// ParseDistanceUnit accepts short and long unit names.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "omit":
		return UnitNone, nil
	case "km", "kilometers", "kilometres":
		return UnitKilometers, nil
	case "m", "meters", "metres":
		return UnitMeters, nil
	case "mi", "miles":
		return UnitMiles, nil
	default:
		return "", fmt.Errorf("unknown distance unit %q (want none, km, m or mi)", s)
	}
}

// Divisor converts source meters to the unit. Miles use 1600, not 1609.34.
func (u DistanceUnit) Divisor() float64 {
	switch u {
	case UnitKilometers:
		return 1000
	case UnitMiles:
		return 1600
	default:
		return 1
	}
}

// Enabled reports whether distance should be shown at all.
func (u DistanceUnit) Enabled() bool {
	return u != UnitNone && u != ""
}

// Label is the human-readable unit name.
func (u DistanceUnit) Label() string {
	switch u {
	case UnitKilometers:
		return "Kilometers"
	case UnitMeters:
		return "Meters"
	case UnitMiles:
		return "Miles"
	default:
		return "Omit distance"
	}
}

// Scope is the window a render pass is restricted to.
type Scope struct {
	Variant Variant
	Year    int
	Unit    DistanceUnit
}

// Label renders the scope for history listings and file names.
func (s Scope) Label() string {
	if s.Variant == VariantYear {
		return fmt.Sprintf("%d (%s)", s.Year, s.Unit)
	}
	return "last month"
}

// RenderOptions defines output settings for a render.
type RenderOptions struct {
	OutDir string  `validate:"required"`
	Scale  float64 `validate:"gt=0,lte=4"`
	Title  string
	Footer string
	PNG    bool
	SVG    bool
}

// RenderRecord summarizes a completed render for the history store.
type RenderRecord struct {
	ID           int64
	CreatedAt    time.Time
	Variant      Variant
	ScopeLabel   string
	UploadDigest string
	Activities   int
	PNGPath      string
	SVGPath      string
}
