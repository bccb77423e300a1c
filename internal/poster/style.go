package poster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style is the shared look of every poster.
type Style struct {
	Background color.NRGBA
	Foreground color.NRGBA
	// Palette is assigned in ranking order; the last entry is reserved for
	// Other and any overflow category.
	Palette []color.NRGBA

	GridWidth float64
	GridAlpha float64
	GridDash  []float64

	Title  string
	Footer string

	TitleSize    float64
	SubtitleSize float64
	FooterSize   float64
	LabelSize    float64
	TickSize     float64
	LegendSize   float64
}

// DefaultStyle returns the standard poster palette and typography.
func DefaultStyle() Style {
	return Style{
		Background: MustHex("#FBF9F5"),
		Foreground: MustHex("#2E3234"),
		Palette: []color.NRGBA{
			MustHex("#6DB4C8"),
			MustHex("#FD7B5C"),
			MustHex("#FBCA58"),
			MustHex("#7E8384"),
		},
		GridWidth:    0.5,
		GridAlpha:    0.5,
		GridDash:     []float64{4, 2},
		Footer:       "Data: Strava",
		TitleSize:    40,
		SubtitleSize: 20,
		FooterSize:   9,
		LabelSize:    13,
		TickSize:     11,
		LegendSize:   14,
	}
}

// CategoryColor returns the color for a ranking position.
func (s Style) CategoryColor(rank int) color.NRGBA {
	if len(s.Palette) == 0 {
		return s.Foreground
	}
	if rank < 0 || rank >= len(s.Palette) {
		return s.Palette[len(s.Palette)-1]
	}
	return s.Palette[rank]
}

func (s Style) gridColor() color.NRGBA {
	return withAlpha(s.Foreground, s.GridAlpha)
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(float64(c.A) * alpha)
	return c
}

// ParseHex parses #RRGGBB or #RRGGBBAA.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustHex is ParseHex for constants.
func MustHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats a color as #RRGGBB, dropping alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
