package render

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/sportsposter/internal/poster"
)

// SVG writes the figure as a standalone SVG document. Text is emitted as
// text elements using fontFamily.
func SVG(w io.Writer, fig *poster.Figure, fontFamily string) error {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="%s">`,
		num(fig.Width), num(fig.Height), num(fig.Width), num(fig.Height), html.EscapeString(fontFamily)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`<rect width="%s" height="%s" fill="%s"/>`, num(fig.Width), num(fig.Height), poster.Hex(fig.Background)))
	sb.WriteString("\n")

	for _, p := range fig.Panels {
		sb.WriteString(fmt.Sprintf(`<g id="%s">`, html.EscapeString(p.Name)))
		sb.WriteString("\n")
		for _, s := range p.Shapes {
			writeShape(&sb, s)
		}
		sb.WriteString("</g>\n")
	}
	for _, t := range fig.Captions {
		writeShape(&sb, t)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeShape(sb *strings.Builder, s poster.Shape) {
	switch v := s.(type) {
	case poster.Rect:
		sb.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`,
			num(v.X), num(v.Y), num(v.W), num(v.H), poster.Hex(v.Fill), opacity("fill-opacity", v.Fill.A)))
	case poster.Circle:
		if v.Filled {
			sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"%s/>`,
				num(v.Center.X), num(v.Center.Y), num(v.Radius), poster.Hex(v.Color), opacity("fill-opacity", v.Color.A)))
		} else {
			sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="%s"%s/>`,
				num(v.Center.X), num(v.Center.Y), num(v.Radius), poster.Hex(v.Color), num(v.StrokeWidth), opacity("stroke-opacity", v.Color.A)))
		}
	case poster.Line:
		points := make([]string, len(v.Points))
		for i, p := range v.Points {
			points[i] = num(p.X) + "," + num(p.Y)
		}
		dash := ""
		if len(v.Dash) > 0 {
			parts := make([]string, len(v.Dash))
			for i, d := range v.Dash {
				parts[i] = num(d)
			}
			dash = fmt.Sprintf(` stroke-dasharray="%s"`, strings.Join(parts, " "))
		}
		sb.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linejoin="round"%s%s/>`,
			strings.Join(points, " "), poster.Hex(v.Color), num(v.Width), dash, opacity("stroke-opacity", v.Color.A)))
	case poster.Text:
		sb.WriteString(fmt.Sprintf(`<text x="%s" y="%s" font-size="%s"%s%s fill="%s"%s>%s</text>`,
			num(v.At.X), num(v.At.Y), num(v.Size), fontWeight(v.Weight), textAnchor(v.Anchor),
			poster.Hex(v.Color), opacity("fill-opacity", v.Color.A), html.EscapeString(v.Value)))
	default:
		return
	}
	sb.WriteString("\n")
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func opacity(attr string, a uint8) string {
	if a == 0xff {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, attr, strconv.FormatFloat(float64(a)/255, 'f', 3, 64))
}

func fontWeight(w poster.Weight) string {
	switch w {
	case poster.WeightBold:
		return ` font-weight="bold"`
	case poster.WeightMedium:
		return ` font-weight="500"`
	default:
		return ""
	}
}

func textAnchor(a poster.Anchor) string {
	switch a {
	case poster.AnchorMiddle:
		return ` text-anchor="middle"`
	case poster.AnchorEnd:
		return ` text-anchor="end"`
	default:
		return ""
	}
}
