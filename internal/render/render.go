// Package render exports composed posters as PNG and SVG files.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sportsposter/internal/fonts"
	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/poster"
)

// Export formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// MIME types of the export formats.
const (
	MIMEPNG = "image/png"
	MIMESVG = "image/svg+xml"
)

// MIME returns the content type for a format, or "" when unknown.
func MIME(format string) string {
	switch format {
	case FormatPNG:
		return MIMEPNG
	case FormatSVG:
		return MIMESVG
	default:
		return ""
	}
}

// FileName returns the download name of a poster for the scope.
func FileName(scope model.Scope, ext string) string {
	if scope.Variant == model.VariantYear {
		return "my-year-in-sports-" + strconv.Itoa(scope.Year) + "." + ext
	}
	return "my-last-month-in-sports." + ext
}

// Encode renders the figure into memory in the given format.
func Encode(fig *poster.Figure, format string, scale float64) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		faces := fonts.NewFaces(scale)
		err := PNG(&buf, fig, faces, scale)
		if err = multierr.Append(err, faces.Close()); err != nil {
			return nil, err
		}
	case FormatSVG:
		if err := SVG(&buf, fig, fonts.Family); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return buf.Bytes(), nil
}

// Output lists the files written by WriteFiles.
type Output struct {
	PNGPath string
	SVGPath string
}

// WriteFiles exports the enabled formats into opts.OutDir concurrently.
func WriteFiles(ctx context.Context, fig *poster.Figure, scope model.Scope, opts model.RenderOptions) (Output, error) {
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	var out Output
	g, ctx := errgroup.WithContext(ctx)
	if opts.PNG {
		out.PNGPath = filepath.Join(opts.OutDir, FileName(scope, FormatPNG))
		g.Go(func() error {
			return writeFile(ctx, out.PNGPath, fig, FormatPNG, opts.Scale)
		})
	}
	if opts.SVG {
		out.SVGPath = filepath.Join(opts.OutDir, FileName(scope, FormatSVG))
		g.Go(func() error {
			return writeFile(ctx, out.SVGPath, fig, FormatSVG, opts.Scale)
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}
	return out, nil
}

func writeFile(ctx context.Context, path string, fig *poster.Figure, format string, scale float64) (err error) {
	data, err := Encode(fig, format, scale)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.WithField("path", path).Debugf("wrote %d bytes", len(data))
	return nil
}
