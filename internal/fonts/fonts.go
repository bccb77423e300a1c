// Package fonts provides the embedded Go font family used by the PNG
// exporter.
package fonts

import (
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/verte-zerg/sportsposter/internal/cache"
	"github.com/verte-zerg/sportsposter/internal/poster"
)

// Family is the CSS font-family matching the embedded faces.
const Family = "Go, Helvetica, Arial, sans-serif"

var parsed = cache.NewAssets[poster.Weight, *opentype.Font]()

func source(w poster.Weight) []byte {
	switch w {
	case poster.WeightBold:
		return gobold.TTF
	case poster.WeightMedium:
		return gomedium.TTF
	default:
		return goregular.TTF
	}
}

// Font returns the parsed font for a weight. Parsing happens once per
// process.
func Font(w poster.Weight) (*opentype.Font, error) {
	return parsed.GetOrLoad(w, func() (*opentype.Font, error) {
		f, err := opentype.Parse(source(w))
		if err != nil {
			return nil, fmt.Errorf("parse font weight %d: %w", w, err)
		}
		return f, nil
	})
}

type faceKey struct {
	weight poster.Weight
	size   float64
}

// Faces hands out sized faces. Faces are not safe for concurrent use, so
// each render owns its own Faces.
type Faces struct {
	dpi   float64
	faces map[faceKey]font.Face
}

// NewFaces returns a face set rendering at the given scale.
func NewFaces(scale float64) *Faces {
	if scale <= 0 {
		scale = 1
	}
	return &Faces{dpi: 72 * scale, faces: make(map[faceKey]font.Face)}
}

// Face returns a face of the weight at size points.
func (f *Faces) Face(w poster.Weight, size float64) (font.Face, error) {
	key := faceKey{w, size}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	fnt, err := Font(w)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     f.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %v/%v: %w", w, size, err)
	}
	f.faces[key] = face
	return face, nil
}

// Close releases all faces.
func (f *Faces) Close() error {
	var err error
	for k, face := range f.faces {
		err = multierr.Append(err, face.Close())
		delete(f.faces, k)
	}
	return err
}
