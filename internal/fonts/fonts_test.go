package fonts

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
	"golang.org/x/image/font"

	"github.com/verte-zerg/sportsposter/internal/poster"
)

func TestFontParsedOnce(t *testing.T) {
	a, err := Font(poster.WeightBold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Font(poster.WeightBold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same parsed font")
	}
}

func TestFacesScaleWithDPI(t *testing.T) {
	small := NewFaces(1)
	large := NewFaces(2)
	defer small.Close()
	defer large.Close()

	f1, err := small.Face(poster.WeightRegular, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := large.Face(poster.WeightRegular, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w1 := font.MeasureString(f1, "Run")
	w2 := font.MeasureString(f2, "Run")
	if w2 <= w1 {
		t.Fatalf("expected wider text at scale 2: %v vs %v", w1, w2)
	}

	again, _ := small.Face(poster.WeightRegular, 12)
	if again != f1 {
		t.Fatalf("expected face reuse within a set")
	}
}

type failingFace struct {
	font.Face
	err error
}

func (f failingFace) Close() error { return f.err }

func TestFacesCloseReportsEveryError(t *testing.T) {
	errA := errors.New("close a")
	errB := errors.New("close b")
	faces := NewFaces(1)
	faces.faces[faceKey{poster.WeightRegular, 10}] = failingFace{err: errA}
	faces.faces[faceKey{poster.WeightBold, 10}] = failingFace{err: errB}
	faces.faces[faceKey{poster.WeightMedium, 10}] = failingFace{}

	err := faces.Close()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 errors, got %d (%v)", got, err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both close errors, got %v", err)
	}
	if len(faces.faces) != 0 {
		t.Fatalf("expected faces to be released")
	}
}
