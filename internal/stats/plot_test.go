package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/sportsposter/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "Run", Values: []float64{600, 1200, 3600, 0, 1800}},
		{Name: "Ride", Values: []float64{0, 0, 7200, 0, 0}},
	}, 20, 4, false)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") || !strings.Contains(out, "Ride") {
		t.Fatalf("expected legend in output")
	}
	if !strings.Contains(out, "00:00") {
		t.Fatalf("expected HH:MM axis labels in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines of output, got %d", len(lines))
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "A"}}, 20, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotMonthEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotMonth(&buf, MonthReport{}, 20, 4, false); err != nil {
		t.Fatalf("PlotMonth failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No activities") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestPlotMonthSingleCategory(t *testing.T) {
	records := []model.ActivityRecord{
		activity("1", "Run", day(2024, time.March, 2), 0, 1800),
		activity("2", "Run", day(2024, time.March, 12), 0, 2400),
	}
	var buf bytes.Buffer
	if err := PlotMonth(&buf, AggregateMonth(records), 24, 4, false); err != nil {
		t.Fatalf("PlotMonth failed: %v", err)
	}
	if !strings.Contains(buf.String(), "March 2024") {
		t.Fatalf("expected month title, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80, 5); got != 80-5-3 {
		t.Fatalf("expected width %d, got %d", 72, got)
	}
	if got := PlotWidthFor(0, 5); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestBrailleDotMask(t *testing.T) {
	want := map[[2]int]uint8{
		{0, 0}: 0x01, {0, 1}: 0x02, {0, 2}: 0x04, {0, 3}: 0x40,
		{1, 0}: 0x08, {1, 1}: 0x10, {1, 2}: 0x20, {1, 3}: 0x80,
	}
	for pos, mask := range want {
		if got := brailleDotMask(pos[0], pos[1]); got != mask {
			t.Fatalf("dot %v: expected %#x, got %#x", pos, mask, got)
		}
	}
}
