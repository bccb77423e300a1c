package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sportsposter/internal/config"
	"github.com/verte-zerg/sportsposter/internal/model"
)

const exportCSV = "Activity ID,Activity Date,Activity Name,Activity Type,Elapsed Time,Distance,Elapsed Time,Moving Time,Distance\n" +
	`1,"Apr 28, 2023, 7:00:00 AM",Run,Run,1900,5.0,1900,1800,5000` + "\n" +
	`2,"May 3, 2024, 7:00:00 AM",Run,Run,1900,5.0,1900,1800,5000` + "\n" +
	`3,"May 3, 2024, 6:00:00 PM",Ride,Ride,3700,20.0,3700,3600,20000` + "\n" +
	`4,"May 9, 2024, 7:00:00 AM",Swim,Swim,1300,1.0,1300,1200,1000` + "\n"

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "activities.csv")
	if err := os.WriteFile(path, []byte(exportCSV), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestYearsCommand(t *testing.T) {
	csv := isolate(t)
	out, err := execute(t, "years", "--file", csv)
	if err != nil {
		t.Fatalf("years failed: %v", err)
	}
	if strings.TrimSpace(out) != "2024\n2023" {
		t.Fatalf("unexpected years output %q", out)
	}
}

func TestMonthCommandWritesSVGAndHistory(t *testing.T) {
	csv := isolate(t)
	outDir := filepath.Join(t.TempDir(), "posters")

	out, err := execute(t, "month", "--file", csv, "--out", outDir, "--png=false")
	if err != nil {
		t.Fatalf("month failed: %v", err)
	}
	svgPath := filepath.Join(outDir, "my-last-month-in-sports.svg")
	if strings.TrimSpace(out) != svgPath {
		t.Fatalf("expected written path %q, got %q", svgPath, out)
	}
	data, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(data), "MY LAST MONTH IN SPORTS") {
		t.Fatalf("svg is missing the title")
	}
	if _, err := os.Stat(filepath.Join(outDir, "my-last-month-in-sports.png")); !os.IsNotExist(err) {
		t.Fatalf("png should not be written, stat err %v", err)
	}

	out, err = execute(t, "history", "--last", "5")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "last month") || !strings.Contains(out, svgPath) {
		t.Fatalf("history should list the render, got %q", out)
	}
}

func TestYearCommandWritesPNG(t *testing.T) {
	csv := isolate(t)
	outDir := t.TempDir()

	_, err := execute(t, "year", "--file", csv, "--out", outDir, "--svg=false", "--unit", "mi", "--scale", "1")
	if err != nil {
		t.Fatalf("year failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "my-year-in-sports-2024.png"))
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}
}

func TestYearCommandRejectsUnknownUnit(t *testing.T) {
	csv := isolate(t)
	_, err := execute(t, "year", "--file", csv, "--out", t.TempDir(), "--unit", "furlong")
	if err == nil || !strings.Contains(err.Error(), "--unit") {
		t.Fatalf("expected unit error, got %v", err)
	}
}

func TestMonthCommandReportsSchemaError(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Activity ID,Activity Date\n1,x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := execute(t, "month", "--file", path, "--out", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "missing the following columns") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestSummaryCommand(t *testing.T) {
	csv := isolate(t)
	out, err := execute(t, "summary", "--file", csv, "--year", "2024", "--unit", "km")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"Run", "Ride", "Activities: 3", "Distance: 26.0 km"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestValidateOptions(t *testing.T) {
	base := model.RenderOptions{OutDir: "out", Scale: 2, PNG: true}
	if err := validateOptions(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noFormat := base
	noFormat.PNG = false
	if err := validateOptions(noFormat); err == nil {
		t.Fatalf("expected error when no format is enabled")
	}

	badScale := base
	badScale.Scale = 5
	err := validateOptions(badScale)
	if err == nil || !strings.Contains(err.Error(), "--scale") {
		t.Fatalf("expected --scale error, got %v", err)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var unit, title string
	cmd.Flags().StringVar(&unit, "unit", "km", "")
	cmd.Flags().StringVar(&title, "title", "", "")
	if err := cmd.Flags().Parse([]string{"--unit", "mi"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	fromFile, fileTitle := "m", "Hello"
	applyStringConfig(cmd, "unit", &unit, &fromFile)
	applyStringConfig(cmd, "title", &title, &fileTitle)
	applyStringConfig(cmd, "title", &title, nil)
	if unit != "mi" {
		t.Fatalf("flag should win over config, got %q", unit)
	}
	if title != "Hello" {
		t.Fatalf("config should fill unset flag, got %q", title)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	var cfg config.FileConfig
	meta, err := toml.Decode(strings.Join(lines, "\n"), &cfg)
	if err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		t.Fatalf("template has unknown keys: %v", undecoded)
	}
	if cfg.Render.Scale == nil || *cfg.Render.Scale != defaultScale {
		t.Fatalf("unexpected scale %v", cfg.Render.Scale)
	}
	if cfg.Serve.SessionTTL == nil {
		t.Fatalf("session-ttl missing")
	}
	if _, err := time.ParseDuration(*cfg.Serve.SessionTTL); err != nil {
		t.Fatalf("session-ttl not a duration: %v", err)
	}
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	records := []model.RenderRecord{{
		ID:           7,
		CreatedAt:    time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC),
		Variant:      model.VariantYear,
		ScopeLabel:   "2024 (km)",
		UploadDigest: "abc",
		Activities:   12,
	}}
	if err := writeHistory(&buf, records, map[string]int{"abc": 4}); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SCOPE", "UPLOAD RENDERS", "2024 (km)", "12", " 4 ", "-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history output missing %q:\n%s", want, out)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteHistoryReturnsWriteError(t *testing.T) {
	records := []model.RenderRecord{{ID: 1, Variant: model.VariantMonth, ScopeLabel: "last month"}}
	if err := writeHistory(failingWriter{}, records, nil); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestYearsCommandReturnsWriteError(t *testing.T) {
	csv := isolate(t)
	root := newRootCmd()
	root.SetOut(failingWriter{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"years", "--file", csv})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestHistoryCountsRendersPerUpload(t *testing.T) {
	csv := isolate(t)
	outDir := t.TempDir()
	for i := 0; i < 2; i++ {
		if _, err := execute(t, "month", "--file", csv, "--out", outDir, "--png=false"); err != nil {
			t.Fatalf("month failed: %v", err)
		}
	}
	out, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	for _, line := range lines[1:] {
		if !strings.Contains(line, " 2 ") {
			t.Fatalf("expected 2 renders for the upload in %q", line)
		}
	}
}
