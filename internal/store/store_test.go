package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/sportsposter/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func TestInsertAndListRenders(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)

	records := []model.RenderRecord{
		{CreatedAt: base, Variant: model.VariantMonth, ScopeLabel: "last month", UploadDigest: "abc", Activities: 12, PNGPath: "/tmp/a.png"},
		{CreatedAt: base.Add(time.Hour), Variant: model.VariantYear, ScopeLabel: "2024 (km)", UploadDigest: "abc", Activities: 80, SVGPath: "/tmp/b.svg"},
		{CreatedAt: base.Add(2 * time.Hour), Variant: model.VariantYear, ScopeLabel: "2023 (mi)", UploadDigest: "def", Activities: 150},
	}
	for _, r := range records {
		if _, err := s.InsertRender(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := s.ListRenders(ctx, HistoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(all))
	}
	if all[0].ScopeLabel != "2023 (mi)" || all[2].ScopeLabel != "last month" {
		t.Fatalf("expected most recent first, got %+v", all)
	}
	if !all[2].CreatedAt.Equal(base) || all[2].Activities != 12 || all[2].PNGPath != "/tmp/a.png" {
		t.Fatalf("unexpected round trip %+v", all[2])
	}

	years, err := s.ListRenders(ctx, HistoryFilter{Variant: model.VariantYear, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(years) != 1 || years[0].ScopeLabel != "2023 (mi)" {
		t.Fatalf("unexpected filtered result %+v", years)
	}

	since := base.Add(30 * time.Minute)
	recent, err := s.ListRenders(ctx, HistoryFilter{Since: &since})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 renders since %v, got %d", since, len(recent))
	}

	n, err := s.CountByDigest(ctx, "abc")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 renders for digest, got %d", n)
	}
}

func TestInsertDefaultsCreatedAt(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)
	if _, err := s.InsertRender(ctx, model.RenderRecord{Variant: model.VariantMonth, ScopeLabel: "last month"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.ListRenders(ctx, HistoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CreatedAt.Before(before) {
		t.Fatalf("expected created_at to default to now, got %+v", got)
	}
}
