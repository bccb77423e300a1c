package stats

import (
	"sort"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// CategoryCount is one legend entry.
type CategoryCount struct {
	Rank     int
	Category string
	Count    int
}

// RankCategories orders categories by descending row count. Ties keep the
// order in which the category first appears in records.
func RankCategories(records []model.ActivityRecord) []CategoryCount {
	type item struct {
		category string
		count    int
	}
	var items []item
	pos := map[string]int{}
	for _, r := range records {
		i, ok := pos[r.Type]
		if !ok {
			i = len(items)
			pos[r.Type] = i
			items = append(items, item{category: r.Type})
		}
		items[i].count++
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].count > items[j].count
	})
	out := make([]CategoryCount, 0, len(items))
	for i, it := range items {
		out = append(out, CategoryCount{Rank: i, Category: it.category, Count: it.count})
	}
	return out
}

// TopCategories returns up to n category labels by frequency.
func TopCategories(records []model.ActivityRecord, n int) []string {
	if n <= 0 {
		return nil
	}
	ranked := RankCategories(records)
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, c := range ranked[:n] {
		out = append(out, c.Category)
	}
	return out
}
