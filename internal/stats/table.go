package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/sportsposter/internal/model"
)

// RenderCategoryTable prints ranked categories with their share of activities.
func RenderCategoryTable(w io.Writer, counts []CategoryCount) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No activities found.")
		return err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			fmt.Sprintf("%d", c.Rank+1),
			c.Category,
			fmt.Sprintf("%d", c.Count),
			fmt.Sprintf("%.1f%%", float64(c.Count)/float64(total)*100),
		})
	}
	lines := formatTable([]string{"#", "Category", "Activities", "Share"}, rows, map[int]bool{0: true, 2: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderMonthlyTable prints per-month totals for a yearly report.
func RenderMonthlyTable(w io.Writer, report YearReport) error {
	headers := []string{"Month", "Moving Time"}
	if report.Distance != nil {
		headers = append(headers, report.Unit.Label())
	}
	rows := make([][]string, 0, 12)
	for i, m := range report.Months {
		row := []string{monthNames[m-1], FormatSeconds(report.Time[i])}
		if report.Distance != nil {
			row = append(row, fmt.Sprintf("%.1f", report.Distance[i]))
		}
		rows = append(rows, row)
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTotals prints a short totals block.
func RenderTotals(w io.Writer, t Totals, unit model.DistanceUnit) error {
	if _, err := fmt.Fprintf(w, "Activities: %d\n", t.Activities); err != nil {
		return err
	}
	if unit.Enabled() {
		if _, err := fmt.Fprintf(w, "Distance: %.1f %s\n", t.Distance, unit); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Moving time: %s\n", FormatSeconds(t.MovingTime)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if rightAlignCols[i] {
			b.WriteString(runewidth.FillLeft(cell, width))
		} else {
			b.WriteString(runewidth.FillRight(cell, width))
		}
	}
	return b.String()
}
