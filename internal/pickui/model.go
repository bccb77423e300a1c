// Package pickui provides the Bubble Tea picker for the yearly poster scope.
package pickui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/stats"
)

const (
	stepYear = iota
	stepUnit
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Selection is the outcome of the picker.
type Selection struct {
	Year     int
	Unit     model.DistanceUnit
	Canceled bool
}

type yearRow struct {
	year   int
	report stats.YearReport
}

// Model implements the Bubble Tea picker.
type Model struct {
	rows     []yearRow
	table    table.Model
	step     int
	unitIdx  int
	selected Selection
	width    int
}

// NewModel builds the picker over the given years, newest first. The unit
// cursor starts on initial.
func NewModel(records []model.ActivityRecord, years []int, initial model.DistanceUnit) *Model {
	m := &Model{}
	for _, y := range years {
		m.rows = append(m.rows, yearRow{year: y, report: stats.AggregateYear(records, y, model.UnitKilometers)})
	}
	for i, u := range model.Units {
		if u == initial {
			m.unitIdx = i
		}
	}
	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Year", Width: 6},
			{Title: "Activities", Width: 10},
			{Title: "Top category", Width: 16},
			{Title: "Moving time", Width: 12},
		}),
		table.WithRows(m.tableRows()),
		table.WithFocused(true),
		table.WithHeight(min(max(len(m.rows), 1), 10)),
		table.WithStyles(tableStyles()),
	)
	return m
}

func (m *Model) tableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		top := "-"
		if len(r.report.TopCategories) > 0 {
			top = r.report.TopCategories[0]
		}
		var moving int64
		for _, sec := range r.report.Time {
			moving += sec
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.year),
			strconv.Itoa(len(r.report.Records)),
			top,
			stats.FormatSeconds(moving),
		})
	}
	return rows
}

// Selection returns the picked scope once the program has exited.
func (m *Model) Selection() Selection {
	return m.selected
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.selected = Selection{Canceled: true}
			return m, tea.Quit
		case "esc":
			if m.step == stepUnit {
				m.step = stepYear
				m.table.Focus()
				return m, nil
			}
			m.selected = Selection{Canceled: true}
			return m, tea.Quit
		case "enter":
			if m.step == stepYear {
				if len(m.rows) == 0 {
					return m, nil
				}
				m.step = stepUnit
				m.table.Blur()
				return m, nil
			}
			m.selected = Selection{
				Year: m.rows[m.table.Cursor()].year,
				Unit: model.Units[m.unitIdx],
			}
			return m, tea.Quit
		}
		if m.step == stepUnit {
			switch msg.String() {
			case "up", "k":
				m.unitIdx = (m.unitIdx - 1 + len(model.Units)) % len(model.Units)
			case "down", "j":
				m.unitIdx = (m.unitIdx + 1) % len(model.Units)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("My year in sports"))
	b.WriteString("\n\n")
	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("No activities found."))
		b.WriteString("\n")
		return b.String()
	}

	if m.step == stepYear {
		b.WriteString(headerStyle.Render("Pick a year"))
		b.WriteString("\n")
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(m.preview())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("↑/↓ move • enter select • q quit"))
		return b.String()
	}

	year := m.rows[m.table.Cursor()].year
	b.WriteString(headerStyle.Render(fmt.Sprintf("Distance unit for %d", year)))
	b.WriteString("\n")
	for i, u := range model.Units {
		line := "  " + u.Label()
		if i == m.unitIdx {
			line = activeStyle.Render("> " + u.Label())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓ move • enter render • esc back"))
	return b.String()
}

// preview lists the ranked categories of the highlighted year.
func (m *Model) preview() string {
	if len(m.rows) == 0 {
		return ""
	}
	var sb strings.Builder
	if err := stats.RenderCategoryTable(&sb, m.rows[m.table.Cursor()].report.CategoryCounts); err != nil {
		return mutedStyle.Render(err.Error())
	}
	return cardStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
