package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/view"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Foreground(lipgloss.Color("86")).Bold(true)
	doneStyle     = cellStyle.Foreground(lipgloss.Color("244")).Strikethrough(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// renderBoard writes a status line and the four columns side by side.
func renderBoard(w io.Writer, cols view.Columns, counts domain.Counts) error {
	if _, err := fmt.Fprintln(w, statusLine(cols, counts)); err != nil {
		return err
	}

	levels := domain.Levels
	headers := make([]string, 0, len(levels))
	depth := 0
	for _, level := range levels {
		headers = append(headers, cols.Headers.Label(level))
		depth = max(depth, len(cols.Column(level)))
	}

	// states mirrors the rows, since the style func only sees coordinates.
	states := make([][]rowState, depth)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
	for i := 0; i < depth; i++ {
		cells := make([]string, len(levels))
		states[i] = make([]rowState, len(levels))
		for j, level := range levels {
			column := cols.Column(level)
			if i >= len(column) {
				continue
			}
			cells[j] = rowCell(column[i])
			states[i][j] = stateOf(column[i])
		}
		t.Row(cells...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row < 0 || row >= len(states) || col >= len(states[row]) {
			return cellStyle
		}
		switch states[row][col] {
		case rowSelected:
			return selectedStyle
		case rowDone:
			return doneStyle
		default:
			return cellStyle
		}
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

type rowState int

const (
	rowPlain rowState = iota
	rowSelected
	rowDone
)

func stateOf(r view.Row) rowState {
	switch {
	case r.Selected:
		return rowSelected
	case r.Completed:
		return rowDone
	default:
		return rowPlain
	}
}

// rowCell renders the title, the id, and one detail line.
func rowCell(r view.Row) string {
	title := r.Title
	if r.Selected {
		title = "▸ " + title
	}
	if r.Completed {
		title += " ✓"
	}
	lines := []string{title, mutedStyle.Render(r.ID)}
	if detail := rowDetail(r); detail != "" {
		lines = append(lines, mutedStyle.Render(detail))
	}
	return strings.Join(lines, "\n")
}

func rowDetail(r view.Row) string {
	var parts []string
	switch r.Level {
	case domain.LevelGoal:
		if r.StartDate != "" || r.EndDate != "" {
			parts = append(parts, r.StartDate+" → "+r.EndDate)
		}
		if r.NextReportDate != "" {
			parts = append(parts, "report "+r.NextReportDate)
		}
		if r.Amount != "" {
			parts = append(parts, r.Amount)
		}
	case domain.LevelStep:
		parts = append(parts, string(r.Status))
	case domain.LevelTask:
		parts = append(parts, string(r.Progress))
	case domain.LevelInitiative:
		parts = append(parts, r.Assignee, string(r.PriorityLevel))
	}
	if r.Children > 0 {
		parts = append(parts, fmt.Sprintf("%d below", r.Children))
	}
	return strings.Join(nonEmpty(parts), " · ")
}

func statusLine(cols view.Columns, counts domain.Counts) string {
	parts := []string{"mode " + cols.Mode.String()}
	if cols.Query != "" {
		parts = append(parts, fmt.Sprintf("query %q", cols.Query))
	}
	if cols.Filter != "" {
		parts = append(parts, "filter "+cols.Filter)
	}
	parts = append(parts,
		"showing "+string(cols.Visibility),
		fmt.Sprintf("%d active / %d completed", counts.Active, counts.Completed),
	)
	return mutedStyle.Render(strings.Join(parts, "  ·  "))
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// renderMarkdown renders markdown for the terminal in the given glamour style.
func renderMarkdown(md, style string, width int) (string, error) {
	if strings.TrimSpace(style) == "" {
		style = "dark"
	}
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("configure markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
