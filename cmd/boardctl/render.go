package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kandev/kanboard/internal/board"
)

const columnWidth = 30

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(columnWidth)
	deletingStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func renderBoard(out io.Writer, view board.BoardView) {
	deleting := make(map[string]bool, len(view.Deleting))
	for _, id := range view.Deleting {
		deleting[id] = true
	}

	cols := make([]string, 0, len(view.Columns))
	for _, cv := range view.Columns {
		cols = append(cols, columnStyle.Render(renderColumn(cv, deleting)))
	}
	fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top, cols...))

	if view.LastError != nil {
		fmt.Fprintln(out, errorStyle.Render("error: "+view.LastError.Error()))
	}
}

func renderColumn(cv board.ColumnView, deleting map[string]bool) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", cv.Column.Title, len(cv.Tasks))))
	for _, task := range cv.Tasks {
		line := fmt.Sprintf("#%s %s", task.ID, task.Title)
		if deleting[task.ID] {
			line = deletingStyle.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	if cv.HasMore {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("more tasks available"))
	}
	return b.String()
}

func renderSearchSummary(out io.Writer, view board.BoardView) {
	if view.SearchQuery == "" {
		return
	}
	noun := "matches"
	if view.SearchResults.Count == 1 {
		noun = "match"
	}
	fmt.Fprintf(out, "%d %s for %q\n", view.SearchResults.Count, noun, view.SearchQuery)
	for _, cv := range view.Columns {
		fmt.Fprintf(out, "  %s: %d\n", cv.Column.Title, view.SearchResults.Columns[cv.Column.ID])
	}
}
