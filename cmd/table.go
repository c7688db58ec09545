package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jsphweid/mididf/model"
	"github.com/jsphweid/mididf/util"
	"github.com/mattn/go-runewidth"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, headingStyle.Render(title))
}

// columnWidths measures every column in terminal cells.
func columnWidths(rows ...[]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = util.Max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}

// formatTable pads every column to its widest cell. Columns listed in
// rightAlign are right aligned.
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := columnWidths(append([][]string{headers}, rows...)...)

	lines := make([]string, 0, len(rows)+1)
	for _, row := range append([][]string{headers}, rows...) {
		cells := make([]string, len(widths))
		for i, width := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if rightAlign[i] {
				cells[i] = runewidth.FillLeft(cell, width)
			} else {
				cells[i] = runewidth.FillRight(cell, width)
			}
		}
		lines = append(lines, strings.TrimRight(strings.Join(cells, " "), " "))
	}
	return lines
}

func printTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) {
	for _, line := range formatTable(headers, rows, rightAlign) {
		fmt.Fprintln(w, line)
	}
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func pitchList(pitches model.Notes) string {
	parts := make([]string, len(pitches))
	for i, p := range pitches {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, " ")
}

func head[A any](rows []A, n int) []A {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}
