package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"davisboard/internal/spreads"
	viewtable "davisboard/internal/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	toneStyles    = map[string]lipgloss.Style{
		"positive": cellStyle.Foreground(lipgloss.Color("#16a34a")),
		"negative": cellStyle.Foreground(lipgloss.Color("#dc2626")),
	}
)

func sortMark(d viewtable.SortDirection) string {
	switch d {
	case viewtable.Asc:
		return " ↑"
	case viewtable.Desc:
		return " ↓"
	}
	return ""
}

func rowLabel(r viewtable.ViewRow) string {
	marker := "  "
	if r.HasChildren {
		marker = "▸ "
		if r.Expanded {
			marker = "▾ "
		}
	}
	return strings.Repeat("  ", int(r.Level)) + marker + r.Name
}

// renderView 以终端表格输出视图
func renderView(w io.Writer, v viewtable.View) error {
	fmt.Fprintln(w, titleStyle.Render(v.Title))
	fmt.Fprintln(w, subtitleStyle.Render(v.Subtitle))
	if v.Empty {
		_, err := fmt.Fprintln(w, "No data available")
		return err
	}

	headers := []string{v.NameHeader.Label + sortMark(v.NameHeader.Sorted)}
	for _, col := range v.Columns {
		for i, h := range col.Headers {
			label := h.Label
			if i > 0 {
				label = col.Label + " " + h.Label
			}
			headers = append(headers, label+sortMark(h.Sorted))
		}
	}

	rows := make([][]string, 0, len(v.Rows))
	tones := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		cells := []string{rowLabel(r)}
		rowTones := []string{""}
		for _, c := range r.Cells {
			cells = append(cells, c.Text)
			rowTones = append(rowTones, c.Tone)
		}
		rows = append(rows, cells)
		tones = append(tones, rowTones)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if i := dataRowIndex(row); i >= 0 && i < len(tones) && col < len(tones[i]) {
				if st, ok := toneStyles[tones[i][col]]; ok {
					return st
				}
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// dataRowIndex StyleFunc 的行号转换为数据行下标
func dataRowIndex(row int) int {
	if table.HeaderRow == 0 {
		return row - 1
	}
	return row
}

// renderSpreads 以终端矩阵输出价差
func renderSpreads(w io.Writer, m spreads.Matrix) error {
	fmt.Fprintln(w, titleStyle.Render(m.Title))
	fmt.Fprintln(w, subtitleStyle.Render(m.Subtitle))
	if m.Empty {
		_, err := fmt.Fprintln(w, "No data available")
		return err
	}

	headers := []string{"From \\ To"}
	for _, r := range m.Regions {
		headers = append(headers, r.Code)
	}
	rows := make([][]string, 0, len(m.Regions))
	for i, from := range m.Regions {
		cells := []string{from.Name}
		for _, c := range m.Cells[i] {
			if c.SpreadText == spreads.ZeroText {
				cells = append(cells, spreads.ZeroText)
				continue
			}
			cells = append(cells, fmt.Sprintf("%s (%s)", c.SpreadText, c.ChangeText))
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return headerStyle
			}
			i := dataRowIndex(row)
			if i >= 0 && i < len(m.Cells) && col-1 < len(m.Cells[i]) {
				if st, ok := toneStyles[m.Cells[i][col-1].Tone]; ok {
					return st
				}
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
