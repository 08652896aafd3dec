package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"davisboard/internal/spreads"
	"davisboard/internal/table"
)

// 工作表名称
const (
	TableSheet   = "Month over month"
	SpreadsSheet = "Market spreads"
)

const (
	headerRow    = 4
	subHeaderRow = 5
	firstDataRow = 6
)

var (
	valueNumFmt  = "0.00"
	changeNumFmt = `+0.00"%";-0.00"%";+0.00"%"`
	volumeNumFmt = "#,##0"
)

// ExportOptions 导出选项
type ExportOptions struct {
	Progress func(ProgressEvent)
}

// Exporter 视图导出器：将表格视图或价差矩阵写入新建的工作簿
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

type styles struct {
	title, subtitle, header int
	value, change, volume   int
	positive, negative      int
	missing                 int
	names                   map[table.Level]int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	mk := func(st *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(st)
		return id
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	border := []excelize.Border{{Type: "bottom", Color: "D1D5DB", Style: 1}}

	s.title = mk(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	s.subtitle = mk(&excelize.Style{Font: &excelize.Font{Color: "6B7280", Size: 10}})
	s.header = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F3F4F6"}},
		Alignment: center,
		Border:    border,
	})
	s.value = mk(&excelize.Style{CustomNumFmt: &valueNumFmt})
	s.change = mk(&excelize.Style{CustomNumFmt: &changeNumFmt})
	s.positive = mk(&excelize.Style{CustomNumFmt: &changeNumFmt, Font: &excelize.Font{Color: "16A34A"}})
	s.negative = mk(&excelize.Style{CustomNumFmt: &changeNumFmt, Font: &excelize.Font{Color: "EF4444"}})
	s.volume = mk(&excelize.Style{CustomNumFmt: &volumeNumFmt})
	s.missing = mk(&excelize.Style{Font: &excelize.Font{Color: "9CA3AF"}, Alignment: &excelize.Alignment{Horizontal: "center"}})
	s.names = map[table.Level]int{
		table.LevelRegion:    mk(&excelize.Style{Font: &excelize.Font{Bold: true}}),
		table.LevelSubRegion: mk(&excelize.Style{Alignment: &excelize.Alignment{Indent: 1}}),
		table.LevelMill:      mk(&excelize.Style{Alignment: &excelize.Alignment{Indent: 2}}),
	}
	return s, err
}

func newWorkbook(sheet string) (*excelize.File, styles, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, styles{}, fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, styles{}, fmt.Errorf("create styles: %w", err)
	}
	return f, st, nil
}

func writeTitle(f *excelize.File, sheet string, st styles, title, subtitle string) error {
	if err := setCell(f, sheet, 1, 1, title, st.title); err != nil {
		return err
	}
	return setCell(f, sheet, 1, 2, subtitle, st.subtitle)
}

// ExportTable 导出月度对比表（当前可见行）
func (e *Exporter) ExportTable(view table.View, opts ExportOptions) (*excelize.File, error) {
	reportProgress(opts.Progress, 0, "准备工作簿")
	f, st, err := newWorkbook(TableSheet)
	if err != nil {
		return nil, err
	}
	if err := e.fillTable(f, st, view, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 100, "导出完成")
	return f, nil
}

func (e *Exporter) fillTable(f *excelize.File, st styles, view table.View, opts ExportOptions) error {
	sheet := TableSheet
	if err := writeTitle(f, sheet, st, view.Title, view.Subtitle); err != nil {
		return err
	}
	if view.Empty {
		return setCell(f, sheet, 1, headerRow, "No data", st.missing)
	}

	// 表头：每个列组在第 4 行合并，子表头在第 5 行
	if err := setCell(f, sheet, 1, headerRow, view.NameHeader.Label, st.header); err != nil {
		return err
	}
	if err := mergeRange(f, sheet, 1, headerRow, 1, subHeaderRow); err != nil {
		return err
	}
	col := 2
	for _, c := range view.Columns {
		start := col
		for _, h := range c.Headers {
			if err := setCell(f, sheet, col, subHeaderRow, h.Label, st.header); err != nil {
				return err
			}
			col++
		}
		if err := setCell(f, sheet, start, headerRow, c.Label, st.header); err != nil {
			return err
		}
		if col-1 > start {
			if err := mergeRange(f, sheet, start, headerRow, col-1, headerRow); err != nil {
				return err
			}
		}
	}
	reportProgress(opts.Progress, 20, "写入表头")

	for i, r := range view.Rows {
		rowNo := firstDataRow + i
		if err := setCell(f, sheet, 1, rowNo, r.Name, st.names[r.Level]); err != nil {
			return err
		}
		col := 2
		idx := 0
		for _, c := range view.Columns {
			for k := range c.Headers {
				if idx >= len(r.Cells) {
					break
				}
				if err := writeViewCell(f, sheet, st, col, rowNo, k, r.Cells[idx]); err != nil {
					return err
				}
				col++
				idx++
			}
		}
		if len(view.Rows) > 0 {
			reportProgress(opts.Progress, 20+70*(i+1)/len(view.Rows), "写入数据行")
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if col > 2 {
		last, _ := excelize.ColumnNumberToName(col - 1)
		if err := f.SetColWidth(sheet, "B", last, 12); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      subHeaderRow,
		TopLeftCell: fmt.Sprintf("B%d", firstDataRow),
		ActivePane:  "bottomRight",
	})
}

// writeViewCell k 为列组内位置：0 值，1 变化，2 量
func writeViewCell(f *excelize.File, sheet string, st styles, col, row, k int, cell table.Cell) error {
	if cell.Missing || cell.Raw == nil {
		return setCell(f, sheet, col, row, cell.Text, st.missing)
	}
	style := st.value
	switch k {
	case 1:
		style = st.change
		switch cell.Tone {
		case "positive":
			style = st.positive
		case "negative":
			style = st.negative
		}
	case 2:
		style = st.volume
	}
	return setCell(f, sheet, col, row, *cell.Raw, style)
}

// ExportSpreads 导出价差矩阵
func (e *Exporter) ExportSpreads(m spreads.Matrix, opts ExportOptions) (*excelize.File, error) {
	reportProgress(opts.Progress, 0, "准备工作簿")
	f, st, err := newWorkbook(SpreadsSheet)
	if err != nil {
		return nil, err
	}
	if err := fillSpreads(f, st, m, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 100, "导出完成")
	return f, nil
}

func fillSpreads(f *excelize.File, st styles, m spreads.Matrix, opts ExportOptions) error {
	sheet := SpreadsSheet
	if err := writeTitle(f, sheet, st, m.Title, m.Subtitle); err != nil {
		return err
	}
	if m.Empty {
		return setCell(f, sheet, 1, headerRow, "No data", st.missing)
	}

	if err := setCell(f, sheet, 1, headerRow, "Region", st.header); err != nil {
		return err
	}
	if err := mergeRange(f, sheet, 1, headerRow, 1, subHeaderRow); err != nil {
		return err
	}
	for j, r := range m.Regions {
		col := 2 + 2*j
		if err := setCell(f, sheet, col, headerRow, r.Name, st.header); err != nil {
			return err
		}
		if err := mergeRange(f, sheet, col, headerRow, col+1, headerRow); err != nil {
			return err
		}
		if err := setCell(f, sheet, col, subHeaderRow, "Spread", st.header); err != nil {
			return err
		}
		if err := setCell(f, sheet, col+1, subHeaderRow, "Chg", st.header); err != nil {
			return err
		}
	}

	for i, r := range m.Regions {
		rowNo := firstDataRow + i
		if err := setCell(f, sheet, 1, rowNo, r.Name, st.names[table.LevelRegion]); err != nil {
			return err
		}
		for j, c := range m.Cells[i] {
			col := 2 + 2*j
			if c.Spread == 0 {
				if err := setCell(f, sheet, col, rowNo, spreads.ZeroText, st.missing); err != nil {
					return err
				}
				if err := setCell(f, sheet, col+1, rowNo, spreads.ZeroText, st.missing); err != nil {
					return err
				}
				continue
			}
			if err := setCell(f, sheet, col, rowNo, c.SpreadText, st.value); err != nil {
				return err
			}
			if err := setCell(f, sheet, col+1, rowNo, c.ChangeText, toneStyle(st, c.Tone)); err != nil {
				return err
			}
		}
		reportProgress(opts.Progress, 10+80*(i+1)/len(m.Regions), "写入价差")
	}
	return f.SetColWidth(sheet, "A", "A", 18)
}

func toneStyle(st styles, tone string) int {
	switch tone {
	case "positive":
		return st.positive
	case "negative":
		return st.negative
	}
	return st.value
}

func setCell(f *excelize.File, sheet string, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("写入 %s!%s 失败: %w", sheet, cell, err)
	}
	if style > 0 {
		return f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func mergeRange(f *excelize.File, sheet string, c1, r1, c2, r2 int) error {
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		return err
	}
	return f.MergeCell(sheet, from, to)
}
