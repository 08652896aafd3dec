package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"davisboard/internal/model"
	"davisboard/internal/parser"
)

// Loaded 文件解析结果
type Loaded struct {
	Rows   []model.Row
	Widget model.WidgetType
	Report *parser.ImportReport
}

// LoadFile 读取 .json 或 .xlsx 文件（不落库）
func LoadFile(path string, widget model.WidgetType) (Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return load(f, filepath.Base(path), widget, nil)
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// load 按扩展名选择解析方式；emit 可为 nil
func load(r io.Reader, filename string, widget model.WidgetType, emit func(ProgressEvent)) (Loaded, error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	if isJSON(filename) {
		return loadJSON(r, filename, widget)
	}

	file, err := excelize.OpenReader(r)
	if err != nil {
		return Loaded{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()
	return loadWorkbook(file, filename, widget, emit)
}

func loadJSON(r io.Reader, filename string, widget model.WidgetType) (Loaded, error) {
	start := time.Now()
	rows, err := parser.ParseJSON(r)
	if err != nil {
		return Loaded{}, err
	}
	if widget == "" {
		widget = guessWidget(rows)
	}
	report := &parser.ImportReport{
		Filename:       filename,
		Widget:         widget,
		TotalSheets:    1,
		ImportedSheets: 1,
		TotalRows:      len(rows),
		ImportedRows:   len(rows),
		Sheets: []parser.ParseResult{{
			SheetName:    filename,
			Widget:       widget,
			Status:       parser.StatusImported,
			ImportedRows: len(rows),
			Duration:     time.Since(start),
		}},
	}
	report.Duration = time.Since(start)
	return Loaded{Rows: rows, Widget: widget, Report: report}, nil
}

// guessWidget JSON 数据没有表头，取第一行字段识别
func guessWidget(rows []model.Row) model.WidgetType {
	if len(rows) == 0 {
		return model.WidgetMonthOverMonth
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	res := parser.NewSheetRecognizer().Recognize("", keys)
	if res.Recognized() {
		return res.Widget
	}
	return model.WidgetMonthOverMonth
}

// loadWorkbook 合并与第一个已识别 Sheet 同类型的所有 Sheet
func loadWorkbook(file *excelize.File, filename string, widget model.WidgetType, emit func(ProgressEvent)) (Loaded, error) {
	start := time.Now()
	recognizer := parser.NewSheetRecognizer()
	sheetList := file.GetSheetList()
	report := &parser.ImportReport{
		Filename:    filename,
		TotalSheets: len(sheetList),
		Sheets:      []parser.ParseResult{},
	}

	emit(newEvent(EventInfo, fmt.Sprintf("发现 %d 个 Sheet", len(sheetList)), map[string]any{
		"total_sheets": len(sheetList),
	}))

	var rows []model.Row
	matched := 0
	for _, sheetName := range sheetList {
		emit(newEvent(EventSheetStart, fmt.Sprintf("正在解析 Sheet: %s", sheetName), map[string]string{
			"sheet_name": sheetName,
		}))

		records, err := file.GetRows(sheetName)
		if err != nil {
			recordSheetResult(report, parser.ParseResult{
				SheetName: sheetName,
				Status:    parser.StatusError,
				Errors:    []string{fmt.Sprintf("读取 Sheet 失败: %v", err)},
			})
			continue
		}
		var headers []string
		if len(records) > 0 {
			headers = records[0]
		}
		recognition := recognizer.Recognize(sheetName, headers)
		if !recognition.Recognized() || (widget != "" && recognition.Widget != widget) {
			recordSheetResult(report, parser.ParseResult{
				SheetName: sheetName,
				Widget:    recognition.Widget,
				Status:    parser.StatusSkipped,
				Errors:    []string{"无法识别 Sheet 类型"},
			})
			emit(newEvent(EventWarning, fmt.Sprintf("跳过 Sheet: %s", sheetName), nil))
			continue
		}
		widget = recognition.Widget
		matched++

		sheetRows, result := parser.ParseSheet(sheetName, records)
		result.Widget = widget
		recordSheetResult(report, result)
		rows = append(rows, sheetRows...)

		emit(newEvent(EventSheetDone, fmt.Sprintf("Sheet \"%s\" 解析完成: %d 行", sheetName, len(sheetRows)), map[string]any{
			"sheet_name":    sheetName,
			"widget":        widget,
			"imported_rows": len(sheetRows),
		}))
	}

	if matched == 0 {
		return Loaded{Report: report}, fmt.Errorf("no recognizable sheet in %s", filename)
	}
	report.Widget = widget
	report.Duration = time.Since(start)
	return Loaded{Rows: rows, Widget: widget, Report: report}, nil
}

// recordSheetResult 汇总 Sheet 结果
func recordSheetResult(report *parser.ImportReport, result parser.ParseResult) {
	report.Sheets = append(report.Sheets, result)

	switch result.Status {
	case parser.StatusImported:
		report.ImportedSheets++
		report.ImportedRows += result.ImportedRows
	case parser.StatusSkipped:
		report.SkippedSheets++
	}
	report.TotalRows += result.ImportedRows + result.SkippedRows
}
