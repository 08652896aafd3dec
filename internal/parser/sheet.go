package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"davisboard/internal/model"
)

// ParseSheet 将工作表记录转换为数据行；第一行为表头
func ParseSheet(sheetName string, records [][]string) ([]model.Row, ParseResult) {
	start := time.Now()
	result := ParseResult{SheetName: sheetName, Status: StatusImported}
	if len(records) == 0 {
		result.Status = StatusSkipped
		result.Errors = append(result.Errors, "empty sheet")
		result.Duration = time.Since(start)
		return nil, result
	}

	headers := make([]string, len(records[0]))
	seen := make(map[string]bool, len(headers))
	for i, h := range records[0] {
		name := NormalizeColumnName(h)
		if name == "" || seen[name] {
			if name != "" {
				result.Errors = append(result.Errors, fmt.Sprintf("duplicate column %q ignored", name))
			}
			continue
		}
		seen[name] = true
		headers[i] = name
	}

	var rows []model.Row
	for _, record := range records[1:] {
		if IsBlankRecord(record) {
			result.SkippedRows++
			continue
		}
		row := make(model.Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			row[h] = ParseCell(cell)
		}
		rows = append(rows, row)
	}
	result.ImportedRows = len(rows)
	if len(rows) == 0 {
		result.Status = StatusSkipped
	}
	result.Duration = time.Since(start)
	return rows, result
}

// ParseJSON 读取 JSON 数据行：顶层数组，或带 rows / data 数组的对象
func ParseJSON(r io.Reader) ([]model.Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty json document")
	}

	if raw[0] == '{' {
		var wrapper struct {
			Rows []model.Row `json:"rows"`
			Data []model.Row `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("decode json rows: %w", err)
		}
		if wrapper.Rows != nil {
			return wrapper.Rows, nil
		}
		return wrapper.Data, nil
	}

	var rows []model.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	return rows, nil
}
