package parser

import (
	"time"

	"davisboard/internal/model"
)

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string           `json:"sheetName"`
	Widget     model.WidgetType `json:"widget,omitempty"` // 为空表示无法识别
	Confidence float64          `json:"confidence"`       // 置信度 0-1
}

// Recognized 是否识别为已知组件
func (r SheetRecognitionResult) Recognized() bool { return r.Widget != "" }

// Sheet 解析状态
const (
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusError    = "error"
)

// ParseResult 单个 Sheet 的解析结果
type ParseResult struct {
	SheetName    string           `json:"sheetName"`
	Widget       model.WidgetType `json:"widget,omitempty"`
	Status       string           `json:"status"`
	ImportedRows int              `json:"importedRows"`
	SkippedRows  int              `json:"skippedRows"`
	Errors       []string         `json:"errors,omitempty"`
	Duration     time.Duration    `json:"duration"`
}

// ImportReport 导入报告
type ImportReport struct {
	Filename       string           `json:"filename"`
	DatasetID      string           `json:"datasetId,omitempty"`
	Widget         model.WidgetType `json:"widget,omitempty"`
	TotalSheets    int              `json:"totalSheets"`
	ImportedSheets int              `json:"importedSheets"`
	SkippedSheets  int              `json:"skippedSheets"`
	TotalRows      int              `json:"totalRows"`
	ImportedRows   int              `json:"importedRows"`
	ErrorRows      int              `json:"errorRows"`
	Duration       time.Duration    `json:"duration"`
	Sheets         []ParseResult    `json:"sheets"`
}
