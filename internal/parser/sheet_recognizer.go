package parser

import (
	"davisboard/internal/model"
	"davisboard/internal/table"
)

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct{}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{}
}

// Recognize 根据表头识别 Sheet 对应的组件
func (r *SheetRecognizer) Recognize(sheetName string, columnNames []string) SheetRecognitionResult {
	normalized := make([]string, len(columnNames))
	for i, col := range columnNames {
		normalized[i] = NormalizeColumnName(col)
	}

	if result := r.recognizeSpreads(normalized); result.Confidence >= 1 {
		result.SheetName = sheetName
		return result
	}
	if result := r.recognizeMonthOverMonth(normalized); result.Confidence >= 0.5 {
		result.SheetName = sheetName
		return result
	}
	return SheetRecognitionResult{SheetName: sheetName}
}

// recognizeSpreads 三个字段齐全才认为是价差表
func (r *SheetRecognizer) recognizeSpreads(columns []string) SheetRecognitionResult {
	keyFields := []string{"region_a", "region_b", "spread"}
	return SheetRecognitionResult{
		Widget:     model.WidgetMarketSpreads,
		Confidence: matchRatio(columns, keyFields),
	}
}

// recognizeMonthOverMonth 需要 level1 与至少一个月份列
func (r *SheetRecognizer) recognizeMonthOverMonth(columns []string) SheetRecognitionResult {
	score := 0.0
	if matchRatio(columns, []string{"level1"}) == 1 {
		score += 0.5
	}
	for _, col := range columns {
		if _, ok := table.ParseMonthKey(col); ok {
			score += 0.5
			break
		}
	}
	return SheetRecognitionResult{Widget: model.WidgetMonthOverMonth, Confidence: score}
}

func matchRatio(columns, keyFields []string) float64 {
	matched := 0
	for _, field := range keyFields {
		for _, col := range columns {
			if col == field {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keyFields))
}
