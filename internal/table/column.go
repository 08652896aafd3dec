package table

import (
	"fmt"

	"davisboard/internal/model"
)

// MonthColumn 从数据中识别出的月份列（如 sep2024）
type MonthColumn struct {
	Month   model.Month `json:"month"`
	Year    int         `json:"year"`
	FullKey string      `json:"fullKey"`
}

// Display 展示名（Sep）
func (c MonthColumn) Display() string { return c.Month.String() }

// Label 表头文字（Sep 2024）
func (c MonthColumn) Label() string { return fmt.Sprintf("%s %d", c.Month, c.Year) }

// Field 伴随字段名
func (c MonthColumn) Field(k model.Metric) string { return model.FieldName(c.FullKey, k) }
