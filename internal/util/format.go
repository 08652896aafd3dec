package util

import (
	"github.com/shopspring/decimal"
)

// Placeholder 缺失值占位符
const Placeholder = "—"

// FormatValue 保留两位小数
func FormatValue(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

// FormatChange 格式化环比变化：+1.23% / -1.23%
func FormatChange(change float64) string {
	formatted := decimal.NewFromFloat(change).Abs().StringFixed(2) + "%"
	if change >= 0 {
		return "+" + formatted
	}
	return "-" + formatted
}

// ChangeTone 变化方向：positive / negative / neutral
func ChangeTone(change float64) string {
	switch {
	case change > 0:
		return "positive"
	case change < 0:
		return "negative"
	}
	return "neutral"
}

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatVolume 量级缩写：1.2M / 86.3K
func FormatVolume(volume float64) string {
	d := decimal.NewFromFloat(volume)
	switch {
	case d.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(1) + "K"
	}
	return d.String()
}

// FormatSpread 价差绝对值，两位小数
func FormatSpread(spread float64) string {
	return decimal.NewFromFloat(spread).Abs().StringFixed(2)
}

// FormatSpreadChange 价差变化取整，正数带 +
func FormatSpreadChange(change float64) string {
	s := decimal.NewFromFloat(change).StringFixed(0)
	if change > 0 {
		return "+" + s
	}
	return s
}
