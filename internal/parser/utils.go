package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"davisboard/internal/model"
)

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名：去除首尾空白，小写，内部空白替换为下划线
// "Sep2024" → "sep2024"，"Region A" → "region_a"
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = spaceRun.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}

// ParseCell 将单元格文本转换为值：空白为缺失，数字（允许千分位）为数值，
// TRUE/FALSE 为布尔，其余保持字符串
func ParseCell(text string) model.Value {
	s := strings.TrimSpace(text)
	if s == "" {
		return model.Absent()
	}
	if f, ok := parseNumber(s); ok {
		return model.Number(f)
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return model.Bool(true)
	case "FALSE":
		return model.Bool(false)
	}
	return model.String(s)
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsBlankRecord 整行为空
func IsBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
