package table

import (
	"regexp"
	"slices"
	"strconv"

	"davisboard/internal/logging"
	"davisboard/internal/model"
)

var monthPattern = regexp.MustCompile(`^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)(\d{4})$`)

// ParseMonthKey 解析 {month}{year} 形式的字段名
func ParseMonthKey(key string) (MonthColumn, bool) {
	m := monthPattern.FindStringSubmatch(key)
	if m == nil {
		return MonthColumn{}, false
	}
	month, _ := model.ParseMonth(m[1])
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return MonthColumn{}, false
	}
	return MonthColumn{Month: month, Year: year, FullKey: m[1] + m[2]}, true
}

// DetectMonthColumns 按首行字段名识别月份列，仅保留至少一行有数据的列。
// 返回结果未排序。
func DetectMonthColumns(rows []model.Row) []MonthColumn {
	log := logging.Logger()
	if len(rows) == 0 {
		log.Debug("no rows to detect month columns")
		return nil
	}

	// 首行字段名排序后遍历，保证结果稳定
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	seen := make(map[string]bool)
	var out []MonthColumn
	for _, key := range keys {
		col, ok := ParseMonthKey(key)
		if !ok {
			continue
		}
		hasData := columnHasData(rows, col.FullKey)
		log.Debug("month column candidate", "key", col.FullKey, "hasData", hasData)
		if hasData && !seen[col.FullKey] {
			seen[col.FullKey] = true
			out = append(out, col)
		}
	}
	return out
}

func columnHasData(rows []model.Row, field string) bool {
	for _, r := range rows {
		if r.Get(field).HasData() {
			return true
		}
	}
	return false
}
