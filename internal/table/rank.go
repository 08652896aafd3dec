package table

import (
	"cmp"
	"slices"

	"davisboard/internal/model"
)

// MaxMonthColumns 展示窗口上限（最近 12 个月）
const MaxMonthColumns = 12

// DefaultSelectedCount 默认选中的月份数
const DefaultSelectedCount = 4

// RankMonthColumns 按年倒序、月倒序排列并截取前 12 个
func RankMonthColumns(cols []MonthColumn) []MonthColumn {
	ranked := slices.Clone(cols)
	slices.SortStableFunc(ranked, compareRecency)
	if len(ranked) > MaxMonthColumns {
		ranked = ranked[:MaxMonthColumns]
	}
	return ranked
}

// ResolveMonthColumns 识别并排序，等价于 RankMonthColumns(DetectMonthColumns(rows))
func ResolveMonthColumns(rows []model.Row) []MonthColumn {
	return RankMonthColumns(DetectMonthColumns(rows))
}

func compareRecency(a, b MonthColumn) int {
	if c := cmp.Compare(b.Year, a.Year); c != 0 {
		return c
	}
	return cmp.Compare(b.Month, a.Month)
}

// Months 排序后列的月份（可能含重复月份，来自不同年份）
func Months(cols []MonthColumn) []model.Month {
	out := make([]model.Month, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Month)
	}
	return out
}

// FindMonth 返回该月份最近的一列
func FindMonth(ranked []MonthColumn, m model.Month) (MonthColumn, bool) {
	for _, c := range ranked {
		if c.Month == m {
			return c, true
		}
	}
	return MonthColumn{}, false
}
