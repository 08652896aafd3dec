package table

import (
	"cmp"
	"strings"

	"davisboard/internal/model"
)

// SortDirection 排序方向
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Toggle 反转方向
func (d SortDirection) Toggle() SortDirection {
	if d == Desc {
		return Asc
	}
	return Desc
}

// SortSpec 排序字段与方向；Field 为空表示保持输入顺序
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// compareValues 缺失或空串视为 0；两侧都能解析为数字时按数值比较，否则按字符串比较
func compareValues(a, b model.Value) int {
	if !a.HasData() {
		a = model.Number(0)
	}
	if !b.HasData() {
		b = model.Number(0)
	}
	af, aok := a.Float()
	bf, bok := b.Float()
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(a.Text(), b.Text())
}

func (s SortSpec) compare(a, b model.Row) int {
	c := compareValues(a.Get(s.Field), b.Get(s.Field))
	if s.Direction == Desc {
		return -c
	}
	return c
}
