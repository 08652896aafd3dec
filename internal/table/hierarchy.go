package table

import (
	"slices"

	"davisboard/internal/model"
)

// 层级字段
const (
	FieldLevel1 = "level1"
	FieldLevel2 = "level2"
	FieldLevel3 = "level3"
)

const keySeparator = "__"

// Level 层级：0 区域，1 子区域，2 工厂
type Level int

const (
	LevelRegion Level = iota
	LevelSubRegion
	LevelMill
)

func levelText(r model.Row, field string) string {
	v := r.Get(field)
	if !v.Truthy() {
		return ""
	}
	return v.Text()
}

// RowLevel 行的层级
func RowLevel(r model.Row) Level {
	if r.Get(FieldLevel3).Truthy() {
		return LevelMill
	}
	if r.Get(FieldLevel2).Truthy() {
		return LevelSubRegion
	}
	return LevelRegion
}

// RowKey 行的唯一键：level1 / level1__level2 / level1__level2__level3
func RowKey(r model.Row) string {
	l1, l2, l3 := levelText(r, FieldLevel1), levelText(r, FieldLevel2), levelText(r, FieldLevel3)
	switch {
	case l3 != "":
		return l1 + keySeparator + l2 + keySeparator + l3
	case l2 != "":
		return l1 + keySeparator + l2
	}
	return l1
}

// ParentKey 父节点键；区域行没有父节点
func ParentKey(r model.Row) (string, bool) {
	l1, l2, l3 := levelText(r, FieldLevel1), levelText(r, FieldLevel2), levelText(r, FieldLevel3)
	switch {
	case l3 != "":
		return l1 + keySeparator + l2, true
	case l2 != "":
		return l1, true
	}
	return "", false
}

// DisplayName 最深一级的非空名称
func DisplayName(r model.Row) string {
	for _, f := range []string{FieldLevel3, FieldLevel2, FieldLevel1} {
		if s := levelText(r, f); s != "" {
			return s
		}
	}
	return ""
}

// SortHierarchy 按 区域 → 子区域 → 工厂 重建先序顺序，同级内按 spec 排序（稳定）。
// 找不到父节点的行被丢弃。
func SortHierarchy(rows []model.Row, spec SortSpec) []model.Row {
	var regions, subRegions, mills []model.Row
	for _, r := range rows {
		switch RowLevel(r) {
		case LevelRegion:
			regions = append(regions, r)
		case LevelSubRegion:
			subRegions = append(subRegions, r)
		case LevelMill:
			mills = append(mills, r)
		}
	}

	out := make([]model.Row, 0, len(rows))
	for _, region := range sortSiblings(regions, spec) {
		out = append(out, region)
		regionKey := levelText(region, FieldLevel1)

		children := filterRows(subRegions, func(r model.Row) bool {
			return levelText(r, FieldLevel1) == regionKey
		})
		for _, sub := range sortSiblings(children, spec) {
			out = append(out, sub)
			subKey := levelText(sub, FieldLevel2)

			leaves := filterRows(mills, func(r model.Row) bool {
				return levelText(r, FieldLevel1) == regionKey && levelText(r, FieldLevel2) == subKey
			})
			out = append(out, sortSiblings(leaves, spec)...)
		}
	}
	return out
}

func sortSiblings(rows []model.Row, spec SortSpec) []model.Row {
	if spec.Field == "" {
		return rows
	}
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, spec.compare)
	return sorted
}

func filterRows(rows []model.Row, keep func(model.Row) bool) []model.Row {
	var out []model.Row
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
