package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"davisboard/internal/model"
)

func row(l1, l2, l3 string, kv ...any) model.Row {
	r := model.Row{FieldLevel1: model.String(l1)}
	if l2 != "" {
		r[FieldLevel2] = model.String(l2)
	} else {
		r[FieldLevel2] = model.Absent()
	}
	if l3 != "" {
		r[FieldLevel3] = model.String(l3)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		switch v := kv[i+1].(type) {
		case float64:
			r[kv[i].(string)] = model.Number(v)
		case int:
			r[kv[i].(string)] = model.Number(float64(v))
		case string:
			r[kv[i].(string)] = model.String(v)
		case nil:
			r[kv[i].(string)] = model.Absent()
		}
	}
	return r
}

func names(rows []model.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, DisplayName(r))
	}
	return out
}

func TestRowKeyParentAndLevel(t *testing.T) {
	region := row("North", "", "")
	sub := row("North", "Sub1", "")
	mill := row("North", "Sub1", "Mill1")

	assert.Equal(t, LevelRegion, RowLevel(region))
	assert.Equal(t, LevelSubRegion, RowLevel(sub))
	assert.Equal(t, LevelMill, RowLevel(mill))

	assert.Equal(t, "North", RowKey(region))
	assert.Equal(t, "North__Sub1", RowKey(sub))
	assert.Equal(t, "North__Sub1__Mill1", RowKey(mill))

	_, ok := ParentKey(region)
	assert.False(t, ok)
	pk, ok := ParentKey(sub)
	require.True(t, ok)
	assert.Equal(t, "North", pk)
	pk, ok = ParentKey(mill)
	require.True(t, ok)
	assert.Equal(t, "North__Sub1", pk)

	assert.Equal(t, "Mill1", DisplayName(mill))
	assert.Equal(t, "Sub1", DisplayName(sub))
	assert.Equal(t, "North", DisplayName(region))
}

func TestSortHierarchy_RebuildsNestingWithoutSortField(t *testing.T) {
	a := row("North", "", "")
	b := row("North", "Sub1", "")
	c := row("North", "Sub1", "Mill1")
	d := row("South", "", "")

	for _, input := range [][]model.Row{
		{a, b, c, d},
		{c, a, b, d},
		{b, c, a, d},
		{a, d, c, b},
	} {
		got := SortHierarchy(input, SortSpec{})
		assert.Equal(t, []string{"North", "Sub1", "Mill1", "South"}, names(got))
	}
}

// 未指定排序字段时各层级保持输入中的先后顺序
func TestSortHierarchy_KeepsRegionInputOrderWithoutSortField(t *testing.T) {
	a := row("North", "", "")
	b := row("North", "Sub1", "")
	c := row("North", "Sub1", "Mill1")
	d := row("South", "", "")

	got := SortHierarchy([]model.Row{d, a, b, c}, SortSpec{})
	assert.Equal(t, []string{"South", "North", "Sub1", "Mill1"}, names(got))

	got = SortHierarchy([]model.Row{c, d, b, a}, SortSpec{})
	assert.Equal(t, []string{"South", "North", "Sub1", "Mill1"}, names(got))
}

func TestSortHierarchy_TopLevelDescByLevel1(t *testing.T) {
	input := []model.Row{row("South", "", ""), row("North", "", "")}
	got := SortHierarchy(input, SortSpec{Field: FieldLevel1, Direction: Desc})
	assert.Equal(t, []string{"South", "North"}, names(got))

	got = SortHierarchy(input, SortSpec{Field: FieldLevel1, Direction: Asc})
	assert.Equal(t, []string{"North", "South"}, names(got))
}

func TestSortHierarchy_SortsWithinSiblingGroups(t *testing.T) {
	input := []model.Row{
		row("North", "", "", "sep2024", 10),
		row("North", "SubA", "", "sep2024", 5),
		row("North", "SubB", "", "sep2024", 1),
		row("North", "SubA", "M1", "sep2024", 3),
		row("North", "SubA", "M2", "sep2024", 2),
		row("South", "", "", "sep2024", 20),
	}
	got := SortHierarchy(input, SortSpec{Field: "sep2024", Direction: Asc})
	assert.Equal(t, []string{"North", "SubB", "SubA", "M2", "M1", "South"}, names(got))

	got = SortHierarchy(input, SortSpec{Field: "sep2024", Direction: Desc})
	assert.Equal(t, []string{"South", "North", "SubA", "M1", "M2", "SubB"}, names(got))
}

func TestSortHierarchy_DropsOrphans(t *testing.T) {
	input := []model.Row{
		row("North", "", ""),
		row("West", "X", ""),
		row("North", "Ghost", "Mill9"),
		row("North", "Sub1", ""),
	}
	got := SortHierarchy(input, SortSpec{})
	assert.Equal(t, []string{"North", "Sub1"}, names(got))
}

func TestSortHierarchy_StableOnTies(t *testing.T) {
	input := []model.Row{
		row("R1", "", "", "v", 1),
		row("R2", "", "", "v", 1),
		row("R3", "", "", "v", 0),
		row("R4", "", "", "v", 1),
	}
	got := SortHierarchy(input, SortSpec{Field: "v", Direction: Asc})
	assert.Equal(t, []string{"R3", "R1", "R2", "R4"}, names(got))

	got = SortHierarchy(input, SortSpec{Field: "v", Direction: Desc})
	assert.Equal(t, []string{"R1", "R2", "R4", "R3"}, names(got))
}

func TestSortHierarchy_MissingValuesCompareAsZero(t *testing.T) {
	input := []model.Row{
		row("A", "", "", "v", 5),
		row("B", "", "", "v", nil),
		row("C", "", "", "v", -1),
		row("D", "", "", "v", ""),
	}
	got := SortHierarchy(input, SortSpec{Field: "v", Direction: Asc})
	assert.Equal(t, []string{"C", "B", "D", "A"}, names(got))
}

func TestSortHierarchy_NumericStringsAndMixedValues(t *testing.T) {
	input := []model.Row{
		row("A", "", "", "v", "10"),
		row("B", "", "", "v", "9"),
		row("C", "", "", "v", 2.5),
	}
	got := SortHierarchy(input, SortSpec{Field: "v", Direction: Asc})
	assert.Equal(t, []string{"C", "B", "A"}, names(got))

	// 非数字回落为字符串比较
	mixed := []model.Row{
		row("A", "", "", "v", "beta"),
		row("B", "", "", "v", "Alpha"),
		row("C", "", "", "v", "alpha"),
	}
	got = SortHierarchy(mixed, SortSpec{Field: "v", Direction: Asc})
	assert.Equal(t, []string{"B", "C", "A"}, names(got))
}

func TestSortHierarchy_Idempotent(t *testing.T) {
	input := []model.Row{
		row("South", "", "", "v", 3),
		row("North", "Sub1", "", "v", 1),
		row("North", "", "", "v", 2),
		row("North", "Sub1", "Mill1", "v", 9),
	}
	spec := SortSpec{Field: "v", Direction: Desc}
	first := SortHierarchy(input, spec)
	second := SortHierarchy(input, spec)
	assert.Equal(t, first, second)
}

func TestSortHierarchy_Empty(t *testing.T) {
	assert.Empty(t, SortHierarchy(nil, SortSpec{}))
	assert.Empty(t, SortHierarchy(nil, SortSpec{Field: "level1", Direction: Desc}))
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, 0, compareValues(model.Absent(), model.Number(0)))
	assert.Equal(t, 0, compareValues(model.String(""), model.Number(0)))
	assert.Equal(t, -1, compareValues(model.Number(1), model.String("2")))
	assert.Equal(t, 1, compareValues(model.Bool(true), model.Number(0)))
	assert.Equal(t, 1, compareValues(model.String("b"), model.String("a")))
	assert.Equal(t, -1, compareValues(model.String("B"), model.String("a")))
}
