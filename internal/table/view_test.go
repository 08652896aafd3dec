package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"davisboard/internal/model"
	"davisboard/internal/util"
)

func viewFixture() []model.Row {
	return []model.Row{
		row("North Central", "", "",
			"sep2024", 1234.5, "sep2024_change", 0.21, "sep2024_volume", 86300,
			"yoy", -1.5, "yoy_change", -0.5, "q1_2025", 5),
		row("North Central", "Sub1", "", "sep2024", 10),
		row("North Central", "Sub1", "Mill A", "sep2024", 3),
		row("North Central", "Sub1", "Mill B", "sep2024", 4),
		row("South", "", "", "sep2024", 20),
		row("South", "SubS", "", "sep2024", 2),
	}
}

func rowNames(v View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Name)
	}
	return out
}

func cellTexts(cells []Cell) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.Text)
	}
	return out
}

func TestBuildView_Empty(t *testing.T) {
	v := BuildView(nil, NewState(nil), BuildOptions{})
	assert.True(t, v.Empty)
	assert.Empty(t, v.Rows)
	assert.Equal(t, model.DefaultSettings(model.WidgetMonthOverMonth).Title, v.Title)

	v = BuildView(nil, NewState(nil), BuildOptions{Settings: model.Settings{Title: "Custom"}})
	assert.Equal(t, "Custom", v.Title)
	assert.NotEmpty(t, v.Subtitle)
}

func TestBuildView_DefaultStateVisibility(t *testing.T) {
	rows := viewFixture()
	state := NewState(ResolveMonthColumns(rows))
	v := BuildView(rows, state, BuildOptions{})

	require.False(t, v.Empty)
	// 默认只展开 North Central，工厂行的父级未展开
	assert.Equal(t, []string{"North Central", "Sub1", "South"}, rowNames(v))

	for _, r := range v.Rows {
		assert.True(t, r.HasChildren, r.Name)
	}
	assert.True(t, v.Rows[0].Expanded)
	assert.False(t, v.Rows[1].Expanded)
	assert.Equal(t, "North Central", v.Rows[1].ParentKey)
	assert.Equal(t, LevelSubRegion, v.Rows[1].Level)
}

func TestBuildView_ColumnsAndFormattedCells(t *testing.T) {
	rows := viewFixture()
	state := NewState(ResolveMonthColumns(rows))
	v := BuildView(rows, state, BuildOptions{})

	require.Len(t, v.Columns, 2)
	assert.Equal(t, "Sep 2024", v.Columns[0].Label)
	assert.False(t, v.Columns[0].Aggregate)
	assert.Equal(t, "YoY", v.Columns[1].Label)
	assert.True(t, v.Columns[1].Aggregate)
	assert.Equal(t, "yoy", v.Columns[1].ID)

	nc := v.Rows[0]
	assert.Equal(t, []string{"1234.50", "+0.21%", "-1.50", "-0.50%"}, cellTexts(nc.Cells))
	assert.Equal(t, "positive", nc.Cells[1].Tone)
	assert.Equal(t, "negative", nc.Cells[3].Tone)
	require.NotNil(t, nc.Cells[0].Raw)
	assert.InDelta(t, 1234.5, *nc.Cells[0].Raw, 1e-9)

	sub := v.Rows[1]
	assert.Equal(t, []string{"10.00", util.Placeholder, util.Placeholder, util.Placeholder}, cellTexts(sub.Cells))
	assert.True(t, sub.Cells[1].Missing)
}

func TestBuildView_ShowVolumeAddsSubColumn(t *testing.T) {
	rows := viewFixture()
	ranked := ResolveMonthColumns(rows)
	state := NewState(ranked).Apply(Event{Type: EventShowVolume, On: true}, ranked)
	v := BuildView(rows, state, BuildOptions{})

	require.Len(t, v.Columns[0].Headers, 3)
	assert.Equal(t, "Vol", v.Columns[0].Headers[2].Label)
	assert.Equal(t, "sep2024_volume", v.Columns[0].Headers[2].SortKey)
	assert.Len(t, v.Rows[0].Cells, 6)
	assert.Equal(t, "86.3K", v.Rows[0].Cells[2].Text)
}

func TestBuildView_PlaceholderColumnForMonthWithoutData(t *testing.T) {
	rows := viewFixture()
	state := State{Months: []model.Month{model.Jan, model.Sep}, Expanded: []string{"North Central"}}
	v := BuildView(rows, state, BuildOptions{})

	require.Len(t, v.Columns, 2)
	assert.Equal(t, "Sep 2024", v.Columns[0].Label)
	assert.True(t, v.Columns[1].Placeholder)
	assert.Equal(t, "Jan", v.Columns[1].Label)
	assert.Equal(t, []string{util.Placeholder, util.Placeholder}, cellTexts(v.Rows[0].Cells[2:]))
}

func TestBuildView_UsesProvidedRankedColumns(t *testing.T) {
	rows := viewFixture()
	oct, ok := ParseMonthKey("oct2024")
	require.True(t, ok)
	sep, ok := ParseMonthKey("sep2024")
	require.True(t, ok)
	ranked := []MonthColumn{oct, sep}

	state := State{Months: []model.Month{model.Oct, model.Sep}, Expanded: []string{"North Central"}}
	v := BuildView(rows, state, BuildOptions{Ranked: ranked})

	assert.Equal(t, ranked, v.AvailableMonths)
	require.Len(t, v.Columns, 2)
	assert.Equal(t, "Oct 2024", v.Columns[0].Label)
	assert.False(t, v.Columns[0].Placeholder)

	// 未传入时从行数据识别，oct2024 不存在
	v = BuildView(rows, state, BuildOptions{})
	assert.True(t, v.Columns[0].Placeholder)
}

func TestBuildView_QuarterAggregateUsesConfiguredYear(t *testing.T) {
	rows := viewFixture()
	ranked := ResolveMonthColumns(rows)
	state := NewState(ranked).Apply(Event{Type: EventChooseAdditional, Option: "Q1"}, ranked)

	v := BuildView(rows, state, BuildOptions{})
	assert.True(t, v.MonthsLocked)
	last := v.Columns[len(v.Columns)-1]
	assert.Equal(t, "q1_2025", last.ID)
	assert.Equal(t, "5.00", v.Rows[0].Cells[len(v.Rows[0].Cells)-2].Text)

	v = BuildView(rows, state, BuildOptions{Fields: model.NewFieldTable(2026)})
	last = v.Columns[len(v.Columns)-1]
	assert.Equal(t, "q1_2026", last.ID)
	assert.Equal(t, util.Placeholder, v.Rows[0].Cells[len(v.Rows[0].Cells)-2].Text)
}

func TestBuildView_MillsFollowTheirSubRegionOnly(t *testing.T) {
	rows := viewFixture()
	ranked := ResolveMonthColumns(rows)
	state := NewState(ranked).Apply(Event{Type: EventToggleExpand, Key: "North Central__Sub1"}, ranked)

	v := BuildView(rows, state, BuildOptions{})
	assert.Equal(t, []string{"North Central", "Sub1", "Mill A", "Mill B", "South"}, rowNames(v))

	// 收起区域只隐藏子区域；工厂仍按其子区域的展开状态显示
	state = state.Apply(Event{Type: EventToggleExpand, Key: "North Central"}, ranked)
	v = BuildView(rows, state, BuildOptions{})
	assert.Equal(t, []string{"North Central", "Mill A", "Mill B", "South"}, rowNames(v))

	state = state.Apply(Event{Type: EventToggleExpand, Key: "North Central__Sub1"}, ranked)
	v = BuildView(rows, state, BuildOptions{})
	assert.Equal(t, []string{"North Central", "South"}, rowNames(v))
}

func TestBuildView_ShowMyMillsFiltersMills(t *testing.T) {
	rows := viewFixture()
	ranked := ResolveMonthColumns(rows)
	state := NewState(ranked).ApplyAll([]Event{
		{Type: EventToggleExpand, Key: "North Central__Sub1"},
		{Type: EventShowMyMills, On: true},
	}, ranked)

	v := BuildView(rows, state, BuildOptions{MyMills: []string{"Mill B"}})
	assert.Equal(t, []string{"North Central", "Sub1", "Mill B", "South"}, rowNames(v))

	// 未配置工厂列表时不过滤
	v = BuildView(rows, state, BuildOptions{})
	assert.Contains(t, rowNames(v), "Mill A")
}

func TestBuildView_SortMarksHeader(t *testing.T) {
	rows := viewFixture()
	ranked := ResolveMonthColumns(rows)
	state := NewState(ranked).ApplyAll([]Event{
		{Type: EventSort, Column: "sep2024"},
		{Type: EventSort, Column: "sep2024"},
	}, ranked)

	v := BuildView(rows, state, BuildOptions{})
	assert.Equal(t, Desc, v.Columns[0].Headers[0].Sorted)
	assert.Empty(t, v.NameHeader.Sorted)
	assert.Equal(t, []string{"North Central", "Sub1", "South"}, rowNames(v))

	state = state.Apply(Event{Type: EventSort, Column: FieldLevel1}, ranked)
	v = BuildView(rows, state, BuildOptions{})
	assert.Equal(t, Asc, v.NameHeader.Sorted)
	assert.Empty(t, v.Columns[0].Headers[0].Sorted)
}
