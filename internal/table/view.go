package table

import (
	"slices"

	"davisboard/internal/model"
	"davisboard/internal/util"
)

// DefaultQuarterYear 季度汇总字段的默认年份（q1_2025）
const DefaultQuarterYear = 2025

// Header 可排序表头
type Header struct {
	Label   string        `json:"label"`
	SortKey string        `json:"sortKey"`
	Sorted  SortDirection `json:"sorted,omitempty"`
}

// Column 月份列或汇总列；每列包含 值 / Chg / (Vol) 三个子表头
type Column struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Aggregate   bool     `json:"aggregate,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
	Headers     []Header `json:"headers"`

	fields map[model.Metric]string
}

// Cell 单元格
type Cell struct {
	Text    string   `json:"text"`
	Raw     *float64 `json:"raw,omitempty"`
	Tone    string   `json:"tone,omitempty"`
	Missing bool     `json:"missing,omitempty"`
}

// ViewRow 渲染行
type ViewRow struct {
	Key         string `json:"key"`
	ParentKey   string `json:"parentKey,omitempty"`
	Level       Level  `json:"level"`
	Name        string `json:"name"`
	HasChildren bool   `json:"hasChildren"`
	Expanded    bool   `json:"expanded"`
	Cells       []Cell `json:"cells"`
}

// View 渲染所需的完整表格
type View struct {
	Title           string        `json:"title"`
	Subtitle        string        `json:"subtitle"`
	Empty           bool          `json:"empty"`
	NameHeader      Header        `json:"nameHeader"`
	Columns         []Column      `json:"columns"`
	Rows            []ViewRow     `json:"rows"`
	AvailableMonths []MonthColumn `json:"availableMonths"`
	MonthsLocked    bool          `json:"monthsLocked"`
	State           State         `json:"state"`
}

// BuildOptions 视图构建参数
type BuildOptions struct {
	Settings model.Settings
	Fields   *model.FieldTable
	MyMills  []string
	Ranked   []MonthColumn // 已排序月份列；为 nil 时由 rows 重新识别
}

// BuildView 由原始行与状态生成视图；空数据返回 Empty=true
func BuildView(rows []model.Row, state State, opts BuildOptions) View {
	settings := opts.Settings.Merge(model.DefaultSettings(model.WidgetMonthOverMonth))
	view := View{
		Title:    settings.Title,
		Subtitle: settings.Subtitle,
		State:    state,
	}
	if len(rows) == 0 {
		view.Empty = true
		return view
	}

	fields := opts.Fields
	if fields == nil {
		fields = model.NewFieldTable(DefaultQuarterYear)
	}

	ranked := opts.Ranked
	if ranked == nil {
		ranked = ResolveMonthColumns(rows)
	}
	view.AvailableMonths = ranked
	view.MonthsLocked = state.monthsLocked()
	view.NameHeader = header("Region / Sub Region / Mill", FieldLevel1, state.Sort)
	view.Columns = buildColumns(ranked, state, fields)

	sorted := SortHierarchy(rows, state.Sort)
	parents := make(map[string]bool, len(sorted))
	for _, r := range sorted {
		if pk, ok := ParentKey(r); ok {
			parents[pk] = true
		}
	}

	for _, r := range sorted {
		if !rowVisible(r, state, opts.MyMills) {
			continue
		}
		key := RowKey(r)
		pk, _ := ParentKey(r)
		vr := ViewRow{
			Key:         key,
			ParentKey:   pk,
			Level:       RowLevel(r),
			Name:        DisplayName(r),
			HasChildren: parents[key],
			Expanded:    state.IsExpanded(key),
		}
		for _, col := range view.Columns {
			vr.Cells = append(vr.Cells, columnCells(r, col, state.ShowVolume)...)
		}
		view.Rows = append(view.Rows, vr)
	}
	return view
}

func buildColumns(ranked []MonthColumn, state State, fields *model.FieldTable) []Column {
	var cols []Column
	for _, m := range state.EffectiveMonths(ranked) {
		mc, ok := FindMonth(ranked, m)
		if !ok {
			cols = append(cols, Column{
				ID:          m.Key(),
				Label:       m.String(),
				Placeholder: true,
				Headers:     metricHeaders(m.String(), nil, state),
			})
			continue
		}
		f := map[model.Metric]string{}
		for _, k := range model.Metrics() {
			f[k] = mc.Field(k)
		}
		cols = append(cols, Column{
			ID:      mc.FullKey,
			Label:   mc.Label(),
			Headers: metricHeaders(mc.Label(), f, state),
			fields:  f,
		})
	}

	if state.Additional != "" {
		f := map[model.Metric]string{}
		for _, k := range model.Metrics() {
			if name, ok := fields.Field(state.Additional, k); ok {
				f[k] = name
			}
		}
		label := string(state.Additional)
		cols = append(cols, Column{
			ID:        f[model.MetricValue],
			Label:     label,
			Aggregate: true,
			Headers:   metricHeaders(label, f, state),
			fields:    f,
		})
	}
	return cols
}

func metricHeaders(label string, fields map[model.Metric]string, state State) []Header {
	hs := []Header{
		header(label, fields[model.MetricValue], state.Sort),
		header("Chg", fields[model.MetricChange], state.Sort),
	}
	if state.ShowVolume {
		hs = append(hs, header("Vol", fields[model.MetricVolume], state.Sort))
	}
	return hs
}

func header(label, sortKey string, sort SortSpec) Header {
	h := Header{Label: label, SortKey: sortKey}
	if sortKey != "" && sort.Field == sortKey {
		h.Sorted = sort.Direction
	}
	return h
}

// rowVisible 区域行始终显示；子区域要求区域展开，工厂只要求所属子区域展开
func rowVisible(r model.Row, state State, myMills []string) bool {
	pk, ok := ParentKey(r)
	if !ok {
		return true
	}
	if !state.IsExpanded(pk) {
		return false
	}
	if RowLevel(r) == LevelMill && state.ShowMyMills && len(myMills) > 0 && !slices.Contains(myMills, DisplayName(r)) {
		return false
	}
	return true
}

func columnCells(r model.Row, col Column, showVolume bool) []Cell {
	cells := []Cell{
		numberCell(r, col.fields[model.MetricValue], util.FormatValue),
		changeCell(r, col.fields[model.MetricChange]),
	}
	if showVolume {
		cells = append(cells, numberCell(r, col.fields[model.MetricVolume], util.FormatVolume))
	}
	return cells
}

func rawNumber(r model.Row, field string) (float64, bool) {
	if field == "" {
		return 0, false
	}
	v := r.Get(field)
	if !v.HasData() {
		return 0, false
	}
	return v.Float()
}

func numberCell(r model.Row, field string, format func(float64) string) Cell {
	f, ok := rawNumber(r, field)
	if !ok {
		return Cell{Text: util.Placeholder, Missing: true}
	}
	return Cell{Text: format(f), Raw: &f}
}

func changeCell(r model.Row, field string) Cell {
	f, ok := rawNumber(r, field)
	if !ok {
		return Cell{Text: util.Placeholder, Missing: true}
	}
	return Cell{Text: util.FormatChange(f), Raw: &f, Tone: util.ChangeTone(f)}
}
