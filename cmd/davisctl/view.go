package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"davisboard/internal/importer"
	"davisboard/internal/model"
	"davisboard/internal/table"
)

// viewOptions 由命令行参数生成表格状态
type viewOptions struct {
	months     []string
	additional string
	expand     []string
	expandAll  bool
	sort       string
	desc       bool
	volume     bool
	onlyMine   bool
}

func (o *viewOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.months, "months", nil, `Months to show, e.g. "Sep,Aug" (default: four most recent)`)
	cmd.Flags().StringVar(&o.additional, "additional", string(model.PeriodYoY), `Aggregate column: YTD | YoY | Q1..Q4 | "All months"`)
	cmd.Flags().StringSliceVar(&o.expand, "expand", nil, "Row keys to toggle open/closed (Region or Region__Sub)")
	cmd.Flags().BoolVar(&o.expandAll, "expand-all", false, "Expand every region and sub-region")
	cmd.Flags().StringVar(&o.sort, "sort", "", "Field to sort siblings by (level1, sep2024, yoy...)")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&o.volume, "volume", false, "Show volume sub-columns")
	cmd.Flags().BoolVar(&o.onlyMine, "only-my-mills", false, "Only show mills listed in --my-mills")
}

// events 转换为与 HTTP 接口相同的状态事件序列
func (o *viewOptions) events(rows []model.Row, ranked []table.MonthColumn) ([]table.Event, error) {
	var events []table.Event

	if o.additional != "" && o.additional != string(model.PeriodYoY) {
		events = append(events, table.Event{Type: table.EventChooseAdditional, Option: o.additional})
	}

	if len(o.months) > 0 {
		want := make([]model.Month, 0, len(o.months))
		for _, s := range o.months {
			m, ok := model.ParseMonth(s)
			if !ok {
				return nil, fmt.Errorf("invalid month %q", s)
			}
			want = append(want, m)
		}
		current := table.NewState(ranked).Months
		for _, m := range want {
			if !slices.Contains(current, m) {
				events = append(events, table.Event{Type: table.EventToggleMonth, Month: &m})
			}
		}
		for _, m := range current {
			if !slices.Contains(want, m) {
				events = append(events, table.Event{Type: table.EventToggleMonth, Month: &m})
			}
		}
	}

	expand := o.expand
	if o.expandAll {
		expand = nil
		for _, r := range rows {
			if table.RowLevel(r) == table.LevelMill {
				continue
			}
			if key := table.RowKey(r); key != table.DefaultExpandedKey {
				expand = append(expand, key)
			}
		}
	}
	for _, key := range expand {
		events = append(events, table.Event{Type: table.EventToggleExpand, Key: strings.TrimSpace(key)})
	}

	if o.sort != "" {
		events = append(events, table.Event{Type: table.EventSort, Column: o.sort})
		if o.desc {
			events = append(events, table.Event{Type: table.EventSort, Column: o.sort})
		}
	}
	if o.volume {
		events = append(events, table.Event{Type: table.EventShowVolume, On: true})
	}
	if o.onlyMine {
		events = append(events, table.Event{Type: table.EventShowMyMills, On: true})
	}

	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
	}
	return events, nil
}

// buildView 由已读取的月度环比数据生成视图
func buildView(loaded importer.Loaded, root *rootOptions, o *viewOptions) (table.View, error) {
	if loaded.Widget != model.WidgetMonthOverMonth {
		return table.View{}, fmt.Errorf("file contains %s data, not month_over_month", loaded.Widget)
	}

	ranked := table.ResolveMonthColumns(loaded.Rows)
	events, err := o.events(loaded.Rows, ranked)
	if err != nil {
		return table.View{}, err
	}
	state := table.NewState(ranked).ApplyAll(events, ranked)

	return table.BuildView(loaded.Rows, state, table.BuildOptions{
		Fields:  model.NewFieldTable(root.quarterYear),
		MyMills: root.myMills,
		Ranked:  ranked,
	}), nil
}
