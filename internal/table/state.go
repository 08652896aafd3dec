package table

import (
	"cmp"
	"fmt"
	"slices"

	"davisboard/internal/model"
)

// AllMonthsOption “全部月份”选项
const AllMonthsOption = "All months"

// DefaultExpandedKey 初始展开的区域
const DefaultExpandedKey = "North Central"

// State 表格视图状态。所有变更通过 Apply(Event) 产生新值，不原地修改。
type State struct {
	Months      []model.Month `json:"months"`
	Additional  model.Period  `json:"additional"`
	Sort        SortSpec      `json:"sort"`
	Expanded    []string      `json:"expanded"`
	ShowVolume  bool          `json:"showVolume"`
	ShowMyMills bool          `json:"showMyMills"`
}

// NewState 初始状态：前 4 个月、YoY、默认展开 North Central
func NewState(ranked []MonthColumn) State {
	return State{
		Months:     defaultMonths(ranked),
		Additional: model.PeriodYoY,
		Sort:       SortSpec{Direction: Asc},
		Expanded:   []string{DefaultExpandedKey},
	}
}

func defaultMonths(ranked []MonthColumn) []model.Month {
	n := min(DefaultSelectedCount, len(ranked))
	return dedupeMonths(Months(ranked[:n]))
}

func dedupeMonths(ms []model.Month) []model.Month {
	out := make([]model.Month, 0, len(ms))
	for _, m := range ms {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

// IsExpanded 节点是否展开
func (s State) IsExpanded(key string) bool {
	return slices.Contains(s.Expanded, key)
}

// monthsLocked 季度模式下月份勾选被禁用
func (s State) monthsLocked() bool {
	return s.Additional.IsQuarter()
}

// EffectiveMonths 实际展示的月份：选择为空时回落到前 4 个月；
// 按月份序号倒序（不考虑年份）
func (s State) EffectiveMonths(ranked []MonthColumn) []model.Month {
	months := slices.Clone(s.Months)
	if len(months) == 0 {
		months = defaultMonths(ranked)
	}
	slices.SortStableFunc(months, func(a, b model.Month) int { return cmp.Compare(b, a) })
	return months
}

// EventType 状态事件类型
type EventType string

const (
	EventToggleMonth      EventType = "toggle_month"
	EventChooseAdditional EventType = "choose_additional"
	EventSort             EventType = "sort"
	EventToggleExpand     EventType = "toggle_expand"
	EventShowVolume       EventType = "show_volume"
	EventShowMyMills      EventType = "show_my_mills"
	EventReset            EventType = "reset"
)

// Event 状态事件
type Event struct {
	Type   EventType    `json:"type"`
	Month  *model.Month `json:"month,omitempty"`
	Option string       `json:"option,omitempty"`
	Column string       `json:"column,omitempty"`
	Key    string       `json:"key,omitempty"`
	On     bool         `json:"on,omitempty"`
}

// Validate 检查事件参数
func (e Event) Validate() error {
	switch e.Type {
	case EventToggleMonth:
		if e.Month == nil || !e.Month.Valid() {
			return fmt.Errorf("toggle_month requires a valid month")
		}
	case EventChooseAdditional:
		if e.Option == AllMonthsOption {
			return nil
		}
		if _, ok := model.ParsePeriod(e.Option); !ok {
			return fmt.Errorf("unknown additional column %q", e.Option)
		}
	case EventSort:
		if e.Column == "" {
			return fmt.Errorf("sort column is required")
		}
	case EventToggleExpand:
		if e.Key == "" {
			return fmt.Errorf("expand key is required")
		}
	case EventShowVolume, EventShowMyMills, EventReset:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// Apply 应用事件，返回新状态；ranked 为当前数据的已排序月份列
func (s State) Apply(e Event, ranked []MonthColumn) State {
	next := s.clone()
	switch e.Type {
	case EventToggleMonth:
		if e.Month == nil || next.monthsLocked() {
			return next
		}
		if i := slices.Index(next.Months, *e.Month); i >= 0 {
			next.Months = slices.Delete(next.Months, i, i+1)
		} else {
			next.Months = append(next.Months, *e.Month)
		}
	case EventChooseAdditional:
		if e.Option == AllMonthsOption {
			next.Months = dedupeMonths(Months(ranked))
			next.Additional = ""
			break
		}
		p, ok := model.ParsePeriod(e.Option)
		if !ok {
			return next
		}
		if p.IsQuarter() {
			next.Months = p.QuarterMonths()
		}
		next.Additional = p
	case EventSort:
		if next.Sort.Field == e.Column {
			next.Sort.Direction = next.Sort.Direction.Toggle()
		} else {
			next.Sort = SortSpec{Field: e.Column, Direction: Asc}
		}
	case EventToggleExpand:
		if i := slices.Index(next.Expanded, e.Key); i >= 0 {
			next.Expanded = slices.Delete(next.Expanded, i, i+1)
		} else {
			next.Expanded = append(next.Expanded, e.Key)
		}
	case EventShowVolume:
		next.ShowVolume = e.On
	case EventShowMyMills:
		next.ShowMyMills = e.On
	case EventReset:
		return NewState(ranked)
	}
	return next
}

// ApplyAll 依次应用多个事件
func (s State) ApplyAll(events []Event, ranked []MonthColumn) State {
	for _, e := range events {
		s = s.Apply(e, ranked)
	}
	return s
}

func (s State) clone() State {
	next := s
	next.Months = slices.Clone(s.Months)
	next.Expanded = slices.Clone(s.Expanded)
	return next
}
