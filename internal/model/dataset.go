package model

import "time"

// WidgetType 组件类型
type WidgetType string

const (
	WidgetMonthOverMonth WidgetType = "month_over_month"
	WidgetMarketSpreads  WidgetType = "market_spreads"
)

// Valid 是否为已知组件
func (w WidgetType) Valid() bool {
	return w == WidgetMonthOverMonth || w == WidgetMarketSpreads
}

// Settings 组件展示设置
type Settings struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// DefaultSettings 各组件默认标题
func DefaultSettings(w WidgetType) Settings {
	switch w {
	case WidgetMarketSpreads:
		return Settings{
			Title:    "Market spreads",
			Subtitle: "Davis Insight regional spreads for #1 Busheling as of February 2025",
		}
	default:
		return Settings{
			Title:    "Industry commodity index trends by region",
			Subtitle: "Davis Insight weighted index changes by region for selected commodities, from 2025, in USD/mt.",
		}
	}
}

// Merge 空字段回落到默认值
func (s Settings) Merge(def Settings) Settings {
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.Subtitle == "" {
		s.Subtitle = def.Subtitle
	}
	return s
}

// Dataset 已上传的数据集元信息
type Dataset struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Widget     WidgetType `json:"widget"`
	Version    int        `json:"version"`
	RowCount   int        `json:"rowCount"`
	SourceFile string     `json:"sourceFile"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
