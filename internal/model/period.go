package model

import (
	"fmt"
	"strings"
)

// Month 月份（jan=0 ... dec=11）
type Month int

const (
	Jan Month = iota
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

var monthKeys = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var monthDisplay = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// AllMonths 规范顺序的 12 个月
func AllMonths() []Month {
	out := make([]Month, 12)
	for i := range out {
		out[i] = Month(i)
	}
	return out
}

// Valid 是否为合法月份
func (m Month) Valid() bool { return m >= Jan && m <= Dec }

// Key 小写缩写，用于字段名（sep）
func (m Month) Key() string {
	if !m.Valid() {
		return ""
	}
	return monthKeys[m]
}

// String 展示名（Sep）
func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthDisplay[m]
}

// ParseMonth 解析 "sep" / "Sep" / "SEP"
func ParseMonth(s string) (Month, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range monthKeys {
		if k == s {
			return Month(i), true
		}
	}
	return 0, false
}

// MarshalText 以展示名序列化
func (m Month) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid month %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText 接受任意大小写的三字母缩写
func (m *Month) UnmarshalText(b []byte) error {
	v, ok := ParseMonth(string(b))
	if !ok {
		return fmt.Errorf("invalid month %q", string(b))
	}
	*m = v
	return nil
}

// Period 汇总列周期
type Period string

const (
	PeriodYTD Period = "YTD"
	PeriodYoY Period = "YoY"
	PeriodQ1  Period = "Q1"
	PeriodQ2  Period = "Q2"
	PeriodQ3  Period = "Q3"
	PeriodQ4  Period = "Q4"
)

// Periods 所有汇总周期
func Periods() []Period {
	return []Period{PeriodYTD, PeriodYoY, PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4}
}

// IsQuarter 是否季度
func (p Period) IsQuarter() bool {
	switch p {
	case PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4:
		return true
	}
	return false
}

// QuarterMonths 季度对应的三个月（倒序，最近在前）
func (p Period) QuarterMonths() []Month {
	switch p {
	case PeriodQ1:
		return []Month{Mar, Feb, Jan}
	case PeriodQ2:
		return []Month{Jun, May, Apr}
	case PeriodQ3:
		return []Month{Sep, Aug, Jul}
	case PeriodQ4:
		return []Month{Dec, Nov, Oct}
	}
	return nil
}

// ParsePeriod 解析汇总周期
func ParsePeriod(s string) (Period, bool) {
	for _, p := range Periods() {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// Metric 指标类别：值 / 环比变化 / 量
type Metric int

const (
	MetricValue Metric = iota
	MetricChange
	MetricVolume
)

// Metrics 所有指标类别
func Metrics() []Metric {
	return []Metric{MetricValue, MetricChange, MetricVolume}
}

func (k Metric) suffix() string {
	switch k {
	case MetricChange:
		return "_change"
	case MetricVolume:
		return "_volume"
	}
	return ""
}

// FieldName 时间列及其伴随字段名（sep2024 / sep2024_change / sep2024_volume）
func FieldName(base string, k Metric) string {
	return base + k.suffix()
}

type fieldKey struct {
	period Period
	metric Metric
}

// FieldTable 汇总列字段查找表：(周期, 指标) → 字段名
type FieldTable struct {
	quarterYear int
	fields      map[fieldKey]string
}

// NewFieldTable 构建查找表；季度字段形如 q1_2025
func NewFieldTable(quarterYear int) *FieldTable {
	t := &FieldTable{
		quarterYear: quarterYear,
		fields:      make(map[fieldKey]string, len(Periods())*len(Metrics())),
	}
	for _, p := range Periods() {
		var base string
		switch p {
		case PeriodYTD:
			base = "ytd"
		case PeriodYoY:
			base = "yoy"
		default:
			base = fmt.Sprintf("%s_%d", strings.ToLower(string(p)), quarterYear)
		}
		for _, k := range Metrics() {
			t.fields[fieldKey{p, k}] = FieldName(base, k)
		}
	}
	return t
}

// QuarterYear 季度字段年份
func (t *FieldTable) QuarterYear() int { return t.quarterYear }

// Field 返回字段名；未知周期返回 false
func (t *FieldTable) Field(p Period, k Metric) (string, bool) {
	name, ok := t.fields[fieldKey{p, k}]
	return name, ok
}
