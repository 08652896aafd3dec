// Package spreads 区域间价差矩阵（Market spreads 组件）
package spreads

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/util"
)

// 数据字段
const (
	FieldRegionA = "region_a"
	FieldRegionB = "region_b"
	FieldSpread  = "spread"
)

// ZeroColor 零价差的热力图颜色
const ZeroColor = "#f3f4f6"

// ZeroText 零价差的单元格文本
const ZeroText = "-"

var regionNames = map[string]string{
	"N":  "Total US",
	"NC": "North Central",
	"NE": "North East",
	"NM": "North Midwest",
	"S":  "South",
	"SE": "South East",
}

// RegionName 区域代码对应的展示名，未知代码原样返回
func RegionName(code string) string {
	if name, ok := regionNames[code]; ok {
		return name
	}
	return code
}

// Region 区域
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Cell 矩阵单元格
type Cell struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Spread     float64 `json:"spread"`
	Change     float64 `json:"change"`
	Intensity  float64 `json:"intensity"`
	Color      string  `json:"color"`
	SpreadText string  `json:"spreadText"`
	ChangeText string  `json:"changeText"`
	Tone       string  `json:"tone"`
}

// Matrix 价差矩阵，Cells[i][j] 为 Regions[i] → Regions[j]
type Matrix struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Empty    bool     `json:"empty"`
	Regions  []Region `json:"regions"`
	Cells    [][]Cell `json:"cells"`
}

// Regions 按字典序排列的 region_a 去重集合
func Regions(rows []model.Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		code := r.Get(FieldRegionA).Text()
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// Spread 第一条匹配记录的价差；缺失、为零或无法解析时为 0
func Spread(rows []model.Row, from, to string) float64 {
	for _, r := range rows {
		if r.Get(FieldRegionA).Text() != from || r.Get(FieldRegionB).Text() != to {
			continue
		}
		v := r.Get(FieldSpread)
		if !v.Truthy() {
			return 0
		}
		f, ok := v.Float()
		if !ok {
			return 0
		}
		return f
	}
	return 0
}

// Change 由价差推导的变化值：符号与价差相同，幅度为 |spread|+2
func Change(spread float64) float64 {
	switch {
	case spread > 0:
		return math.Abs(spread) + 2
	case spread < 0:
		return -(math.Abs(spread) + 2)
	}
	return 0
}

// Intensity 热力强度 min(|spread|/10, 1)
func Intensity(spread float64) float64 {
	return math.Min(math.Abs(spread)/10, 1)
}

// Alpha 非零强度对应的黑色不透明度
func Alpha(intensity float64) float64 {
	return 0.2 + intensity*0.6
}

// Color 热力格 CSS 颜色
func Color(intensity float64) string {
	if intensity == 0 {
		return ZeroColor
	}
	alpha := decimal.NewFromFloat(Alpha(intensity)).Round(3)
	return fmt.Sprintf("rgba(0, 0, 0, %s)", alpha.String())
}

// Build 构建价差矩阵；空数据返回 Empty=true
func Build(rows []model.Row, settings model.Settings) Matrix {
	settings = settings.Merge(model.DefaultSettings(model.WidgetMarketSpreads))
	m := Matrix{Title: settings.Title, Subtitle: settings.Subtitle}
	if len(rows) == 0 {
		m.Empty = true
		return m
	}

	codes := Regions(rows)
	for _, c := range codes {
		m.Regions = append(m.Regions, Region{Code: c, Name: RegionName(c)})
	}
	m.Cells = make([][]Cell, len(codes))
	for i, from := range codes {
		m.Cells[i] = make([]Cell, len(codes))
		for j, to := range codes {
			m.Cells[i][j] = newCell(from, to, Spread(rows, from, to))
		}
	}
	logging.Logger().Debug("spreads matrix built", "regions", len(codes), "rows", len(rows))
	return m
}

func newCell(from, to string, spread float64) Cell {
	change := Change(spread)
	intensity := Intensity(spread)
	c := Cell{
		From:       from,
		To:         to,
		Spread:     spread,
		Change:     change,
		Intensity:  intensity,
		Color:      Color(intensity),
		SpreadText: ZeroText,
		ChangeText: ZeroText,
		Tone:       util.ChangeTone(change),
	}
	if spread != 0 {
		c.SpreadText = util.FormatSpread(spread)
		c.ChangeText = util.FormatSpreadChange(change)
	}
	return c
}

// Intensities 强度矩阵
func (m Matrix) Intensities() [][]float64 {
	out := make([][]float64, len(m.Cells))
	for i, row := range m.Cells {
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = c.Intensity
		}
	}
	return out
}
