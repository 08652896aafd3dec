package spreads

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HeatmapSize 热力图默认边长
const HeatmapSize = 4 * vg.Inch

const paletteSteps = 101

// ErrEmptyMatrix 没有区域可绘制
var ErrEmptyMatrix = errors.New("spreads: empty matrix")

// intensityGrid 将强度矩阵适配为 plotter.GridXYZ；第 0 行绘制在最上方
type intensityGrid [][]float64

func (g intensityGrid) Dims() (c, r int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g[0]), len(g)
}

func (g intensityGrid) Z(c, r int) float64 { return g[len(g)-1-r][c] }
func (g intensityGrid) X(c int) float64    { return float64(c) }
func (g intensityGrid) Y(r int) float64    { return float64(r) }

type intensityPalette []color.Color

func (p intensityPalette) Colors() []color.Color { return p }

// newIntensityPalette 与页面一致：0 为浅灰，其余为白底上叠加不透明度 0.2~0.8 的黑色
func newIntensityPalette(steps int) palette.Palette {
	cs := make(intensityPalette, steps)
	cs[0] = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	for k := 1; k < steps; k++ {
		a := Alpha(float64(k) / float64(steps-1))
		v := uint8(math.Round(255 * (1 - a)))
		cs[k] = color.NRGBA{R: v, G: v, B: v, A: 0xff}
	}
	return cs
}

// RenderHeatmap 将强度矩阵绘制为 PNG 写入 w
func RenderHeatmap(w io.Writer, m Matrix, size vg.Length) error {
	if m.Empty || len(m.Regions) == 0 {
		return ErrEmptyMatrix
	}
	if size <= 0 {
		size = HeatmapSize
	}

	p := plot.New()
	p.Title.Text = "Spread Intensity"

	hm := plotter.NewHeatMap(intensityGrid(m.Intensities()), newIntensityPalette(paletteSteps))
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	names := make([]string, len(m.Regions))
	for i, r := range m.Regions {
		names[i] = r.Code
	}
	p.NominalX(names...)
	rev := slices.Clone(names)
	slices.Reverse(rev)
	p.NominalY(rev...)

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}
